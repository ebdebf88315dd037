package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/aschepis/backscratcher/chains/llm"
)

// chatServer streams count content chunks followed by a done chunk, in the
// NDJSON framing the Ollama API uses.
func chatServer(t *testing.T, count int) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-ndjson")
		enc := json.NewEncoder(w)
		for i := 0; i < count; i++ {
			_ = enc.Encode(api.ChatResponse{
				Model:   "tester",
				Message: api.Message{Role: "assistant", Content: "x"},
			})
		}
		_ = enc.Encode(api.ChatResponse{Model: "tester", Done: true})
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestStreamDeliversChunks(t *testing.T) {
	ts := chatServer(t, 3)
	client, err := NewClient(ts.URL, "tester")
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	s, err := client.Stream(context.Background(), &llm.Request{Messages: []llm.Message{llm.NewUserMessage("hi")}})
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}
	defer s.Close() //nolint:errcheck // Cleanup

	text := ""
	sawDone := false
	for s.Next() {
		ev := s.Event()
		text += ev.Text
		if ev.Done {
			sawDone = true
		}
	}
	if err := s.Err(); err != nil {
		t.Fatalf("Err() = %v", err)
	}
	if text != "xxx" {
		t.Errorf("concatenated text = %q, want %q", text, "xxx")
	}
	if !sawDone {
		t.Error("never saw the done event")
	}
}

func TestStreamCloseUnblocksProducer(t *testing.T) {
	// Far more chunks than the event channel buffers, so the producer is
	// parked on a send when the consumer walks away.
	ts := chatServer(t, 100)
	client, err := NewClient(ts.URL, "tester")
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	s, err := client.Stream(context.Background(), &llm.Request{Messages: []llm.Message{llm.NewUserMessage("hi")}})
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}
	if !s.Next() {
		t.Fatalf("Next() = false before any chunk, Err() = %v", s.Err())
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	// The producer closes errs on exit; events itself must not be drained
	// here or a stuck send would be unblocked by the test.
	impl := s.(*stream)
	select {
	case <-impl.errs:
	case <-time.After(2 * time.Second):
		t.Fatal("producer still blocked after Close")
	}
}
