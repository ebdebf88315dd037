package callable

import (
	"errors"
	"testing"
)

func TestSliceStreamYieldsAllFragments(t *testing.T) {
	s := NewSliceStream([]string{"11", "8", "3"})

	var got []string
	for s.Next() {
		got = append(got, s.Text())
	}
	if s.Err() != nil {
		t.Fatalf("Err() = %v", s.Err())
	}
	if len(got) != 3 || got[0] != "11" || got[1] != "8" || got[2] != "3" {
		t.Errorf("fragments = %v", got)
	}
	if s.Next() {
		t.Error("exhausted stream should not restart")
	}
}

func TestDrainConcatenatesFragments(t *testing.T) {
	out, err := Drain(NewSliceStream([]string{"11", "8", "3"}))
	if err != nil {
		t.Fatalf("Drain() error = %v", err)
	}
	if out != "1183" {
		t.Errorf("Drain() = %q, want %q", out, "1183")
	}
}

func TestChanStreamDeliversErrorAfterFragments(t *testing.T) {
	frags := make(chan string, 2)
	errs := make(chan error, 1)
	frags <- "partial"
	errs <- errors.New("stream broke")
	close(frags)
	close(errs)

	s := NewChanStream(frags, errs, nil)
	var got []string
	for s.Next() {
		got = append(got, s.Text())
	}
	if len(got) != 1 || got[0] != "partial" {
		t.Errorf("fragments = %v, want [partial]", got)
	}
	if s.Err() == nil {
		t.Error("terminating error should surface through Err()")
	}
}

func TestChanStreamCloseCancelsProducer(t *testing.T) {
	frags := make(chan string)
	cancelled := false
	s := NewChanStream(frags, nil, func() { cancelled = true })

	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !cancelled {
		t.Error("Close should invoke the cancel func")
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}
