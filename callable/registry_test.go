package callable

import (
	"context"
	"reflect"
	"testing"

	"github.com/rs/zerolog"
)

func TestRegistryRegisterAndLookup(t *testing.T) {
	reg := NewRegistry(zerolog.Nop())

	echo := Func("echo", func(_ context.Context, args []any, _ map[string]any) (any, error) {
		return args[0], nil
	})
	if err := reg.Register(echo); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	got, err := reg.Lookup("echo")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if got.Name() != "echo" {
		t.Errorf("Name() = %q, want %q", got.Name(), "echo")
	}

	if _, err := reg.Lookup("missing"); err == nil {
		t.Error("Lookup of unknown callable should fail")
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	reg := NewRegistry(zerolog.Nop())
	fn := func(_ context.Context, _ []any, _ map[string]any) (any, error) { return nil, nil }

	if err := reg.Register(Func("dup", fn)); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}
	if err := reg.Register(Func("dup", fn)); err == nil {
		t.Fatal("second Register() under the same name should fail")
	}
	if err := reg.Register(Func("", fn)); err == nil {
		t.Fatal("empty callable name should be rejected")
	}
}

func TestRegistryNamesSorted(t *testing.T) {
	reg := NewRegistry(zerolog.Nop())
	fn := func(_ context.Context, _ []any, _ map[string]any) (any, error) { return nil, nil }
	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := reg.Register(Func(name, fn)); err != nil {
			t.Fatalf("Register(%q): %v", name, err)
		}
	}
	if want := []string{"alpha", "mid", "zeta"}; !reflect.DeepEqual(reg.Names(), want) {
		t.Errorf("Names() = %v, want %v", reg.Names(), want)
	}
}

func TestSupportsProbesCapabilities(t *testing.T) {
	fn := func(_ context.Context, _ []any, _ map[string]any) (any, error) { return "v", nil }
	streamFn := func(_ context.Context, _ []any, _ map[string]any) (Stream, error) {
		return NewSliceStream([]string{"v"}), nil
	}
	batchFn := func(_ context.Context, batch []Invocation) ([]any, error) {
		return make([]any, len(batch)), nil
	}

	tests := []struct {
		name string
		c    Callable
		want map[Mode]bool
	}{
		{
			name: "plain func is sync only",
			c:    Func("plain", fn),
			want: map[Mode]bool{ModeSync: true, ModeAsync: false, ModeStream: false, ModeBatch: false},
		},
		{
			name: "async func",
			c:    AsyncFunc("async", fn),
			want: map[Mode]bool{ModeSync: true, ModeAsync: true, ModeStream: false, ModeBatch: false},
		},
		{
			name: "stream func",
			c:    StreamFunc("stream", fn, streamFn),
			want: map[Mode]bool{ModeSync: true, ModeAsync: false, ModeStream: true, ModeBatch: false},
		},
		{
			name: "batch func",
			c:    BatchFunc("batch", fn, batchFn),
			want: map[Mode]bool{ModeSync: true, ModeAsync: false, ModeStream: false, ModeBatch: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for mode, want := range tt.want {
				if got := Supports(tt.c, mode); got != want {
					t.Errorf("Supports(%s) = %v, want %v", mode, got, want)
				}
			}
		})
	}
}

func TestAsyncFuncDeliversOneOutcome(t *testing.T) {
	c := AsyncFunc("answer", func(_ context.Context, _ []any, _ map[string]any) (any, error) {
		return 42, nil
	})

	ch := c.InvokeAsync(context.Background(), nil, nil)
	outcome, ok := <-ch
	if !ok {
		t.Fatal("outcome channel closed without a result")
	}
	if outcome.Err != nil || outcome.Value != 42 {
		t.Errorf("outcome = %+v, want value 42", outcome)
	}
	if _, ok := <-ch; ok {
		t.Error("outcome channel should be closed after the single result")
	}
}
