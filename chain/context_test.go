package chain

import (
	"reflect"
	"testing"
)

func TestContextWriteOnce(t *testing.T) {
	ctx := NewContext()

	if err := ctx.set("sum", 1183); err != nil {
		t.Fatalf("first write failed: %v", err)
	}
	if err := ctx.set("sum", 9999); err == nil {
		t.Fatal("second write to the same key should fail")
	}
	if got := ctx.Get("sum"); got != 1183 {
		t.Errorf("value overwritten: got %v, want 1183", got)
	}
}

func TestContextSeedCountsAsWritten(t *testing.T) {
	ctx := NewContext()
	if err := ctx.Seed(map[string]any{"input": "hello"}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := ctx.set("input", "shadow"); err == nil {
		t.Fatal("writing over a seeded key should fail")
	}
}

func TestContextLastTracksMostRecentWrite(t *testing.T) {
	ctx := NewContext()
	for _, kv := range []struct {
		key   string
		value any
	}{
		{"a", 1},
		{"b", 2},
		{"c", "final"},
	} {
		if err := ctx.set(kv.key, kv.value); err != nil {
			t.Fatalf("set %q: %v", kv.key, err)
		}
	}
	if got := ctx.Last(); got != "final" {
		t.Errorf("Last() = %v, want %q", got, "final")
	}
}

func TestContextValuesIsACopy(t *testing.T) {
	ctx := NewContext()
	if err := ctx.set("k", "v"); err != nil {
		t.Fatalf("set: %v", err)
	}

	snapshot := ctx.Values()
	snapshot["k"] = "mutated"
	snapshot["new"] = true

	if got := ctx.Get("k"); got != "v" {
		t.Errorf("mutating the snapshot leaked into the context: got %v", got)
	}
	if _, ok := ctx.Lookup("new"); ok {
		t.Error("new snapshot key leaked into the context")
	}
	if want := []string{"k"}; !reflect.DeepEqual(ctx.Keys(), want) {
		t.Errorf("Keys() = %v, want %v", ctx.Keys(), want)
	}
}

func TestContextEmptyKeyRejected(t *testing.T) {
	ctx := NewContext()
	if err := ctx.set("", 1); err == nil {
		t.Fatal("empty key should be rejected")
	}
}
