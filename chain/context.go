package chain

import (
	"fmt"
	"sort"
)

// Context holds the results of one chain run: a write-once mapping from step
// key (or declared ref) to the step's resolved result. A fresh Context is
// created per run and is never shared across concurrent runs, so it needs no
// locking.
type Context struct {
	values  map[string]any
	lastKey string
}

// NewContext creates an empty run context.
func NewContext() *Context {
	return &Context{values: make(map[string]any)}
}

// Seed copies the given initial values into the context. Seeded keys count as
// written: a later step publishing under the same key violates the write-once
// invariant.
func (c *Context) Seed(initial map[string]any) error {
	for key, value := range initial {
		if err := c.set(key, value); err != nil {
			return err
		}
	}
	return nil
}

// Lookup returns the value stored under key and whether it exists.
func (c *Context) Lookup(key string) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Get returns the value stored under key, or nil if absent.
func (c *Context) Get(key string) any {
	return c.values[key]
}

// Last returns the most recently written value: the final step's result once
// a run completes.
func (c *Context) Last() any {
	return c.values[c.lastKey]
}

// LastKey returns the key of the most recently written value, or "" for an
// empty context.
func (c *Context) LastKey() string {
	return c.lastKey
}

// Keys returns all populated keys in sorted order.
func (c *Context) Keys() []string {
	keys := make([]string, 0, len(c.values))
	for k := range c.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of populated keys.
func (c *Context) Len() int {
	return len(c.values)
}

// Values returns a copy of the context contents. The copy is safe to retain
// after the run.
func (c *Context) Values() map[string]any {
	out := make(map[string]any, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}

// set writes a value under key, enforcing write-once semantics.
func (c *Context) set(key string, value any) error {
	if key == "" {
		return fmt.Errorf("context key cannot be empty")
	}
	if _, exists := c.values[key]; exists {
		return fmt.Errorf("context key written twice: %q", key)
	}
	c.values[key] = value
	c.lastKey = key
	return nil
}
