package chain

// Step is an immutable unit of work within a chain: a unique key, the name of
// a registered callable, the arguments to bind, and an optional ref under
// which the result is published to the run context.
type Step struct {
	// Key uniquely identifies the step within its chain. Required.
	Key string

	// Callable names the registered callable to invoke. Resolved through the
	// chain's registry at execution time.
	Callable string

	// Args are positional argument values. Each value may be a literal or a
	// reference expression naming a context key (see Resolver).
	Args []any

	// Kwargs are keyword argument values, same substitution rules as Args.
	Kwargs map[string]any

	// Ref optionally names the context key the result is published under.
	// Defaults to Key when empty.
	Ref string
}

// ResultKey returns the context key this step's result is published under.
func (s Step) ResultKey() string {
	if s.Ref != "" {
		return s.Ref
	}
	return s.Key
}
