package chain

import (
	"strings"
)

// DefaultRefPrefix is the marker that distinguishes a reference expression
// from a literal string argument.
const DefaultRefPrefix = "ref:"

// Resolver rewrites a step's declared arguments, substituting reference
// expressions with the corresponding values currently in the run context.
// A reference expression is a string of the form "ref:<key>" (the prefix is
// configurable). Everything else passes through unchanged.
//
// Resolution is a pure lookup with no side effects: resolving the same
// arguments twice against the same context yields the same bound values.
type Resolver struct {
	prefix string
}

// NewResolver creates a resolver using DefaultRefPrefix.
func NewResolver() *Resolver {
	return &Resolver{prefix: DefaultRefPrefix}
}

// NewResolverWithPrefix creates a resolver with a custom reference marker.
func NewResolverWithPrefix(prefix string) *Resolver {
	if prefix == "" {
		prefix = DefaultRefPrefix
	}
	return &Resolver{prefix: prefix}
}

// ResolveStep binds a step's args and kwargs against the context. A reference
// to a key not yet populated fails with an unresolved reference error naming
// the missing key and the referencing step.
func (r *Resolver) ResolveStep(step Step, ctx *Context) ([]any, map[string]any, error) {
	args := make([]any, len(step.Args))
	for i, raw := range step.Args {
		v, err := r.resolveValue(step.Key, raw, ctx)
		if err != nil {
			return nil, nil, err
		}
		args[i] = v
	}

	var kwargs map[string]any
	if step.Kwargs != nil {
		kwargs = make(map[string]any, len(step.Kwargs))
		for name, raw := range step.Kwargs {
			v, err := r.resolveValue(step.Key, raw, ctx)
			if err != nil {
				return nil, nil, err
			}
			kwargs[name] = v
		}
	}

	return args, kwargs, nil
}

// IsRef reports whether the value is a reference expression.
func (r *Resolver) IsRef(value any) bool {
	s, ok := value.(string)
	return ok && strings.HasPrefix(s, r.prefix)
}

// RefKey returns the context key a reference expression names. Only valid
// when IsRef returned true.
func (r *Resolver) RefKey(value any) string {
	s, _ := value.(string)
	return strings.TrimPrefix(s, r.prefix)
}

// resolveValue substitutes a single argument value. Containers are resolved
// recursively so references can appear inside nested maps and slices.
func (r *Resolver) resolveValue(stepKey string, value any, ctx *Context) (any, error) {
	switch v := value.(type) {
	case string:
		if !strings.HasPrefix(v, r.prefix) {
			return v, nil
		}
		key := strings.TrimPrefix(v, r.prefix)
		resolved, ok := ctx.Lookup(key)
		if !ok {
			return nil, NewUnresolvedReferenceError(stepKey, key)
		}
		return resolved, nil

	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			resolved, err := r.resolveValue(stepKey, item, ctx)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil

	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			resolved, err := r.resolveValue(stepKey, item, ctx)
			if err != nil {
				return nil, err
			}
			out[key] = resolved
		}
		return out, nil

	default:
		return value, nil
	}
}
