package breaker

// FallbackFunc produces a substitute value for a rejected call, named by
// the breaker it was rejected from. It may return an error to override
// the default open-circuit behavior (the error then replaces OpenError as
// what Call returns).
type FallbackFunc func(name string) (interface{}, error)

// FallbackResolver holds a per-name registry plus an optional global
// default, mirroring the teacher's single OnStateChange-style callback
// generalized to resolution-by-name-then-default per the fallback
// resolution rule.
type FallbackResolver struct {
	enabled bool
	byName  map[string]FallbackFunc
	deflt   FallbackFunc
}

// NewFallbackResolver returns a resolver with fallbacks enabled and no
// handlers registered.
func NewFallbackResolver() FallbackResolver {
	return FallbackResolver{enabled: true, byName: make(map[string]FallbackFunc)}
}

// Disabled returns a copy that never resolves a fallback, regardless of
// registered handlers.
func (r FallbackResolver) Disabled() FallbackResolver {
	r.enabled = false
	return r
}

// WithHandler returns a copy with fn registered for name.
func (r FallbackResolver) WithHandler(name string, fn FallbackFunc) FallbackResolver {
	cp := make(map[string]FallbackFunc, len(r.byName)+1)
	for k, v := range r.byName {
		cp[k] = v
	}
	cp[name] = fn
	r.byName = cp
	return r
}

// WithDefault returns a copy whose global default handler is fn.
func (r FallbackResolver) WithDefault(fn FallbackFunc) FallbackResolver {
	r.deflt = fn
	return r
}

// handlerFor looks up the handler that applies to name: the per-name
// registration if one exists, else the global default. Returns nil if
// fallbacks are disabled or no handler applies.
func (r FallbackResolver) handlerFor(name string) FallbackFunc {
	if !r.enabled {
		return nil
	}
	if handler := r.byName[name]; handler != nil {
		return handler
	}
	return r.deflt
}
