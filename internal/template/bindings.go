package template

// Bindings is the named data a template renders against. The engine never
// mutates a Bindings value; callers rebuild it on every dependency change
// and loop bodies render against derived copies.
type Bindings struct {
	// Variables maps names to values: scalars, maps, or sequences.
	Variables map[string]interface{}

	// StringSubstitutions maps names to literal replacement strings.
	StringSubstitutions map[string]string

	// OpaquePlaceholders is the set of names that must not be
	// expression-evaluated: references to functions or embedded components
	// whose real values are live objects, not text.
	OpaquePlaceholders map[string]interface{}
}

// NewBindings creates an empty bindings context.
func NewBindings() *Bindings {
	return &Bindings{
		Variables:           make(map[string]interface{}),
		StringSubstitutions: make(map[string]string),
		OpaquePlaceholders:  make(map[string]interface{}),
	}
}

// IsOpaque reports whether name is an opaque placeholder.
func (b *Bindings) IsOpaque(name string) bool {
	if b == nil {
		return false
	}
	_, ok := b.OpaquePlaceholders[name]
	return ok
}

// WithVariables derives a bindings context with extra variables layered on
// top, leaving the receiver untouched. Used for loop-local scopes.
func (b *Bindings) WithVariables(extra map[string]interface{}) *Bindings {
	derived := &Bindings{
		Variables:           make(map[string]interface{}, len(b.Variables)+len(extra)),
		StringSubstitutions: b.StringSubstitutions,
		OpaquePlaceholders:  b.OpaquePlaceholders,
	}
	for name, value := range b.Variables {
		derived.Variables[name] = value
	}
	for name, value := range extra {
		derived.Variables[name] = value
	}
	return derived
}
