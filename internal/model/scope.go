package model

import "strings"

// Ref is one polymorphic side of a Scope: a model type-tag paired with an
// identifier. The host's rich domain model converts to this pair at the
// boundary; the core never dereferences the model itself (Design Notes §9).
type Ref struct {
	Type string
	ID   string
}

// Equal reports whether two Refs name the same model instance.
func (r Ref) Equal(other Ref) bool {
	return r.Type == other.Type && r.ID == other.ID
}

// Scope is the ordered pair (context?, boundary?), each side independently
// optional. A nil pointer denotes "absent" ("global") on that side.
type Scope struct {
	Context  *Ref
	Boundary *Ref
}

// Equal reports whether two scopes are equal: both sides absent, or both
// present and Ref-equal.
func (s Scope) Equal(other Scope) bool {
	return refEqual(s.Context, other.Context) && refEqual(s.Boundary, other.Boundary)
}

func refEqual(a, b *Ref) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

// Key is the canonical identity of one breaker record: a name plus a Scope.
type Key struct {
	Name  string
	Scope Scope
}

// Attribute distinguishes the two logical sub-keys a key-value store needs
// per identity (spec.md §4.1's "two logical keys per identity").
type Attribute string

const (
	AttributeState   Attribute = "state"
	AttributeMetrics Attribute = "metrics"
)

// String renders the canonical string form of the key: an optional prefix,
// then context and boundary (type-tag then id, each if present), then the
// name, then the attribute suffix — in that order, separated by ":".
// Stores that index by tuple (the durable driver) need not use this string
// form, but must honor the same equality it encodes (spec.md §4.1 "Key
// algebra").
func (k Key) String(prefix string, attr Attribute) string {
	var b strings.Builder
	if prefix != "" {
		b.WriteString(prefix)
		b.WriteByte(':')
	}
	if k.Scope.Context != nil {
		b.WriteString(k.Scope.Context.Type)
		b.WriteByte(':')
		b.WriteString(k.Scope.Context.ID)
		b.WriteByte(':')
	}
	if k.Scope.Boundary != nil {
		b.WriteString(k.Scope.Boundary.Type)
		b.WriteByte(':')
		b.WriteString(k.Scope.Boundary.ID)
		b.WriteByte(':')
	}
	b.WriteString(k.Name)
	if attr != "" {
		b.WriteByte(':')
		b.WriteString(string(attr))
	}
	return b.String()
}
