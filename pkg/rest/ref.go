package rest

// Identifier is anything with a server-assigned id.
type Identifier interface {
	ID() string
}

// Ref points at a resource either through a handle or a bare id. It is
// resolved to the id when built, so managers only deal with strings.
type Ref struct {
	id string
}

// ByID references a resource by its raw id.
func ByID(id string) Ref { return Ref{id: id} }

// RefTo references a resource handle.
func RefTo(r Identifier) Ref {
	if r == nil {
		return Ref{}
	}
	return Ref{id: r.ID()}
}

// ID returns the resolved id.
func (r Ref) ID() string { return r.id }

// Resolve returns the id, or ErrEmptyRef when there is none.
func (r Ref) Resolve() (string, error) {
	if r.id == "" {
		return "", ErrEmptyRef
	}
	return r.id, nil
}
