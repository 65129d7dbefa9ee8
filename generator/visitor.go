package generator

// Visitor carries per-entity state while one synthetic row is generated.
// It is created by the caller and threaded through every Next and
// HandleEvent call of the row. All setters are safe on a nil Visitor.
type Visitor struct {
	// Row holds the column values of the row under construction, or the
	// last fetched row for query-driven tables.
	Row []any

	relationship string
	context      Value
	owner        Value
	index        int64
	total        int64
}

// NewVisitor returns a visitor for the named relationship (usually the
// table or entity being generated).
func NewVisitor(relationship string) *Visitor {
	return &Visitor{relationship: relationship}
}

// RelationshipName returns the relationship the visitor was created for.
func (v *Visitor) RelationshipName() string {
	if v == nil {
		return ""
	}
	return v.relationship
}

// SetContext records the value most recently produced by a driving generator.
func (v *Visitor) SetContext(val Value) {
	if v != nil {
		v.context = val
	}
}

// Context returns the value set by SetContext.
func (v *Visitor) Context() Value {
	if v == nil {
		return Null()
	}
	return v.context
}

// SetOwner records the owner of the element being generated.
func (v *Visitor) SetOwner(owner Value) {
	if v != nil {
		v.owner = owner
	}
}

// Owner returns the owner set by SetOwner.
func (v *Visitor) Owner() Value {
	if v == nil {
		return Null()
	}
	return v.owner
}

// SetPosition records the index of the element within its owner's
// collection and the collection size.
func (v *Visitor) SetPosition(index, total int64) {
	if v != nil {
		v.index, v.total = index, total
	}
}

// Position returns the values set by SetPosition.
func (v *Visitor) Position() (index, total int64) {
	if v == nil {
		return 0, 0
	}
	return v.index, v.total
}

// Reset clears the per-row state, keeping the relationship name.
func (v *Visitor) Reset() {
	if v == nil {
		return
	}
	*v = Visitor{relationship: v.relationship, Row: v.Row[:0]}
}
