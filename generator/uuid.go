package generator

import (
	"context"

	"github.com/google/uuid"

	"github.com/syssam/xorgen"
	"github.com/syssam/xorgen/dialect"
)

// UUIDGenerator derives a name-based (SHA-1) UUID from each value emitted
// by the driver it listens to, so the same id always maps to the same UUID.
type UUIDGenerator struct {
	namespace uuid.UUID
	value     Value
}

// NewUUIDGenerator returns a generator deriving UUIDs in namespace.
func NewUUIDGenerator(namespace uuid.UUID) *UUIDGenerator {
	return &UUIDGenerator{namespace: namespace}
}

// NewUUIDGeneratorArgs builds a generator from [] or ["namespace"]. The
// namespace defaults to the OID namespace.
func NewUUIDGeneratorArgs(args []string) (*UUIDGenerator, error) {
	switch len(args) {
	case 0:
		return NewUUIDGenerator(uuid.NameSpaceOID), nil
	case 1:
		ns, err := uuid.Parse(args[0])
		if err != nil {
			return nil, xorgen.NewConfigError("uuid namespace", args[0], err.Error())
		}
		return NewUUIDGenerator(ns), nil
	default:
		return nil, xorgen.NewConfigError("uuid arguments", args, "expected an optional namespace")
	}
}

// Init clears the current value.
func (g *UUIDGenerator) Init(context.Context, dialect.Driver, *Visitor) error {
	g.value = Null()
	return nil
}

// HandleEvent derives the UUID of v.
func (g *UUIDGenerator) HandleEvent(v Value, _ *Visitor) {
	name, ok := v.Text()
	if !ok {
		g.value = Null()
		return
	}
	g.value = UUID(uuid.NewSHA1(g.namespace, []byte(name)))
}

// Current returns the last derived UUID.
func (g *UUIDGenerator) Current() Value { return g.value }
