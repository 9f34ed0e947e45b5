package model

import (
	"fmt"

	"github.com/google/uuid"
)

// Identity is the stable, process-unique identifier of a simulated entity
// paired with a human readable name.
type Identity struct {
	UUID uuid.UUID `json:"uuid"`
	Name string    `json:"name"`
}

// NewIdentity returns an Identity with a freshly generated UUID.
func NewIdentity(name string) Identity {
	return Identity{UUID: uuid.New(), Name: name}
}

func (id Identity) String() string {
	return fmt.Sprintf("%s(%s)", id.Name, id.UUID)
}

// Kind marks an entity as agent or target.
type Kind int

const (
	KindAgent Kind = iota + 1
	KindTarget
)

func (k Kind) String() string {
	switch k {
	case KindAgent:
		return "agent"
	case KindTarget:
		return "target"
	default:
		return "unknown"
	}
}
