package model

import "github.com/google/uuid"

// DiffType is the kind of change a Difference represents.
type DiffType int

const (
	Add DiffType = iota
	Modify
	Delete
)

func (t DiffType) String() string {
	switch t {
	case Add:
		return "Add"
	case Modify:
		return "Modify"
	case Delete:
		return "Delete"
	default:
		return "Unknown"
	}
}

// Difference is one emitted row of the comparison result: an object that
// needs to be added, modified, or deleted to bring one side in line with
// the other.
type Difference struct {
	ID     uuid.UUID
	Schema string
	Name   string
	Kind   Kind
	Type   DiffType
	Source Source // which side drives this difference (the side to apply from)

	DatabaseDefinition string // empty if the object doesn't exist on the DB side
	FileDefinition     string // empty if the object doesn't exist on the file side
	FilePath           string // set for file-sourced entries
}

// NewDifference builds a Difference with a fresh identity.
func NewDifference(schema, name string, kind Kind, diffType DiffType, source Source) Difference {
	return Difference{
		ID:     uuid.New(),
		Schema: schema,
		Name:   name,
		Kind:   kind,
		Type:   diffType,
		Source: source,
	}
}
