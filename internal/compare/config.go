package compare

import "github.com/tsqldiff/tsqldiff/internal/model"

// Config selects which object kinds participate in a comparison. Index
// inclusion follows Tables; Users and Roles are always included when
// present.
type Config struct {
	Tables     bool
	Views      bool
	Procedures bool
	Functions  bool
	Triggers   bool
}

// includes reports whether kind is both supported for comparison and
// enabled by this configuration.
func (c Config) includes(kind model.Kind) bool {
	if !kind.Supported() {
		return false
	}
	switch {
	case kind == model.Table:
		return c.Tables
	case kind == model.Index:
		return c.Tables
	case kind == model.View:
		return c.Views
	case kind == model.StoredProcedure:
		return c.Procedures
	case kind.IsFunction():
		return c.Functions
	case kind == model.Trigger:
		return c.Triggers
	case kind == model.User, kind == model.Role:
		return true
	default:
		return false
	}
}
