// Package model holds the value types shared by every stage of the
// reconciliation pipeline: object kinds, logical keys, object records, and
// the differences the comparer emits. Nothing in this package touches a
// database connection or the filesystem.
package model

import "strings"

// Kind identifies the type of database object a Record describes.
type Kind int

const (
	Unknown Kind = iota
	Table
	View
	StoredProcedure
	ScalarFunction
	TableValuedFunction
	InlineTableValuedFunction
	Trigger
	Index
	User
	Role
	Login
)

func (k Kind) String() string {
	switch k {
	case Table:
		return "Table"
	case View:
		return "View"
	case StoredProcedure:
		return "StoredProcedure"
	case ScalarFunction:
		return "ScalarFunction"
	case TableValuedFunction:
		return "TableValuedFunction"
	case InlineTableValuedFunction:
		return "InlineTableValuedFunction"
	case Trigger:
		return "Trigger"
	case Index:
		return "Index"
	case User:
		return "User"
	case Role:
		return "Role"
	case Login:
		return "Login"
	default:
		return "Unknown"
	}
}

// IsFunction reports whether k is one of the three function variants that
// share a kind family for key-building purposes.
func (k Kind) IsFunction() bool {
	switch k {
	case ScalarFunction, TableValuedFunction, InlineTableValuedFunction:
		return true
	default:
		return false
	}
}

// Supported reports whether objects of this kind participate in a
// comparison. Login and Unknown are discovered but never diffed.
func (k Kind) Supported() bool {
	return k != Login && k != Unknown
}

// Family collapses the three function kinds into one bucket; every other
// kind passes through unchanged. It is the "kind-family" half of the
// logical key.
type Family string

const (
	FamilyTable      Family = "Table"
	FamilyView       Family = "View"
	FamilyProcedure  Family = "StoredProcedure"
	FamilyFunction   Family = "Function"
	FamilyTrigger    Family = "Trigger"
	FamilyIndex      Family = "Index"
	FamilyUser       Family = "User"
	FamilyRole       Family = "Role"
	FamilyLogin      Family = "Login"
	FamilyUnsupplied Family = "Unknown"
)

// KindFamily returns the family a kind belongs to.
func KindFamily(k Kind) Family {
	if k.IsFunction() {
		return FamilyFunction
	}
	switch k {
	case Table:
		return FamilyTable
	case View:
		return FamilyView
	case StoredProcedure:
		return FamilyProcedure
	case Trigger:
		return FamilyTrigger
	case Index:
		return FamilyIndex
	case User:
		return FamilyUser
	case Role:
		return FamilyRole
	case Login:
		return FamilyLogin
	default:
		return FamilyUnsupplied
	}
}

// foldName lowercases a name for case-insensitive comparison without
// otherwise touching it (bracket/dot content is preserved verbatim).
func foldName(name string) string {
	return strings.ToLower(name)
}
