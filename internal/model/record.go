package model

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Source identifies which side of a comparison an object or a difference
// came from.
type Source int

const (
	Database Source = iota
	FileSystem
)

func (s Source) String() string {
	if s == FileSystem {
		return "FileSystem"
	}
	return "Database"
}

// Record is an object record as defined by the data model: it carries
// enough information, from either side, to be grouped by logical key and
// compared by content hash.
//
// Schema may be empty on the file side when it could not be inferred
// (see internal/compare's schema-inference step). Name is the identifier
// exactly as written in the object's DDL, including any dots that were
// inside brackets; for indexes it is always "TableName.IndexName".
type Record struct {
	Schema     string
	Name       string
	Kind       Kind
	Definition string // canonical text, per internal/normalize
	Hash       string // lowercase hex SHA-256 of the UTF-8 bytes of Definition

	Source Source

	// Database-side metadata.
	ModifiedAt *time.Time

	// File-side metadata.
	FilePath       string
	FileModifiedAt time.Time
}

// Key returns the logical key this record groups under.
func (r Record) Key() Key {
	return NewKey(r.Kind, r.Name)
}

// HashDefinition computes the canonical SHA-256 hash of text, as a lowercase
// hex string. Every Record's Hash field must equal HashDefinition(Definition)
// for hash comparisons to be trustworthy.
func HashDefinition(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// NewRecord builds a Record and derives Hash from definition, so callers
// cannot construct a Record whose hash disagrees with its text.
func NewRecord(schema, name string, kind Kind, definition string, source Source) Record {
	return Record{
		Schema:     schema,
		Name:       name,
		Kind:       kind,
		Definition: definition,
		Hash:       HashDefinition(definition),
		Source:     source,
	}
}
