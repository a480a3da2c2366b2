package model

// Key is the logical key used to match an object across the database side
// and the file side: a kind family plus a case-insensitive name. For
// indexes the name is always "TableName.IndexName". Key is comparable, and
// its Go equality agrees with Equal, so it can serve directly as a map key
// when grouping records.
type Key struct {
	Family Family
	name   string // folded (lowercased) form, used for equality/ordering
}

// NewKey builds a logical key for kind and name.
func NewKey(kind Kind, name string) Key {
	return Key{
		Family: KindFamily(kind),
		name:   foldName(name),
	}
}

// Name returns the case-folded name used for comparison.
func (k Key) Name() string {
	return k.name
}

// Less provides a deterministic total order over keys: by family, then by
// folded name. The comparer iterates groups in this order so that the
// emitted difference list is reproducible across runs.
func (k Key) Less(other Key) bool {
	if k.Family != other.Family {
		return k.Family < other.Family
	}
	return k.name < other.name
}

// Equal reports whether two keys identify the same logical object.
func (k Key) Equal(other Key) bool {
	return k.Family == other.Family && k.name == other.name
}
