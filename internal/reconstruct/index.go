package reconstruct

import (
	"fmt"
	"strings"

	"github.com/tsqldiff/tsqldiff/internal/normalize"
)

// IndexColumn is one key or included column of an index.
type IndexColumn struct {
	Name       string
	Descending bool
	Included   bool
}

// Index renders a canonical CREATE INDEX script from catalog rows.
// dataCompression defaults to "NONE" and, when so, the trailing WITH
// clause is omitted entirely.
func Index(schema, table, name, typeDescription string, unique bool, dataCompression string, filter string, hasFilter bool, columns []IndexColumn) string {
	var keys, included []string
	for _, c := range columns {
		if c.Included {
			included = append(included, fmt.Sprintf("[%s]", c.Name))
			continue
		}
		col := fmt.Sprintf("[%s]", c.Name)
		if c.Descending {
			col += " DESC"
		} else {
			col += " ASC"
		}
		keys = append(keys, col)
	}

	var b strings.Builder
	b.WriteString("CREATE ")
	if unique {
		b.WriteString("UNIQUE ")
	}
	b.WriteString(indexTypeBucket(typeDescription))
	fmt.Fprintf(&b, " INDEX [%s] ON [%s].[%s] (%s)", name, schema, table, strings.Join(keys, ", "))
	if len(included) > 0 {
		fmt.Fprintf(&b, " INCLUDE (%s)", strings.Join(included, ", "))
	}
	if hasFilter {
		fmt.Fprintf(&b, " WHERE %s", filter)
	}
	if dataCompression == "" {
		dataCompression = "NONE"
	}
	if !strings.EqualFold(dataCompression, "NONE") {
		fmt.Fprintf(&b, " WITH (DATA_COMPRESSION = %s)", strings.ToUpper(dataCompression))
	}
	return b.String()
}

func indexTypeBucket(typeDescription string) string {
	upper := strings.ToUpper(typeDescription)
	if strings.Contains(upper, "CLUSTERED") && !strings.Contains(upper, "NONCLUSTERED") {
		return "CLUSTERED"
	}
	return "NONCLUSTERED"
}

// CanonicalIndex is the canonical, hash-ready form of an index script.
func CanonicalIndex(schema, table, name, typeDescription string, unique bool, dataCompression string, filter string, hasFilter bool, columns []IndexColumn) string {
	script := Index(schema, table, name, typeDescription, unique, dataCompression, filter, hasFilter, columns)
	return normalize.NormalizeIndexForComparison(script)
}

// IndexObjectName builds the TableName.IndexName logical name used as a
// Record's Name for indexes.
func IndexObjectName(table, index string) string {
	return table + "." + index
}
