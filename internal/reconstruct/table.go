// Package reconstruct builds canonical CREATE TABLE / CREATE INDEX /
// programmable-object scripts from catalog rows, so the database side of a
// comparison has the same canonical shape as a file-side script.
package reconstruct

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/tsqldiff/tsqldiff/internal/normalize"
)

const indent = "\t"

// Generated-always codes from sys.columns.generated_always_type.
const (
	GeneratedNone     = 0
	GeneratedRowStart = 1
	GeneratedRowEnd   = 2
)

// Column is one row of a table's column list, as read from the catalog.
type Column struct {
	ID                        int
	Name                      string
	Type                      string // catalog type name, e.g. "nvarchar"
	MaxLength                 int    // bytes; -1 means MAX
	Precision                 int
	Scale                     int
	Nullable                  bool
	IdentitySeed              string
	IdentityIncrement         string
	IdentityNotForReplication bool
	ComputedExpression        string
	GeneratedAlways           int
}

// TemporalInfo describes a system-versioned table's history link.
type TemporalInfo struct {
	HistorySchema    string
	HistoryTable     string
	RowStartColumnID *int
	RowEndColumnID   *int
}

// MemoryOptimizedInfo describes a memory-optimized table's durability.
type MemoryOptimizedInfo struct {
	SchemaOnly bool // false means SCHEMA_AND_DATA
}

// Table renders a canonical CREATE TABLE script from catalog rows, ordered
// by column id ascending.
func Table(schema, table string, columns []Column, temporal *TemporalInfo, memOpt *MemoryOptimizedInfo) string {
	columns = append([]Column(nil), columns...)
	sort.SliceStable(columns, func(i, j int) bool { return columns[i].ID < columns[j].ID })

	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE [%s].[%s]\n(", schema, table)

	if len(columns) == 0 {
		b.WriteString("\n)")
		return b.String()
	}

	rowStartID, rowEndID := periodColumnIDs(columns, temporal)
	hasPeriod := rowStartID != nil && rowEndID != nil

	for i, col := range columns {
		b.WriteString("\n" + indent)
		b.WriteString(renderColumn(col))
		if i < len(columns)-1 || hasPeriod {
			b.WriteString(",")
		}
	}

	if hasPeriod {
		fmt.Fprintf(&b, "\n%sPERIOD FOR SYSTEM_TIME ([%s], [%s])", indent, columnName(columns, *rowStartID), columnName(columns, *rowEndID))
	}

	b.WriteString("\n)")

	if options := tableOptions(temporal, memOpt); len(options) > 0 {
		b.WriteString(" WITH (")
		b.WriteString(strings.Join(options, ", "))
		b.WriteString(")")
	}

	return b.String()
}

// CanonicalTable is the hash-ready form of a reconstructed table script.
func CanonicalTable(schema, table string, columns []Column, temporal *TemporalInfo, memOpt *MemoryOptimizedInfo) string {
	return normalize.NormalizeForComparison(Table(schema, table, columns, temporal, memOpt))
}

func renderColumn(col Column) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] ", col.Name)

	if col.ComputedExpression != "" {
		fmt.Fprintf(&b, "AS %s", col.ComputedExpression)
		return b.String()
	}

	b.WriteString(renderType(col))

	if col.IdentitySeed != "" {
		fmt.Fprintf(&b, " IDENTITY(%s,%s)", col.IdentitySeed, col.IdentityIncrement)
		if col.IdentityNotForReplication {
			b.WriteString(" NOT FOR REPLICATION")
		}
	}

	switch col.GeneratedAlways {
	case GeneratedRowStart:
		b.WriteString(" GENERATED ALWAYS AS ROW START")
	case GeneratedRowEnd:
		b.WriteString(" GENERATED ALWAYS AS ROW END")
	}

	if col.Nullable {
		b.WriteString(" NULL")
	} else {
		b.WriteString(" NOT NULL")
	}
	return b.String()
}

var lengthTypes = map[string]bool{"varchar": true, "nvarchar": true, "char": true, "nchar": true, "binary": true, "varbinary": true}
var nPrefixedTypes = map[string]bool{"nvarchar": true, "nchar": true}
var scaleTypesDefault7 = map[string]bool{"datetime2": true, "datetimeoffset": true, "time": true}

func renderType(col Column) string {
	t := strings.ToLower(col.Type)
	switch {
	case lengthTypes[t]:
		if col.MaxLength == -1 {
			return strings.ToUpper(t) + "(MAX)"
		}
		length := col.MaxLength
		if nPrefixedTypes[t] {
			length = length / 2
		}
		return strings.ToUpper(t) + "(" + strconv.Itoa(length) + ")"
	case t == "decimal" || t == "numeric":
		return fmt.Sprintf("%s(%d, %d)", strings.ToUpper(t), col.Precision, col.Scale)
	case scaleTypesDefault7[t]:
		if col.Scale == 7 {
			return strings.ToUpper(t)
		}
		return fmt.Sprintf("%s(%d)", strings.ToUpper(t), col.Scale)
	case t == "float":
		if col.Precision == 53 {
			return "FLOAT"
		}
		return fmt.Sprintf("FLOAT(%d)", col.Precision)
	default:
		return strings.ToUpper(t)
	}
}

// periodColumnIDs resolves the PERIOD FOR SYSTEM_TIME column pair from
// explicit temporal metadata, falling back to the generated-always codes on
// the columns themselves.
func periodColumnIDs(columns []Column, temporal *TemporalInfo) (*int, *int) {
	if temporal != nil && temporal.RowStartColumnID != nil && temporal.RowEndColumnID != nil {
		return temporal.RowStartColumnID, temporal.RowEndColumnID
	}
	var start, end *int
	for _, c := range columns {
		switch c.GeneratedAlways {
		case GeneratedRowStart:
			id := c.ID
			start = &id
		case GeneratedRowEnd:
			id := c.ID
			end = &id
		}
	}
	return start, end
}

func columnName(columns []Column, id int) string {
	for _, c := range columns {
		if c.ID == id {
			return c.Name
		}
	}
	return ""
}

func tableOptions(temporal *TemporalInfo, memOpt *MemoryOptimizedInfo) []string {
	var opts []string
	if memOpt != nil {
		opts = append(opts, "MEMORY_OPTIMIZED = ON")
		if memOpt.SchemaOnly {
			opts = append(opts, "DURABILITY = SCHEMA_ONLY")
		} else {
			opts = append(opts, "DURABILITY = SCHEMA_AND_DATA")
		}
	}
	if temporal != nil && temporal.HistoryTable != "" {
		opts = append(opts, fmt.Sprintf("SYSTEM_VERSIONING = ON (HISTORY_TABLE = [%s].[%s], DATA_CONSISTENCY_CHECK = ON)", temporal.HistorySchema, temporal.HistoryTable))
	}
	return opts
}
