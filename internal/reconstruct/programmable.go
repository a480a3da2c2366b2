package reconstruct

import (
	"fmt"

	"github.com/tsqldiff/tsqldiff/internal/normalize"
)

// CLRReference identifies the CLR assembly/class/method triple backing a
// module, in place of SQL text.
type CLRReference struct {
	Assembly string
	Class    string
	Method   string // may be empty
}

// Module is a view/procedure/function/trigger's catalog-supplied
// definition, optionally CLR-backed.
type Module struct {
	Definition string
	CLR        *CLRReference
}

func moduleScript(m Module) string {
	if m.CLR != nil {
		return fmt.Sprintf("EXTERNAL NAME [%s].[%s].[%s]", m.CLR.Assembly, m.CLR.Class, m.CLR.Method)
	}
	return m.Definition
}

// CanonicalView, CanonicalProcedure and CanonicalFunction pass the module's
// definition straight through normalize_for_comparison.
func CanonicalView(m Module) string {
	return normalize.NormalizeForComparison(moduleScript(m))
}

func CanonicalProcedure(m Module) string {
	return normalize.NormalizeForComparison(moduleScript(m))
}

func CanonicalFunction(m Module) string {
	return normalize.NormalizeForComparison(moduleScript(m))
}

// CanonicalTrigger additionally truncates to the first GO batch before the
// final normalization pass.
func CanonicalTrigger(m Module) string {
	script := normalize.Normalize(moduleScript(m))
	script = normalize.TruncateAfterFirstGo(script)
	return normalize.NormalizeForComparison(script)
}

// User composes a CREATE USER script; defaultSchema may be empty.
func User(name, defaultSchema string) string {
	script := fmt.Sprintf("CREATE USER [%s]", name)
	if defaultSchema != "" {
		script += fmt.Sprintf(" WITH DEFAULT_SCHEMA = [%s]", defaultSchema)
	}
	return script
}

// CanonicalUser runs User through normalize_for_comparison, which (via Pass
// C.14) strips the DEFAULT_SCHEMA clause back off again.
func CanonicalUser(name, defaultSchema string) string {
	return normalize.NormalizeForComparison(User(name, defaultSchema))
}

// Role composes a CREATE ROLE script.
func Role(name string) string {
	return fmt.Sprintf("CREATE ROLE [%s]", name)
}

// CanonicalRole runs Role through normalize_for_comparison.
func CanonicalRole(name string) string {
	return normalize.NormalizeForComparison(Role(name))
}
