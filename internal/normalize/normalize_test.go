package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDropsTrailingGoBatch(t *testing.T) {
	in := "CREATE TABLE [dbo].[T] (\n\t[Id] INT NOT NULL\n)\nGO\n\n"
	got := Normalize(in)
	assert.Equal(t, "CREATE TABLE [dbo].[T] (\n\t[Id] INT NOT NULL\n)", got)
}

func TestNormalizeFoldsCRLF(t *testing.T) {
	in := "CREATE TABLE [dbo].[T] (\r\n\t[Id] INT NOT NULL\r\n)\r\n"
	got := Normalize(in)
	assert.NotContains(t, got, "\r")
}

func TestNormalizeForComparisonCollapsesWhitespace(t *testing.T) {
	in := "CREATE   TABLE  [dbo].[T]  (\n    [Id]    INT   NOT NULL\n)"
	got := NormalizeForComparison(in)
	assert.Equal(t, "CREATE TABLE [dbo].[T](\n    [Id] INT NOT NULL)", got)
}

func TestNormalizeForComparisonDatetime2DefaultPrecision(t *testing.T) {
	assert.Equal(t, "DATETIME2(7)", NormalizeForComparison("DATETIME2"))
	assert.Equal(t, "DATETIME2(7)", NormalizeForComparison("DATETIME2(7)"))
	assert.Equal(t, "DATETIME2(3)", NormalizeForComparison("DATETIME2(3)"))
}

func TestNormalizeForComparisonFloatDefaultPrecision(t *testing.T) {
	assert.Equal(t, "FLOAT(53)", NormalizeForComparison("FLOAT"))
	assert.Equal(t, "FLOAT(24)", NormalizeForComparison("FLOAT(24)"))
}

func TestNormalizeForComparisonTimeDefaultPrecision(t *testing.T) {
	assert.Equal(t, "TIME(7)", NormalizeForComparison("TIME"))
	assert.Equal(t, "TIME(0)", NormalizeForComparison("TIME(0)"))
}

func TestNormalizeForComparisonDecimalScaleDefaultsToZero(t *testing.T) {
	assert.Equal(t, "DECIMAL(18, 0)", NormalizeForComparison("DECIMAL(18)"))
	assert.Equal(t, "NUMERIC(10, 2)", NormalizeForComparison("NUMERIC(10,2)"))
}

func TestNormalizeForComparisonStripsCommaBeforePeriod(t *testing.T) {
	in := "CREATE TABLE [dbo].[T] (\n\t[ValidFrom] DATETIME2 NOT NULL,\n\t[ValidTo] DATETIME2 NOT NULL,\n\tPERIOD FOR SYSTEM_TIME ([ValidFrom], [ValidTo])\n)"
	got := NormalizeForComparison(in)
	assert.Contains(t, got, "[ValidTo] DATETIME2(7) NOT NULL\n\tPERIOD FOR SYSTEM_TIME")
	assert.NotContains(t, got, "NOT NULL,\n\tPERIOD")
}

func TestNormalizeForComparisonStripsTrailingCommaBeforeClose(t *testing.T) {
	in := "CREATE TABLE [dbo].[T] (\n\t[Id] INT NOT NULL,\n)"
	got := NormalizeForComparison(in)
	assert.Equal(t, "CREATE TABLE [dbo].[T](\n\t[Id] INT NOT NULL)", got)
}

func TestNormalizeForComparisonSpaceAfterCommaRespectsStringsAndBrackets(t *testing.T) {
	in := "SELECT [a],[b] FROM [dbo].[T] WHERE [c] = 'x,y' AND [d,e] = 1"
	got := NormalizeForComparison(in)
	assert.Equal(t, "SELECT [a], [b] FROM [dbo].[T] WHERE [c] = 'x,y' AND [d,e] = 1", got)
}

func TestNormalizeForComparisonSpaceAfterCommaSkipsBeforeNewlineAndParen(t *testing.T) {
	in := "CREATE TABLE [dbo].[T] (\n\t[Id] INT,\n\t[Name] NVARCHAR(50)\n)"
	got := NormalizeForComparison(in)
	assert.Equal(t, "CREATE TABLE [dbo].[T](\n\t[Id] INT,\n\t[Name] NVARCHAR(50))", got)
}

func TestNormalizeForComparisonStripsTrailingSemicolon(t *testing.T) {
	assert.Equal(t, "SELECT 1", NormalizeForComparison("SELECT 1;"))
}

func TestNormalizeForComparisonSortsTerminalWithOptions(t *testing.T) {
	in := "CREATE TABLE [dbo].[T] ([Id] INT) WITH (DATA_COMPRESSION = ROW, MEMORY_OPTIMIZED=ON)"
	got := NormalizeForComparison(in)
	assert.Equal(t, "CREATE TABLE [dbo].[T]([Id] INT) WITH (DATA_COMPRESSION = ROW, MEMORY_OPTIMIZED = ON)", got)
}

func TestNormalizeForComparisonSortsTerminalWithOptionsCaseInsensitively(t *testing.T) {
	in := "CREATE INDEX [IX_T] ON [dbo].[T] ([Id]) WITH (ONLINE=ON, FILLFACTOR=80)"
	got := NormalizeForComparison(in)
	assert.Equal(t, "CREATE INDEX [IX_T] ON [dbo].[T]([Id]) WITH (FILLFACTOR = 80, ONLINE = ON)", got)
}

func TestNormalizeForComparisonWithOptionOrderInsignificant(t *testing.T) {
	a := "CREATE TABLE [dbo].[T] ([Id] INT) WITH(DURABILITY = SCHEMA_ONLY, MEMORY_OPTIMIZED = ON)"
	b := "CREATE TABLE [dbo].[T] ([Id] INT) WITH (MEMORY_OPTIMIZED = ON, DURABILITY = SCHEMA_ONLY)"
	assert.Equal(t, NormalizeForComparison(a), NormalizeForComparison(b))
}

func TestNormalizeForComparisonStripsRowHidden(t *testing.T) {
	in := "[ValidFrom] DATETIME2 GENERATED ALWAYS AS ROW START HIDDEN NOT NULL"
	got := NormalizeForComparison(in)
	assert.Equal(t, "[ValidFrom] DATETIME2(7) GENERATED ALWAYS AS ROW START NOT NULL", got)
}

func TestNormalizeForComparisonCollapsesExternalName(t *testing.T) {
	in := "CREATE FUNCTION [dbo].[f]()\nRETURNS INT\nAS EXTERNAL NAME [Assembly].[Namespace.Class].[Method]"
	got := NormalizeForComparison(in)
	assert.Equal(t, "EXTERNAL NAME [Assembly].[Namespace.Class].[Method]", got)
}

func TestNormalizeForComparisonStripsUserClauses(t *testing.T) {
	assert.Equal(t, "CREATE USER [app_user]", NormalizeForComparison("CREATE USER [app_user] WITHOUT LOGIN"))
	assert.Equal(t, "CREATE USER [app_user]", NormalizeForComparison("CREATE USER [app_user] FOR LOGIN [app_login] WITH DEFAULT_SCHEMA=[dbo]"))
}

func TestNormalizeForComparisonStripsRoleAuthorization(t *testing.T) {
	assert.Equal(t, "CREATE ROLE [app_role]", NormalizeForComparison("CREATE ROLE [app_role] AUTHORIZATION [dbo]"))
}

func TestTruncateAfterFirstGo(t *testing.T) {
	in := "CREATE TABLE [dbo].[T] ([Id] INT)\nGO\nCREATE INDEX [IX_T] ON [dbo].[T] ([Id])\nGO\n"
	got := TruncateAfterFirstGo(in)
	assert.Equal(t, "CREATE TABLE [dbo].[T] ([Id] INT)", got)
}

func TestTruncateAfterFirstGoNoSeparator(t *testing.T) {
	in := "CREATE TABLE [dbo].[T] ([Id] INT)"
	assert.Equal(t, in, TruncateAfterFirstGo(in))
}

func TestSplitBatches(t *testing.T) {
	in := "CREATE TABLE [dbo].[T] ([Id] INT)\nGO\nCREATE INDEX [IX_T] ON [dbo].[T] ([Id])\nGO\nCREATE TRIGGER [dbo].[TR_T] ON [dbo].[T] AFTER INSERT AS BEGIN SELECT 1 END"

	var batches []string
	for b := range SplitBatches(in) {
		batches = append(batches, b)
	}

	assert.Len(t, batches, 3)
	assert.Contains(t, batches[0], "CREATE TABLE")
	assert.Contains(t, batches[1], "CREATE INDEX")
	assert.Contains(t, batches[2], "CREATE TRIGGER")
}

func TestSplitBatchesStopsEarlyWhenConsumerBreaks(t *testing.T) {
	in := "A\nGO\nB\nGO\nC"
	var seen []string
	for b := range SplitBatches(in) {
		seen = append(seen, b)
		if len(seen) == 1 {
			break
		}
	}
	assert.Equal(t, []string{"A"}, seen)
}

func TestStripInlineConstraintsDropsTableLevelPrimaryKey(t *testing.T) {
	in := "CREATE TABLE [dbo].[T] (\n\t[Id] INT NOT NULL,\n\tCONSTRAINT [PK_T] PRIMARY KEY ([Id])\n)"
	got := StripInlineConstraints(in)
	assert.NotContains(t, got, "CONSTRAINT [PK_T]")
	assert.Contains(t, got, "[Id] INT NOT NULL\n")
}

func TestStripInlineConstraintsRewritesColumnDefault(t *testing.T) {
	in := "CREATE TABLE [dbo].[T] (\n\t[ValidFrom] DATETIME2 CONSTRAINT [DF_ValidFrom] DEFAULT (sysutcdatetime()) NOT NULL,\n\t[ValidTo] DATETIME2 CONSTRAINT [DF_ValidTo] DEFAULT (sysutcdatetime()) NOT NULL,\n\tPERIOD FOR SYSTEM_TIME ([ValidFrom], [ValidTo])\n)"
	got := StripInlineConstraints(in)
	assert.Contains(t, got, "[ValidFrom] DATETIME2 NOT NULL,")
	assert.Contains(t, got, "[ValidTo] DATETIME2 NOT NULL,")
	assert.Contains(t, got, "PERIOD FOR SYSTEM_TIME")
	assert.NotContains(t, got, "CONSTRAINT")
}

func TestStripInlineConstraintsDropsCheckAndForeignKey(t *testing.T) {
	in := "CREATE TABLE [dbo].[T] (\n\t[Id] INT NOT NULL,\n\t[ParentId] INT NULL,\n\tFOREIGN KEY ([ParentId]) REFERENCES [dbo].[P]([Id]),\n\tCHECK ([Id] > 0)\n)"
	got := StripInlineConstraints(in)
	assert.NotContains(t, got, "FOREIGN KEY")
	assert.NotContains(t, got, "CHECK")
	assert.Contains(t, got, "[ParentId] INT NULL\n")
}

func TestNormalizationPassesAreIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"   \n\t\n",
		"CREATE TABLE [dbo].[T]\n(\n\t[Id] INT NOT NULL,\n\t[When] DATETIME2 CONSTRAINT [DF_When] DEFAULT (sysutcdatetime()) NOT NULL,\n\tCONSTRAINT [PK_T] PRIMARY KEY ([Id])\n)\nGO\n",
		"CREATE PROCEDURE [dbo].[p] AS EXTERNAL NAME [asm].[cls].[m]",
		"CREATE TABLE [dbo].[T] ([Id] INT) WITH (DURABILITY = SCHEMA_ONLY, MEMORY_OPTIMIZED = ON)",
		"CREATE INDEX [IX_T] ON [dbo].[T]\n(\n\t[Id] ASC\n)\nINCLUDE ([Name]);\nGO",
		"not DDL at all, just text with 'a,b' and [c,d]",
	}
	for _, in := range inputs {
		assert.Equal(t, Normalize(in), Normalize(Normalize(in)), "Normalize not idempotent on %q", in)

		once := NormalizeForComparison(in)
		assert.Equal(t, once, NormalizeForComparison(once), "NormalizeForComparison not idempotent on %q", in)

		idx := NormalizeIndexForComparison(in)
		assert.Equal(t, idx, NormalizeIndexForComparison(idx), "NormalizeIndexForComparison not idempotent on %q", in)

		stripped := StripInlineConstraints(in)
		assert.Equal(t, stripped, StripInlineConstraints(stripped), "StripInlineConstraints not idempotent on %q", in)
	}
}

func TestNormalizeIndexForComparisonFoldsNewlines(t *testing.T) {
	in := "CREATE INDEX [IX_T] ON [dbo].[T]\n(\n\t[Id] ASC\n)\nINCLUDE ([Name])"
	got := NormalizeIndexForComparison(in)
	assert.Equal(t, "CREATE INDEX [IX_T] ON [dbo].[T]([Id] ASC) INCLUDE([Name])", got)
}
