package reconstruct

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsqldiff/tsqldiff/internal/normalize"
)

func intPtr(i int) *int { return &i }

func TestTableRendersColumnsInOrder(t *testing.T) {
	cols := []Column{
		{ID: 1, Name: "Id", Type: "int", Nullable: false},
		{ID: 2, Name: "Name", Type: "nvarchar", MaxLength: 100, Nullable: true},
	}
	got := Table("dbo", "Widget", cols, nil, nil)
	assert.Equal(t, "CREATE TABLE [dbo].[Widget]\n(\n\t[Id] INT NOT NULL,\n\t[Name] NVARCHAR(50) NULL\n)", got)
}

func TestTableNoColumns(t *testing.T) {
	got := Table("dbo", "Empty", nil, nil, nil)
	assert.Equal(t, "CREATE TABLE [dbo].[Empty]\n(\n)", got)
}

func TestTableMaxLengthColumn(t *testing.T) {
	cols := []Column{{ID: 1, Name: "Blob", Type: "varbinary", MaxLength: -1, Nullable: true}}
	got := Table("dbo", "T", cols, nil, nil)
	assert.Contains(t, got, "[Blob] VARBINARY(MAX) NULL")
}

func TestTableIdentityColumn(t *testing.T) {
	cols := []Column{{ID: 1, Name: "Id", Type: "int", IdentitySeed: "1", IdentityIncrement: "1", Nullable: false}}
	got := Table("dbo", "T", cols, nil, nil)
	assert.Contains(t, got, "[Id] INT IDENTITY(1,1) NOT NULL")
}

func TestTableComputedColumnHasNoNullabilityToken(t *testing.T) {
	cols := []Column{
		{ID: 1, Name: "Id", Type: "int", Nullable: false},
		{ID: 2, Name: "Total", ComputedExpression: "([Qty]*[Price])"},
	}
	got := Table("dbo", "T", cols, nil, nil)
	assert.Contains(t, got, "[Total] AS ([Qty]*[Price])")
	assert.NotContains(t, got, "[Total] AS ([Qty]*[Price]) NULL")
	assert.NotContains(t, got, "[Total] AS ([Qty]*[Price]) NOT NULL")
}

func TestTableTemporalRoundTripMatchesFileSide(t *testing.T) {
	cols := []Column{
		{ID: 1, Name: "Id", Type: "int", Nullable: false},
		{ID: 2, Name: "ValidFrom", Type: "datetime2", Scale: 7, GeneratedAlways: GeneratedRowStart, Nullable: false},
		{ID: 3, Name: "ValidTo", Type: "datetime2", Scale: 7, GeneratedAlways: GeneratedRowEnd, Nullable: false},
	}
	temporal := &TemporalInfo{HistorySchema: "dbo", HistoryTable: "T_History"}
	dbSide := CanonicalTable("dbo", "T", cols, temporal, nil)

	assert.Contains(t, dbSide, "GENERATED ALWAYS AS ROW START")
	assert.Contains(t, dbSide, "GENERATED ALWAYS AS ROW END")
	assert.Contains(t, dbSide, "PERIOD FOR SYSTEM_TIME([ValidFrom], [ValidTo])")
	assert.Contains(t, dbSide, "SYSTEM_VERSIONING = ON(HISTORY_TABLE = [dbo].[T_History], DATA_CONSISTENCY_CHECK = ON)")

	fileScript := "CREATE TABLE [dbo].[T]\n(\n\t[Id] INT NOT NULL,\n\t[ValidFrom] DATETIME2 GENERATED ALWAYS AS ROW START CONSTRAINT [DF_ValidFrom] DEFAULT (sysutcdatetime()) NOT NULL,\n\t[ValidTo] DATETIME2 GENERATED ALWAYS AS ROW END CONSTRAINT [DF_ValidTo] DEFAULT (sysutcdatetime()) NOT NULL,\n\tPERIOD FOR SYSTEM_TIME ([ValidFrom], [ValidTo])\n) WITH (SYSTEM_VERSIONING = ON (HISTORY_TABLE = [dbo].[T_History], DATA_CONSISTENCY_CHECK = ON))"
	fileSide := normalize.NormalizeForComparison(normalize.StripInlineConstraints(fileScript))

	assert.Equal(t, dbSide, fileSide)
}

func TestTableMemoryOptimizedOptions(t *testing.T) {
	cols := []Column{{ID: 1, Name: "Id", Type: "int", Nullable: false}}
	got := CanonicalTable("dbo", "T", cols, nil, &MemoryOptimizedInfo{SchemaOnly: true})
	assert.Contains(t, got, "DURABILITY = SCHEMA_ONLY")
	assert.Contains(t, got, "MEMORY_OPTIMIZED = ON")
}

func TestIndexRendersKeyAndIncludedColumns(t *testing.T) {
	cols := []IndexColumn{
		{Name: "LastName", Descending: false},
		{Name: "FirstName", Descending: true},
		{Name: "Email", Included: true},
	}
	got := Index("dbo", "Customer", "IX_Customer_Name", "NONCLUSTERED", false, "", "", false, cols)
	assert.Equal(t, "CREATE NONCLUSTERED INDEX [IX_Customer_Name] ON [dbo].[Customer] ([LastName] ASC, [FirstName] DESC) INCLUDE ([Email])", got)
}

func TestIndexOmitsDataCompressionWhenNone(t *testing.T) {
	got := Index("dbo", "T", "IX_T", "NONCLUSTERED", false, "NONE", "", false, []IndexColumn{{Name: "Id"}})
	assert.NotContains(t, got, "DATA_COMPRESSION")
}

func TestIndexIncludesDataCompressionWhenSet(t *testing.T) {
	got := Index("dbo", "T", "IX_T", "NONCLUSTERED", false, "row", "", false, []IndexColumn{{Name: "Id"}})
	assert.Contains(t, got, "WITH (DATA_COMPRESSION = ROW)")
}

func TestIndexClusteredBucketDetection(t *testing.T) {
	assert.Equal(t, "CLUSTERED", indexTypeBucket("CLUSTERED"))
	assert.Equal(t, "NONCLUSTERED", indexTypeBucket("NONCLUSTERED"))
	assert.Equal(t, "NONCLUSTERED", indexTypeBucket("NONCLUSTERED COLUMNSTORE"))
}

func TestCanonicalIndexIsSingleLine(t *testing.T) {
	cols := []IndexColumn{{Name: "Id"}}
	got := CanonicalIndex("dbo", "T", "IX_T", "CLUSTERED", true, "", "", false, cols)
	assert.NotContains(t, got, "\n")
	assert.Equal(t, "CREATE UNIQUE CLUSTERED INDEX [IX_T] ON [dbo].[T]([Id] ASC)", got)
}

func TestIndexObjectName(t *testing.T) {
	assert.Equal(t, "Customer.IX_Customer_Name", IndexObjectName("Customer", "IX_Customer_Name"))
}

func TestCanonicalTriggerTruncatesAfterFirstGo(t *testing.T) {
	m := Module{Definition: "CREATE TRIGGER [dbo].[TR_T] ON [dbo].[T] AFTER INSERT AS\nBEGIN\n\tSELECT 1\nEND\nGO\nPRINT 'ignored'"}
	got := CanonicalTrigger(m)
	assert.NotContains(t, got, "ignored")
	assert.Contains(t, got, "CREATE TRIGGER")
}

func TestCanonicalProcedureClrExtraction(t *testing.T) {
	m := Module{CLR: &CLRReference{Assembly: "asm", Class: "cls", Method: "m"}}
	got := CanonicalProcedure(m)
	assert.Equal(t, "EXTERNAL NAME [asm].[cls].[m]", got)
}

func TestCanonicalUserStripsDefaultSchemaBackOff(t *testing.T) {
	withSchema := CanonicalUser("app_user", "dbo")
	withoutSchema := CanonicalUser("app_user", "")
	assert.Equal(t, withoutSchema, withSchema)
	assert.Equal(t, "CREATE USER [app_user]", withSchema)
}

func TestCanonicalRole(t *testing.T) {
	assert.Equal(t, "CREATE ROLE [app_role]", CanonicalRole("app_role"))
}
