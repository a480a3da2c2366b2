package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsqldiff/tsqldiff/internal/model"
)

func TestClassifyTable(t *testing.T) {
	kind, pos := Classify("CREATE TABLE [dbo].[Widget] ([Id] INT NOT NULL)")
	assert.Equal(t, model.Table, kind)
	assert.True(t, pos > 0)
}

func TestClassifyProcedureAllForms(t *testing.T) {
	for _, s := range []string{
		"CREATE PROCEDURE [dbo].[p] AS BEGIN SELECT 1 END",
		"CREATE PROC [dbo].[p] AS BEGIN SELECT 1 END",
		"CREATE OR ALTER PROCEDURE [dbo].[p] AS BEGIN SELECT 1 END",
		"ALTER PROCEDURE [dbo].[p] AS BEGIN SELECT 1 END",
	} {
		kind, _ := Classify(s)
		assert.Equal(t, model.StoredProcedure, kind, s)
	}
}

func TestClassifyScalarFunctionDefault(t *testing.T) {
	kind, _ := Classify("CREATE FUNCTION [dbo].[f](@x INT) RETURNS INT AS BEGIN RETURN @x END")
	assert.Equal(t, model.ScalarFunction, kind)
}

func TestClassifyTableValuedFunctionReturnsTable(t *testing.T) {
	kind, _ := Classify("CREATE FUNCTION [dbo].[f]() RETURNS TABLE AS RETURN SELECT 1 AS x")
	assert.Equal(t, model.TableValuedFunction, kind)
}

func TestClassifyTableValuedFunctionReturnsVarTable(t *testing.T) {
	kind, _ := Classify("CREATE FUNCTION [dbo].[f]() RETURNS @t TABLE (x INT) AS BEGIN INSERT INTO @t VALUES (1) RETURN END")
	assert.Equal(t, model.TableValuedFunction, kind)
}

func TestClassifyEarlierFunctionOutranksLaterTable(t *testing.T) {
	// The function pattern starts earlier in the text than the table
	// pattern, so it wins on position alone; patterns of different kinds
	// never start at the same offset.
	kind, _ := Classify("CREATE FUNCTION [dbo].[f]() RETURNS INT AS BEGIN RETURN 1 END\nGO\nCREATE TABLE [dbo].[T] ([Id] INT)")
	assert.Equal(t, model.ScalarFunction, kind)
}

func TestClassifyUnknownOnEmpty(t *testing.T) {
	kind, pos := Classify("   \n\t  ")
	assert.Equal(t, model.Unknown, kind)
	assert.Equal(t, -1, pos)
}

func TestClassifyUnknownOnNoMatch(t *testing.T) {
	kind, _ := Classify("SELECT 1")
	assert.Equal(t, model.Unknown, kind)
}

func TestStripCommentsBlockAndLine(t *testing.T) {
	in := "CREATE TABLE [dbo].[T] /* comment */ (\n\t[Id] INT -- trailing\n)"
	got := StripComments(in)
	assert.NotContains(t, got, "comment")
	assert.NotContains(t, got, "trailing")
	assert.Contains(t, got, "CREATE TABLE")
}

func TestFileClassifiesSimpleTable(t *testing.T) {
	raw := "CREATE TABLE [dbo].[Widget]\n(\n\t[Id] INT NOT NULL\n)\nGO\n"
	objs := File("widget.sql", raw)
	if assert.Len(t, objs, 1) {
		assert.Equal(t, model.Table, objs[0].Kind)
		assert.Equal(t, "Widget", objs[0].Name)
		assert.Equal(t, "CREATE TABLE [dbo].[Widget]\n(\n\t[Id] INT NOT NULL)", objs[0].Canonical)
	}
}

func TestFileClassifiesDottedTableName(t *testing.T) {
	// A bracketed identifier element may itself contain dots.
	raw := "CREATE TABLE [SampleSchema].[Audit.DataConversions] (\n\t[Id] INT NOT NULL\n)"
	objs := File("audit.sql", raw)
	if assert.Len(t, objs, 1) {
		assert.Equal(t, "Audit.DataConversions", objs[0].Name)
	}
}

func TestFileExtractsSecondaryIndex(t *testing.T) {
	raw := "CREATE TABLE [dbo].[Customer]\n(\n\t[Id] INT NOT NULL,\n\t[Name] NVARCHAR(50) NOT NULL\n)\nGO\nCREATE INDEX [IX_Customer_Name] ON [dbo].[Customer] ([Name])\nGO\n"
	objs := File("customer.sql", raw)
	if assert.Len(t, objs, 2) {
		assert.Equal(t, model.Table, objs[0].Kind)
		assert.Equal(t, model.Index, objs[1].Kind)
		assert.Equal(t, "Customer.IX_Customer_Name", objs[1].Name)
	}
}

func TestFileExtractsSecondaryTrigger(t *testing.T) {
	raw := "CREATE TABLE [dbo].[T]\n(\n\t[Id] INT NOT NULL\n)\nGO\nCREATE TRIGGER [dbo].[TR_T] ON [dbo].[T] AFTER INSERT AS\nBEGIN\n\tSELECT 1\nEND\nGO\n"
	objs := File("t.sql", raw)
	if assert.Len(t, objs, 2) {
		assert.Equal(t, model.Trigger, objs[1].Kind)
		assert.Equal(t, "TR_T", objs[1].Name)
	}
}

func TestFileIgnoresIndexWithoutPrecedingGo(t *testing.T) {
	// An index embedded in the first batch of a table file is never
	// scanned as a secondary object.
	raw := "CREATE TABLE [dbo].[T]\n(\n\t[Id] INT NOT NULL\n)\nCREATE INDEX [IX_T] ON [dbo].[T] ([Id])\n"
	objs := File("t.sql", raw)
	assert.Len(t, objs, 1)
}

func TestFileYieldsUnknownRecordForEmptyContent(t *testing.T) {
	objs := File("empty.sql", "\n\n")
	if assert.Len(t, objs, 1) {
		assert.Equal(t, model.Unknown, objs[0].Kind)
		assert.Equal(t, "empty", objs[0].Name)
	}
}

func TestFileYieldsUnknownRecordForUnclassifiableContent(t *testing.T) {
	objs := File("data.sql", "INSERT INTO [dbo].[T] VALUES (1)")
	if assert.Len(t, objs, 1) {
		assert.Equal(t, model.Unknown, objs[0].Kind)
	}
}

func TestIsSQLFile(t *testing.T) {
	assert.True(t, IsSQLFile("schema/dbo/Tables/Widget.sql"))
	assert.True(t, IsSQLFile("schema/dbo/Tables/Widget.SQL"))
	assert.False(t, IsSQLFile("schema/dbo/Tables/Widget.txt"))
	assert.False(t, IsSQLFile("bin/Debug/Widget.sql"))
	assert.False(t, IsSQLFile("obj/Release/Widget.sql"))
}
