package tabular

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_SimpleTable(t *testing.T) {
	table := Parse("a,b,c\n1,2,3\n4,5,6")

	assert.Equal(t, []string{"a", "b", "c"}, table.Headers)
	assert.Equal(t, []Row{{"1", "2", "3"}, {"4", "5", "6"}}, table.Rows)
}

func TestParse_QuotedCommaIsNotASeparator(t *testing.T) {
	table := Parse("h1,h2\n\"x,y\",z")

	assert.Equal(t, []Row{{"x,y", "z"}}, table.Rows)
}

func TestParse_DropsBlankLines(t *testing.T) {
	table := Parse("a,b\n\n1,2\n")

	require.Len(t, table.Rows, 1)
	assert.Equal(t, Row{"1", "2"}, table.Rows[0])
}

func TestParse_WhitespaceOnlyLinesAreBlank(t *testing.T) {
	table := Parse("   \n\t\na,b\n  \n1,2")

	assert.Equal(t, []string{"a", "b"}, table.Headers)
	assert.Equal(t, []Row{{"1", "2"}}, table.Rows)
}

func TestParse_EmptyInput(t *testing.T) {
	for _, in := range []string{"", "\n\n", "  \n "} {
		table := Parse(in)
		assert.Empty(t, table.Headers, "input %q", in)
		assert.NotNil(t, table.Headers, "input %q", in)
		assert.Empty(t, table.Rows, "input %q", in)
		assert.NotNil(t, table.Rows, "input %q", in)
	}
}

func TestParse_HeaderOnly(t *testing.T) {
	table := Parse("name,age")

	assert.Equal(t, []string{"name", "age"}, table.Headers)
	assert.Empty(t, table.Rows)
}

func TestParse_TrimsFields(t *testing.T) {
	table := Parse(" a , b \n  1 ,\"  2  \"  ")

	assert.Equal(t, []string{"a", "b"}, table.Headers)
	assert.Equal(t, Row{"1", "2"}, table.Rows[0])
}

func TestParse_KeepsTrailingEmptyField(t *testing.T) {
	table := Parse("a,b,c\n1,,")

	assert.Equal(t, Row{"1", "", ""}, table.Rows[0])
}

func TestParse_RowLengthMismatchIsPreserved(t *testing.T) {
	table := Parse("a,b,c\n1\n1,2,3,4")

	assert.Equal(t, Row{"1"}, table.Rows[0])
	assert.Equal(t, Row{"1", "2", "3", "4"}, table.Rows[1])
}

func TestParse_EscapedQuotesAreNotSupported(t *testing.T) {
	// "" closes and reopens the quoted section, so both quotes vanish.
	table := Parse("h\n\"say \"\"hi\"\"\"")

	assert.Equal(t, Row{"say hi"}, table.Rows[0])
}

func TestParse_QuotedNewlineSplitsTheRecord(t *testing.T) {
	table := Parse("a,b\n\"line1\nline2\",x")

	require.Len(t, table.Rows, 2)
	assert.Equal(t, Row{"line1"}, table.Rows[0])
	assert.Equal(t, Row{"line2,x"}, table.Rows[1])
}

func TestParse_CRLFInput(t *testing.T) {
	table := Parse("a,b\r\n1,2\r\n")

	assert.Equal(t, []string{"a", "b"}, table.Headers)
	assert.Equal(t, []Row{{"1", "2"}}, table.Rows)
}

func TestRowCell_OutOfRange(t *testing.T) {
	row := Row{"x"}

	assert.Equal(t, "x", row.Cell(0))
	assert.Equal(t, "", row.Cell(1))
	assert.Equal(t, "", row.Cell(-1))
}
