package accounts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStudentCSV(t *testing.T) {
	input := "child_name,parent_email,parent_first_name,parent_last_name,variable_symbol\n" +
		"Alice Novak,jana.novak@example.com,Jana,Novak,101\n" +
		"Bob Svoboda,,,,102\n"

	rows, problems, err := ParseStudentCSV(strings.NewReader(input))
	require.NoError(t, err)
	assert.Empty(t, problems)
	require.Len(t, rows, 2)

	assert.Equal(t, "Alice Novak", rows[0].ChildName)
	assert.Equal(t, "jana.novak@example.com", rows[0].ParentEmail)
	assert.Equal(t, "Jana", rows[0].ParentFirstName)
	assert.Equal(t, "101", rows[0].VariableSymbol)
	assert.Equal(t, 2, rows[0].Line)

	// Parent columns are optional per row.
	assert.Equal(t, "Bob Svoboda", rows[1].ChildName)
	assert.Empty(t, rows[1].ParentEmail)
	assert.Equal(t, "102", rows[1].VariableSymbol)
}

func TestParseStudentCSVAcceptsUsernameHeader(t *testing.T) {
	input := "username,first_name,last_name,variable_symbol\n" +
		"alice,Jana,Novak,123\n"

	rows, problems, err := ParseStudentCSV(strings.NewReader(input))
	require.NoError(t, err)
	assert.Empty(t, problems)
	require.Len(t, rows, 1)
	assert.Equal(t, "alice", rows[0].ChildName)
	assert.Equal(t, "123", rows[0].VariableSymbol)
	assert.Empty(t, rows[0].ParentEmail)
}

func TestParseStudentCSVToleratesBOM(t *testing.T) {
	input := "\ufeffchild_name,variable_symbol\nAlice,101\n"

	rows, _, err := ParseStudentCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Alice", rows[0].ChildName)
}

func TestParseStudentCSVHeaderCaseInsensitive(t *testing.T) {
	input := "Child_Name, Variable_Symbol\nAlice,101\n"

	rows, _, err := ParseStudentCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "101", rows[0].VariableSymbol)
}

func TestParseStudentCSVMissingColumns(t *testing.T) {
	_, _, err := ParseStudentCSV(strings.NewReader("parent_email,variable_symbol\na@b.cz,101\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "child_name")

	_, _, err = ParseStudentCSV(strings.NewReader("child_name,parent_email\nAlice,a@b.cz\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "variable_symbol")

	_, _, err = ParseStudentCSV(strings.NewReader(""))
	require.Error(t, err)
}

func TestParseStudentCSVSkipsBadRows(t *testing.T) {
	input := "child_name,parent_email,variable_symbol\n" +
		",orphan@example.com,101\n" + // no child name
		"Bob,,\n" + // no variable symbol
		"Cyril,,12ab\n" + // non-numeric symbol
		"Dana,not-an-email,104\n" + // bad email
		"Emil,,105\n" // good

	rows, problems, err := ParseStudentCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Emil", rows[0].ChildName)
	assert.Len(t, problems, 4)
	assert.Contains(t, problems[0], "line 2")
}

func TestParseStudentCSVSkipsBlankLines(t *testing.T) {
	input := "child_name,variable_symbol\nAlice,101\n\nBob,102\n"

	rows, problems, err := ParseStudentCSV(strings.NewReader(input))
	require.NoError(t, err)
	assert.Empty(t, problems)
	assert.Len(t, rows, 2)
}

func TestParseStudentCSVLowercasesEmail(t *testing.T) {
	input := "child_name,parent_email,variable_symbol\nAlice,Jana.Novak@Example.COM,101\n"

	rows, _, err := ParseStudentCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "jana.novak@example.com", rows[0].ParentEmail)
}
