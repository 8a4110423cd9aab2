package accounts

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// ImportRow is one parsed line of a student import file.
type ImportRow struct {
	Line            int
	ChildName       string
	ParentEmail     string
	ParentFirstName string
	ParentLastName  string
	VariableSymbol  string
}

// header aliases accepted for each logical column, all matched
// case-insensitively after trimming.
var columnAliases = map[string][]string{
	"child_name":        {"child_name", "username", "student", "student_name"},
	"parent_email":      {"parent_email", "email"},
	"parent_first_name": {"parent_first_name", "first_name"},
	"parent_last_name":  {"parent_last_name", "last_name"},
	"variable_symbol":   {"variable_symbol", "vs"},
}

func normalizeHeader(cell string) string {
	return strings.ToLower(strings.TrimSpace(cell))
}

// ParseStudentCSV reads a student import file. The first row must be a
// header naming at least the child name and variable symbol columns; a
// UTF-8 BOM before the header is tolerated. Rows with missing required
// fields are skipped and reported, not fatal. Only a missing or
// unusable header fails the whole import.
func ParseStudentCSV(r io.Reader) ([]ImportRow, []string, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, fmt.Errorf("file is empty")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("could not read header row: %w", err)
	}
	header[0] = strings.TrimPrefix(header[0], "\ufeff")

	cols := map[string]int{}
	for i, cell := range header {
		name := normalizeHeader(cell)
		for logical, aliases := range columnAliases {
			for _, alias := range aliases {
				if name == alias {
					if _, taken := cols[logical]; !taken {
						cols[logical] = i
					}
				}
			}
		}
	}
	if _, ok := cols["child_name"]; !ok {
		return nil, nil, fmt.Errorf("missing required column: child_name (or username)")
	}
	if _, ok := cols["variable_symbol"]; !ok {
		return nil, nil, fmt.Errorf("missing required column: variable_symbol")
	}

	field := func(record []string, logical string) string {
		i, ok := cols[logical]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var (
		rows     []ImportRow
		problems []string
	)
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			problems = append(problems, fmt.Sprintf("line %d: %v", line, err))
			continue
		}
		if len(record) == 1 && strings.TrimSpace(record[0]) == "" {
			continue
		}
		row := ImportRow{
			Line:            line,
			ChildName:       field(record, "child_name"),
			ParentEmail:     strings.ToLower(field(record, "parent_email")),
			ParentFirstName: field(record, "parent_first_name"),
			ParentLastName:  field(record, "parent_last_name"),
			VariableSymbol:  field(record, "variable_symbol"),
		}
		if row.ChildName == "" {
			problems = append(problems, fmt.Sprintf("line %d: missing child name", line))
			continue
		}
		if row.VariableSymbol == "" {
			problems = append(problems, fmt.Sprintf("line %d: missing variable symbol", line))
			continue
		}
		if !isNumeric(row.VariableSymbol) || len(row.VariableSymbol) > 10 {
			problems = append(problems, fmt.Sprintf("line %d: variable symbol %q must be 1-10 digits", line, row.VariableSymbol))
			continue
		}
		if row.ParentEmail != "" && !strings.Contains(row.ParentEmail, "@") {
			problems = append(problems, fmt.Sprintf("line %d: invalid parent email %q", line, row.ParentEmail))
			continue
		}
		rows = append(rows, row)
	}
	return rows, problems, nil
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
