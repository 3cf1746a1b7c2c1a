package parser

import (
	"strings"

	"github.com/transfer-studio/backend/internal/models"
)

// ParseCSV splits raw text into non-blank lines, takes the first as the
// header row and maps every following line onto the headers by position.
//
// Splitting is a plain strings.Split on ','; quoted fields are not
// recognised, so a comma inside quotes still separates values. Short lines
// leave their trailing headers absent; surplus values are dropped.
func ParseCSV(raw string) *models.CSVTable {
	lines := make([]string, 0)
	for _, line := range strings.Split(raw, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}

	table := &models.CSVTable{
		Headers:       []string{},
		Rows:          []models.CSVRow{},
		FlattenedText: strings.Join(lines, " "),
	}
	if len(lines) == 0 {
		return table
	}

	table.Headers = splitTrimmed(lines[0])
	for _, line := range lines[1:] {
		values := splitTrimmed(line)
		row := make(models.CSVRow, len(table.Headers))
		for i, header := range table.Headers {
			if i >= len(values) {
				break
			}
			row[header] = values[i]
		}
		table.Rows = append(table.Rows, row)
	}

	return table
}

func splitTrimmed(line string) []string {
	parts := strings.Split(line, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
