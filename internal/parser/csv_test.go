package parser

import (
	"reflect"
	"testing"

	"github.com/transfer-studio/backend/internal/models"
)

func TestParseCSV(t *testing.T) {
	t.Run("headers and rows", func(t *testing.T) {
		table := ParseCSV("a,b\n1,2\n3,4")

		if !reflect.DeepEqual(table.Headers, []string{"a", "b"}) {
			t.Errorf("Expected headers [a b], got %v", table.Headers)
		}
		want := []models.CSVRow{
			{"a": "1", "b": "2"},
			{"a": "3", "b": "4"},
		}
		if !reflect.DeepEqual(table.Rows, want) {
			t.Errorf("Expected rows %v, got %v", want, table.Rows)
		}
		if table.FlattenedText != "a,b 1,2 3,4" {
			t.Errorf("Unexpected flattened text %q", table.FlattenedText)
		}
	})

	t.Run("trims values and skips blank lines", func(t *testing.T) {
		table := ParseCSV(" name , age \r\n\n  \nAlice , 30\r\n")

		if !reflect.DeepEqual(table.Headers, []string{"name", "age"}) {
			t.Errorf("Expected trimmed headers, got %v", table.Headers)
		}
		if len(table.Rows) != 1 {
			t.Fatalf("Expected 1 row, got %d", len(table.Rows))
		}
		if table.Rows[0]["name"] != "Alice" || table.Rows[0]["age"] != "30" {
			t.Errorf("Unexpected row %v", table.Rows[0])
		}
	})

	t.Run("ragged lines leave trailing headers absent", func(t *testing.T) {
		table := ParseCSV("a,b,c\n1\n1,2,3,4")

		if _, ok := table.Rows[0]["b"]; ok {
			t.Error("Expected header b to be absent on a short line")
		}
		if table.Rows[0]["a"] != "1" {
			t.Errorf("Expected a=1, got %q", table.Rows[0]["a"])
		}
		if len(table.Rows[1]) != 3 {
			t.Errorf("Expected surplus values to be dropped, got %v", table.Rows[1])
		}
	})

	t.Run("quoted comma is still a delimiter", func(t *testing.T) {
		table := ParseCSV("name,city\n\"Doe, John\",Jakarta")

		row := table.Rows[0]
		if row["name"] != `"Doe` {
			t.Errorf("Expected name to be split at the quoted comma, got %q", row["name"])
		}
		if row["city"] != `John"` {
			t.Errorf("Expected city to hold the rest of the quoted field, got %q", row["city"])
		}
	})

	t.Run("empty input", func(t *testing.T) {
		table := ParseCSV("")

		if len(table.Headers) != 0 || len(table.Rows) != 0 {
			t.Errorf("Expected empty table, got %+v", table)
		}
		if table.FlattenedText != "" {
			t.Errorf("Expected empty flattened text, got %q", table.FlattenedText)
		}
	})

	t.Run("header only", func(t *testing.T) {
		table := ParseCSV("x,y\n")

		if len(table.Headers) != 2 {
			t.Errorf("Expected 2 headers, got %d", len(table.Headers))
		}
		if len(table.Rows) != 0 {
			t.Errorf("Expected no rows, got %d", len(table.Rows))
		}
	})
}
