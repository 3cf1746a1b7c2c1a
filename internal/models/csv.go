package models

// CSVRow maps header names to values. A header with no value on a short
// line is absent from the map rather than mapped to "".
type CSVRow map[string]string

// CSVTable is the result of naive comma-split CSV parsing.
type CSVTable struct {
	Headers       []string `json:"headers"`
	Rows          []CSVRow `json:"rows"`
	FlattenedText string   `json:"-"`
}
