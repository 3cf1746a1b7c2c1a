package parser

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/transfer-studio/backend/internal/models"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// errInvalidUTF8 is wrapped in a ReadError when text cannot be decoded.
var errInvalidUTF8 = errors.New("content is not valid UTF-8 text")

// decodeText strips a UTF-8 BOM and rejects content that is not UTF-8.
func decodeText(name string, data []byte) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return "", &models.ReadError{FileName: name, Err: errInvalidUTF8}
	}
	return string(data), nil
}

// TextReader reads plain text files.
type TextReader struct{}

func NewTextReader() *TextReader { return &TextReader{} }

func (r *TextReader) Kind() models.FileKind { return models.FileKindText }

func (r *TextReader) Read(name, _ string, data []byte) (models.Content, error) {
	text, err := decodeText(name, data)
	if err != nil {
		return nil, err
	}
	return models.TextContent{Text: text}, nil
}

// CSVReader reads CSV files as text and parses them with ParseCSV.
type CSVReader struct{}

func NewCSVReader() *CSVReader { return &CSVReader{} }

func (r *CSVReader) Kind() models.FileKind { return models.FileKindCSV }

func (r *CSVReader) Read(name, _ string, data []byte) (models.Content, error) {
	text, err := decodeText(name, data)
	if err != nil {
		return nil, err
	}
	return models.CSVContent{Raw: text, Table: ParseCSV(text)}, nil
}

// ImageReader encodes images as a base64 data URL for preview.
type ImageReader struct{}

func NewImageReader() *ImageReader { return &ImageReader{} }

func (r *ImageReader) Kind() models.FileKind { return models.FileKindImage }

func (r *ImageReader) Read(name, mimeType string, data []byte) (models.Content, error) {
	if len(data) == 0 {
		return nil, &models.ReadError{FileName: name, Err: errors.New("image is empty")}
	}
	if !strings.HasPrefix(mimeType, "image/") {
		mimeType = "image/png"
	}
	return models.ImageContent{
		DataURL:  "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data),
		MIMEType: mimeType,
	}, nil
}

// ExcelReader does not parse spreadsheets; it records a placeholder.
type ExcelReader struct{}

func NewExcelReader() *ExcelReader { return &ExcelReader{} }

func (r *ExcelReader) Kind() models.FileKind { return models.FileKindExcel }

func (r *ExcelReader) Read(name, _ string, _ []byte) (models.Content, error) {
	return models.ExcelContent{
		Placeholder: fmt.Sprintf("[Excel file: %s - spreadsheet content is not parsed in this demo]", name),
	}, nil
}
