package parser

import (
	"errors"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/transfer-studio/backend/internal/models"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		mimeType string
		want     models.FileKind
	}{
		{"txt", "notes.txt", "", models.FileKindText},
		{"upper case extension", "NOTES.TXT", "", models.FileKindText},
		{"csv", "data.csv", "text/plain", models.FileKindCSV},
		{"xlsx", "sheet.xlsx", "", models.FileKindExcel},
		{"xls", "sheet.xls", "", models.FileKindExcel},
		{"jpg", "dog.jpg", "", models.FileKindImage},
		{"jpeg", "dog.jpeg", "", models.FileKindImage},
		{"png", "dog.png", "image/png", models.FileKindImage},
		{"gif is not accepted", "dog.gif", "image/gif", models.FileKindUnsupported},
		{"pdf", "doc.pdf", "application/pdf", models.FileKindUnsupported},
		{"extension wins over mime", "run.exe", "text/plain", models.FileKindUnsupported},
		{"mime fallback text", "README", "text/plain; charset=utf-8", models.FileKindText},
		{"mime fallback image", "blob", "image/jpeg", models.FileKindImage},
		{"mime fallback excel", "blob", "application/vnd.ms-excel", models.FileKindExcel},
		{"no extension no mime", "blob", "", models.FileKindUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.fileName, tt.mimeType); got != tt.want {
				t.Errorf("Classify(%q, %q) = %s, want %s", tt.fileName, tt.mimeType, got, tt.want)
			}
		})
	}
}

func TestRegistry_Read(t *testing.T) {
	r := NewRegistry(1024)

	t.Run("text file", func(t *testing.T) {
		file, data, err := r.Read("notes.txt", "", strings.NewReader("\xEF\xBB\xBFhello world"))
		if err != nil {
			t.Fatalf("Read failed: %v", err)
		}
		content, ok := file.Content.(models.TextContent)
		if !ok {
			t.Fatalf("Expected TextContent, got %T", file.Content)
		}
		if content.Text != "hello world" {
			t.Errorf("Expected BOM to be stripped, got %q", content.Text)
		}
		if file.Size != int64(len(data)) {
			t.Errorf("Expected size %d, got %d", len(data), file.Size)
		}
		if file.MIMEType != "text/plain" {
			t.Errorf("Expected text/plain, got %s", file.MIMEType)
		}
	})

	t.Run("csv file", func(t *testing.T) {
		file, _, err := r.Read("data.csv", "text/csv", strings.NewReader("a,b\n1,2"))
		if err != nil {
			t.Fatalf("Read failed: %v", err)
		}
		content, ok := file.Content.(models.CSVContent)
		if !ok {
			t.Fatalf("Expected CSVContent, got %T", file.Content)
		}
		if len(content.Table.Rows) != 1 {
			t.Errorf("Expected 1 row, got %d", len(content.Table.Rows))
		}
		text, ok := file.ExtractedText()
		if !ok || text != "a,b 1,2" {
			t.Errorf("Expected flattened text, got %q (%v)", text, ok)
		}
	})

	t.Run("image file", func(t *testing.T) {
		file, _, err := r.Read("dog.png", "", strings.NewReader("\x89PNG"))
		if err != nil {
			t.Fatalf("Read failed: %v", err)
		}
		content, ok := file.Content.(models.ImageContent)
		if !ok {
			t.Fatalf("Expected ImageContent, got %T", file.Content)
		}
		if content.DataURL != "data:image/png;base64,iVBORw==" {
			t.Errorf("Unexpected data URL %q", content.DataURL)
		}
		if _, ok := file.ExtractedText(); ok {
			t.Error("Expected images to have no extracted text")
		}
		if !file.IsImage() {
			t.Error("Expected IsImage to be true")
		}
	})

	t.Run("excel file is a placeholder", func(t *testing.T) {
		file, _, err := r.Read("sheet.xlsx", "", strings.NewReader("PK\x03\x04 binary"))
		if err != nil {
			t.Fatalf("Read failed: %v", err)
		}
		content, ok := file.Content.(models.ExcelContent)
		if !ok {
			t.Fatalf("Expected ExcelContent, got %T", file.Content)
		}
		if !strings.Contains(content.Placeholder, "sheet.xlsx") {
			t.Errorf("Expected placeholder to name the file, got %q", content.Placeholder)
		}
	})

	t.Run("unsupported file", func(t *testing.T) {
		_, _, err := r.Read("virus.exe", "", strings.NewReader("MZ"))
		var vErr *models.ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("Expected ValidationError, got %v", err)
		}
	})

	t.Run("too large", func(t *testing.T) {
		_, _, err := r.Read("big.txt", "", strings.NewReader(strings.Repeat("a", 1025)))
		var vErr *models.ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("Expected ValidationError, got %v", err)
		}
	})

	t.Run("invalid utf-8", func(t *testing.T) {
		_, _, err := r.Read("bad.txt", "", strings.NewReader("ok \xff\xfe"))
		var rErr *models.ReadError
		if !errors.As(err, &rErr) {
			t.Fatalf("Expected ReadError, got %v", err)
		}
		if !errors.Is(err, errInvalidUTF8) {
			t.Errorf("Expected ReadError to wrap errInvalidUTF8, got %v", rErr.Err)
		}
	})

	t.Run("reader failure", func(t *testing.T) {
		_, _, err := r.Read("notes.txt", "", iotest.ErrReader(errors.New("disk gone")))
		var rErr *models.ReadError
		if !errors.As(err, &rErr) {
			t.Fatalf("Expected ReadError, got %v", err)
		}
	})

	t.Run("missing name", func(t *testing.T) {
		_, _, err := r.Read("", "", strings.NewReader("x"))
		if !errors.Is(err, models.ErrMissingInput) {
			t.Fatalf("Expected ErrMissingInput, got %v", err)
		}
	})
}

func TestRegistry_FindReader(t *testing.T) {
	r := NewRegistry(0)

	for _, kind := range []models.FileKind{models.FileKindText, models.FileKindCSV, models.FileKindImage, models.FileKindExcel} {
		rd, err := r.FindReader(kind)
		if err != nil {
			t.Errorf("Expected reader for %s: %v", kind, err)
			continue
		}
		if rd.Kind() != kind {
			t.Errorf("Expected kind %s, got %s", kind, rd.Kind())
		}
	}

	if _, err := r.FindReader(models.FileKindUnsupported); err == nil {
		t.Error("Expected no reader for unsupported kind")
	}
	if r.MaxSize() != DefaultMaxFileSize {
		t.Errorf("Expected default max size, got %d", r.MaxSize())
	}
}
