// Package parser implements file intake: classification of uploads into a
// file kind and kind-specific reading of their content.
package parser

import (
	"path/filepath"
	"strings"

	"github.com/transfer-studio/backend/internal/models"
)

// Reader turns the bytes of one file kind into its content variant.
type Reader interface {
	// Kind returns the file kind this reader handles.
	Kind() models.FileKind
	// Read decodes data. Decoding failures are reported as *models.ReadError.
	Read(name, mimeType string, data []byte) (models.Content, error)
}

// AllowedExtensions is the set of extensions the file picker accepts.
var AllowedExtensions = []string{".txt", ".csv", ".xlsx", ".xls", ".jpg", ".jpeg", ".png"}

var extensionKinds = map[string]models.FileKind{
	".txt":  models.FileKindText,
	".csv":  models.FileKindCSV,
	".xlsx": models.FileKindExcel,
	".xls":  models.FileKindExcel,
	".jpg":  models.FileKindImage,
	".jpeg": models.FileKindImage,
	".png":  models.FileKindImage,
}

var extensionMIMETypes = map[string]string{
	".txt":  "text/plain",
	".csv":  "text/csv",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".xls":  "application/vnd.ms-excel",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// Classify maps a file name and MIME type onto a file kind. The extension
// wins; the MIME type is only consulted when the name has no extension.
func Classify(name, mimeType string) models.FileKind {
	ext := strings.ToLower(filepath.Ext(name))
	if ext != "" {
		if kind, ok := extensionKinds[ext]; ok {
			return kind
		}
		return models.FileKindUnsupported
	}

	switch normalizeMIME(mimeType) {
	case "text/plain":
		return models.FileKindText
	case "text/csv":
		return models.FileKindCSV
	case "application/vnd.ms-excel",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		return models.FileKindExcel
	case "image/jpeg", "image/png":
		return models.FileKindImage
	default:
		return models.FileKindUnsupported
	}
}

// ResolveMIMEType returns the MIME type to record for a file, preferring the
// extension-derived one over whatever the client sent.
func ResolveMIMEType(name, mimeType string) string {
	if mt, ok := extensionMIMETypes[strings.ToLower(filepath.Ext(name))]; ok {
		return mt
	}
	if mt := normalizeMIME(mimeType); mt != "" {
		return mt
	}
	return "application/octet-stream"
}

// normalizeMIME strips parameters such as "; charset=utf-8".
func normalizeMIME(mimeType string) string {
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}
