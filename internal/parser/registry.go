package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/transfer-studio/backend/internal/models"
)

// DefaultMaxFileSize matches the "up to 10MB" limit of the upload zone.
const DefaultMaxFileSize int64 = 10 * 1024 * 1024

// Registry holds one reader per file kind and runs intake.
type Registry struct {
	readers []Reader
	maxSize int64
	now     func() time.Time
}

// Global registry instance
var globalRegistry = NewRegistry(DefaultMaxFileSize)

// NewRegistry creates a registry with the built-in readers.
func NewRegistry(maxSize int64) *Registry {
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	return &Registry{
		readers: []Reader{
			NewTextReader(),
			NewCSVReader(),
			NewImageReader(),
			NewExcelReader(),
		},
		maxSize: maxSize,
		now:     time.Now,
	}
}

// GetGlobalRegistry returns the singleton registry.
func GetGlobalRegistry() *Registry {
	return globalRegistry
}

// MaxSize returns the largest accepted upload in bytes.
func (r *Registry) MaxSize() int64 {
	return r.maxSize
}

// FindReader returns the reader for a file kind.
func (r *Registry) FindReader(kind models.FileKind) (Reader, error) {
	for _, rd := range r.readers {
		if rd.Kind() == kind {
			return rd, nil
		}
	}
	return nil, fmt.Errorf("no reader registered for kind: %s", kind)
}

// Read classifies and reads one upload. It returns the uploaded file and the
// raw bytes so callers can persist them. Unsupported or oversized files yield
// *models.ValidationError; undecodable content yields *models.ReadError.
func (r *Registry) Read(name, mimeType string, src io.Reader) (*models.UploadedFile, []byte, error) {
	if strings.TrimSpace(name) == "" {
		return nil, nil, models.ErrMissingInput
	}

	kind := Classify(name, mimeType)
	if kind == models.FileKindUnsupported {
		return nil, nil, models.NewUnsupportedFileError(name)
	}

	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(src, r.maxSize+1))
	if err != nil {
		return nil, nil, &models.ReadError{FileName: name, Err: err}
	}
	if n > r.maxSize {
		return nil, nil, &models.ValidationError{
			Message: fmt.Sprintf("file %s exceeds the %d byte upload limit", name, r.maxSize),
		}
	}
	data := buf.Bytes()

	rd, err := r.FindReader(kind)
	if err != nil {
		return nil, nil, err
	}

	resolved := ResolveMIMEType(name, mimeType)
	content, err := rd.Read(name, resolved, data)
	if err != nil {
		return nil, nil, err
	}

	return &models.UploadedFile{
		Name:       name,
		Size:       int64(len(data)),
		Kind:       kind,
		MIMEType:   resolved,
		UploadedAt: r.now(),
		Content:    content,
	}, data, nil
}
