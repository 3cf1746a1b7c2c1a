// Package report renders analysis results and text statistics as
// downloadable plain-text documents.
package report

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/transfer-studio/backend/internal/models"
)

// Kind selects one of the report layouts.
type Kind string

const (
	KindSingle     Kind = "single"
	KindFull       Kind = "full"
	KindStatistics Kind = "statistics"
)

// ParseKind validates a kind name.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(s)) {
	case KindSingle:
		return KindSingle, nil
	case KindFull, "":
		return KindFull, nil
	case KindStatistics:
		return KindStatistics, nil
	default:
		return "", fmt.Errorf("unknown report kind: %s", s)
	}
}

var (
	// ErrNoResult is returned when a result report is requested before analysis.
	ErrNoResult = errors.New("no analysis result available")
	// ErrNoStatistics is returned when a statistics report is requested for
	// a file without extracted text.
	ErrNoStatistics = errors.New("no text statistics available")
)

// Document is a rendered report ready for download.
type Document struct {
	Kind        Kind
	Title       string
	FileName    string
	ContentType string
	Content     []byte
	GeneratedAt time.Time
}

// Generator renders reports. The zero value is not usable; call NewGenerator.
type Generator struct {
	now func() time.Time
}

// NewGenerator creates a generator using the wall clock.
func NewGenerator() *Generator {
	return &Generator{now: time.Now}
}

// NewGeneratorWithClock creates a generator with a fixed time source.
func NewGeneratorWithClock(now func() time.Time) *Generator {
	return &Generator{now: now}
}

// Input bundles everything a report may draw on. Only Result is required
// for result reports and only Statistics for statistics reports.
type Input struct {
	File       *models.UploadedFile
	Result     *models.AnalysisResult
	Statistics *models.TextStatistics
	Table      *models.CSVTable
}

// Render dispatches to the layout selected by kind.
func (g *Generator) Render(kind Kind, in Input) (*Document, error) {
	switch kind {
	case KindSingle:
		return g.Single(in.Result)
	case KindFull:
		return g.Full(in)
	case KindStatistics:
		name := ""
		if in.File != nil {
			name = in.File.Name
		}
		return g.Statistics(name, in.Statistics)
	default:
		return nil, fmt.Errorf("unknown report kind: %s", kind)
	}
}

// FileName builds a download name embedding the generation time in unix
// milliseconds.
func FileName(kind Kind, at time.Time, ext string) string {
	prefix := "transfer-learning-full-report"
	switch kind {
	case KindSingle:
		prefix = "transfer-learning-results"
	case KindStatistics:
		prefix = "text-statistics"
	}
	return fmt.Sprintf("%s-%d.%s", prefix, at.UnixMilli(), ext)
}

func (g *Generator) document(kind Kind, title, body string) *Document {
	at := g.now()
	return &Document{
		Kind:        kind,
		Title:       title,
		FileName:    FileName(kind, at, "txt"),
		ContentType: "text/plain; charset=utf-8",
		Content:     []byte(body),
		GeneratedAt: at,
	}
}

func percent(v float64) string {
	return fmt.Sprintf("%.2f%%", v*100)
}

func kilobytes(size int64) string {
	return fmt.Sprintf("%.2f KB", float64(size)/1024)
}
