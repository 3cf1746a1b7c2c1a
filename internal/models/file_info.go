package models

import "time"

// FileKind is the intake classification of an uploaded file.
type FileKind string

const (
	FileKindText        FileKind = "text"
	FileKindCSV         FileKind = "csv"
	FileKindExcel       FileKind = "excel"
	FileKindImage       FileKind = "image"
	FileKindUnsupported FileKind = "unsupported"
)

// FileInfo represents metadata about a stored upload.
type FileInfo struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// UploadedFile is a file that passed intake. It is replaced wholesale on the
// next upload and never merged with a previous one.
type UploadedFile struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	Kind       FileKind  `json:"kind"`
	MIMEType   string    `json:"mimeType"`
	UploadedAt time.Time `json:"uploadedAt"`
	Content    Content   `json:"-"`
}

// Content is the kind-specific payload read during intake.
// The set of implementations is closed: TextContent, CSVContent,
// ImageContent and ExcelContent.
type Content interface {
	Kind() FileKind
	isContent()
}

// TextContent holds a decoded plain-text file.
type TextContent struct {
	Text string `json:"text"`
}

// CSVContent holds the raw CSV text and its naive parse.
type CSVContent struct {
	Raw   string    `json:"raw"`
	Table *CSVTable `json:"table"`
}

// ImageContent holds a preview-only data URL. The image is never decoded.
type ImageContent struct {
	DataURL  string `json:"dataUrl"`
	MIMEType string `json:"mimeType"`
}

// ExcelContent is a placeholder; spreadsheets are not parsed.
type ExcelContent struct {
	Placeholder string `json:"placeholder"`
}

func (TextContent) Kind() FileKind  { return FileKindText }
func (CSVContent) Kind() FileKind   { return FileKindCSV }
func (ImageContent) Kind() FileKind { return FileKindImage }
func (ExcelContent) Kind() FileKind { return FileKindExcel }

func (TextContent) isContent()  {}
func (CSVContent) isContent()   {}
func (ImageContent) isContent() {}
func (ExcelContent) isContent() {}

// ExtractedText returns the text the statistics engine runs on.
// Images and spreadsheets have none.
func (f *UploadedFile) ExtractedText() (string, bool) {
	if f == nil {
		return "", false
	}
	switch c := f.Content.(type) {
	case TextContent:
		return c.Text, true
	case CSVContent:
		if c.Table == nil {
			return "", true
		}
		return c.Table.FlattenedText, true
	case ImageContent, ExcelContent:
		return "", false
	default:
		return "", false
	}
}

// IsImage reports whether the file drives the image-flavoured branch.
func (f *UploadedFile) IsImage() bool {
	if f == nil {
		return false
	}
	_, ok := f.Content.(ImageContent)
	return ok
}
