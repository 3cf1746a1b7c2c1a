package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// Image is an optional picture embedded at the top of a PDF report.
type Image struct {
	Data     []byte
	MIMEType string
}

const (
	pdfMaxImageWidth  = 120.0
	pdfMaxImageHeight = 90.0
	pdfLineHeight     = 4.5
)

// PDF renders a text document as an A4 PDF. When img is set and can be
// decoded by gofpdf it is placed above the text; an image that fails to
// register is skipped rather than failing the report.
func PDF(doc *Document, img *Image) (*Document, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(doc.Title, true)
	pdf.SetCreator("Transfer Learning Studio", true)
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	if img != nil && len(img.Data) > 0 {
		addImage(pdf, img)
	}

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFont("Courier", "", 9)
	for _, line := range strings.Split(string(doc.Content), "\n") {
		pdf.MultiCell(0, pdfLineHeight, tr(line), "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}

	return &Document{
		Kind:        doc.Kind,
		Title:       doc.Title,
		FileName:    FileName(doc.Kind, doc.GeneratedAt, "pdf"),
		ContentType: "application/pdf",
		Content:     buf.Bytes(),
		GeneratedAt: doc.GeneratedAt,
	}, nil
}

func addImage(pdf *gofpdf.Fpdf, img *Image) {
	imageType := ""
	switch img.MIMEType {
	case "image/png":
		imageType = "PNG"
	case "image/jpeg":
		imageType = "JPG"
	default:
		return
	}

	opts := gofpdf.ImageOptions{ImageType: imageType, ReadDpi: true}
	info := pdf.RegisterImageOptionsReader("upload", opts, bytes.NewReader(img.Data))
	if !pdf.Ok() || info == nil {
		pdf.ClearError()
		return
	}

	w, h := info.Width(), info.Height()
	if w <= 0 || h <= 0 {
		return
	}
	scale := 1.0
	if w > pdfMaxImageWidth {
		scale = pdfMaxImageWidth / w
	}
	if h*scale > pdfMaxImageHeight {
		scale = pdfMaxImageHeight / h
	}

	pageWidth, _ := pdf.GetPageSize()
	w, h = w*scale, h*scale
	pdf.ImageOptions("upload", (pageWidth-w)/2, pdf.GetY(), w, h, true, opts, 0, "")
	pdf.Ln(4)
}
