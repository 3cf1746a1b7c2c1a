package report

import (
	"fmt"
	"strings"

	"github.com/transfer-studio/backend/internal/models"
)

// Single renders the short single-result report.
func (g *Generator) Single(result *models.AnalysisResult) (*Document, error) {
	if result == nil {
		return nil, ErrNoResult
	}

	var b strings.Builder
	b.WriteString("LAPORAN HASIL TRANSFER LEARNING\n")
	b.WriteString("================================\n\n")
	fmt.Fprintf(&b, "Model: %s\n", result.Model)
	fmt.Fprintf(&b, "Waktu Proses: %s\n", result.ProcessingTime)
	if result.ImageSize != "" {
		fmt.Fprintf(&b, "Ukuran Gambar: %s\n", result.ImageSize)
	} else {
		fmt.Fprintf(&b, "Ukuran File: %s\n", kilobytes(result.FileSize))
	}
	fmt.Fprintf(&b, "Timestamp: %s\n\n", result.Timestamp)

	b.WriteString("HASIL PREDIKSI:\n")
	b.WriteString("---------------\n")
	for i, pred := range result.Predictions {
		fmt.Fprintf(&b, "%d. %s: %s\n", i+1, pred.Class, percent(pred.Confidence))
	}

	b.WriteString("\nCatatan: Hasil ini menggunakan model pre-trained yang telah di-fine-tune\n")
	b.WriteString("menggunakan teknik Transfer Learning.\n")

	return g.document(KindSingle, "Laporan Hasil Transfer Learning", b.String()), nil
}
