package report

import (
	"fmt"
	"strings"

	"github.com/transfer-studio/backend/internal/models"
)

// Statistics renders the statistics-only report.
func (g *Generator) Statistics(fileName string, s *models.TextStatistics) (*Document, error) {
	if s == nil {
		return nil, ErrNoStatistics
	}

	var b strings.Builder
	b.WriteString("TEXT STATISTICS REPORT\n")
	b.WriteString("======================\n\n")
	if fileName != "" {
		fmt.Fprintf(&b, "File: %s\n", fileName)
	}
	fmt.Fprintf(&b, "Generated: %s\n\n", g.now().Format(models.TimestampLayout))

	fmt.Fprintf(&b, "Total Words: %d\n", s.TotalWords)
	fmt.Fprintf(&b, "Total Sentences: %d\n", s.TotalSentences)
	fmt.Fprintf(&b, "Total Characters: %d\n", s.TotalCharacters)
	fmt.Fprintf(&b, "Characters (excluding whitespace): %d\n", s.TotalCharactersExcludingWhitespace)
	fmt.Fprintf(&b, "Average Word Length: %.2f\n", s.AverageWordLength)
	fmt.Fprintf(&b, "Average Sentence Length: %.2f\n\n", s.AverageSentenceLength)

	b.WriteString("Top 10 Most Frequent Words:\n")
	for i, wc := range s.TopWords {
		fmt.Fprintf(&b, "%d. %s: %d\n", i+1, wc.Word, wc.Count)
	}

	return g.document(KindStatistics, "Text Statistics Report", b.String()), nil
}
