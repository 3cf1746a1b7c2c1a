package report

import (
	"fmt"
	"strings"

	"github.com/transfer-studio/backend/internal/models"
)

const (
	banner  = "================================================================"
	divider = "----------------------------------------------------------------"
)

// Full renders the multi-section report. Section 1 is always file
// information; the image analysis and text statistics sections are only
// present when they apply, and every later section is numbered after them.
func (g *Generator) Full(in Input) (*Document, error) {
	r := in.Result
	if r == nil {
		return nil, ErrNoResult
	}

	var b strings.Builder
	b.WriteString(banner + "\n")
	b.WriteString("      TRANSFER LEARNING STUDIO - FULL ANALYSIS REPORT\n")
	b.WriteString(banner + "\n\n")
	fmt.Fprintf(&b, "Generated       : %s\n", r.Timestamp)
	fmt.Fprintf(&b, "Model           : %s\n", r.Model)
	fmt.Fprintf(&b, "Task            : %s\n", r.Task)
	fmt.Fprintf(&b, "Processing Time : %s\n", r.ProcessingTime)

	section(&b, 1, "FILE INFORMATION")
	fmt.Fprintf(&b, "File Name : %s\n", r.FileName)
	fmt.Fprintf(&b, "File Type : %s\n", strings.ToUpper(string(r.FileKind)))
	fmt.Fprintf(&b, "File Size : %s\n", kilobytes(r.FileSize))
	if in.Table != nil {
		fmt.Fprintf(&b, "Rows      : %d\n", len(in.Table.Rows))
		fmt.Fprintf(&b, "Columns   : %d\n", len(in.Table.Headers))
	}

	n := 2
	if r.FileKind == models.FileKindImage {
		section(&b, n, "IMAGE ANALYSIS")
		writeImageAnalysis(&b, r)
		n++
	}
	if in.Statistics != nil {
		section(&b, n, "TEXT STATISTICS")
		writeStatistics(&b, in.Statistics)
		n++
	}

	section(&b, n, "CLASSIFICATION RESULTS")
	for i, pred := range r.Predictions {
		fmt.Fprintf(&b, "   %d. %s: %s\n", i+1, pred.Class, percent(pred.Confidence))
	}

	section(&b, n+1, "ENTITY EXTRACTION")
	if len(r.Entities) == 0 {
		b.WriteString("   (none)\n")
	}
	for _, e := range r.Entities {
		fmt.Fprintf(&b, "   - %s: %d\n", e.Name, e.Count)
	}

	section(&b, n+2, "TOPIC ANALYSIS")
	if len(r.Topics) == 0 {
		b.WriteString("   (none)\n")
	}
	for _, t := range r.Topics {
		fmt.Fprintf(&b, "   - %s: %s\n", t.Name, percent(t.Relevance))
	}

	section(&b, n+3, "CONCLUSION")
	b.WriteString(Conclusion(r) + "\n")

	b.WriteString("\n" + banner + "\n")
	b.WriteString("Note: results are produced by a pre-trained model fine-tuned with\n")
	b.WriteString("Transfer Learning techniques.\n")
	b.WriteString(banner + "\n")

	return g.document(KindFull, "Transfer Learning Studio - Full Analysis Report", b.String()), nil
}

// Conclusion summarizes the top prediction and topic in one sentence.
func Conclusion(r *models.AnalysisResult) string {
	pred, ok := r.TopPrediction()
	if !ok {
		return fmt.Sprintf("The %s analysis of %q produced no predictions.", r.Model, r.FileName)
	}

	s := fmt.Sprintf("Based on the %s analysis, %q is most likely classified as %s with %s confidence.",
		r.Model, r.FileName, pred.Class, percent(pred.Confidence))
	if topic, ok := r.TopTopic(); ok {
		s += fmt.Sprintf(" The most relevant topic identified is %s (%s relevance).", topic.Name, percent(topic.Relevance))
	}
	return s
}

func section(b *strings.Builder, n int, title string) {
	fmt.Fprintf(b, "\n%d. %s\n%s\n", n, title, divider)
}

func writeImageAnalysis(b *strings.Builder, r *models.AnalysisResult) {
	fmt.Fprintf(b, "Image Size       : %s\n", r.ImageSize)
	names := make([]string, 0, len(r.Entities))
	for _, e := range r.Entities {
		names = append(names, e.Name)
	}
	if len(names) > 0 {
		fmt.Fprintf(b, "Detected Objects : %s\n", strings.Join(names, ", "))
	}
	if topic, ok := r.TopTopic(); ok {
		fmt.Fprintf(b, "Scene            : %s (%s)\n", topic.Name, percent(topic.Relevance))
	}
}

func writeStatistics(b *strings.Builder, s *models.TextStatistics) {
	fmt.Fprintf(b, "Total Words                     : %d\n", s.TotalWords)
	fmt.Fprintf(b, "Total Sentences                 : %d\n", s.TotalSentences)
	fmt.Fprintf(b, "Total Characters                : %d\n", s.TotalCharacters)
	fmt.Fprintf(b, "Characters (excl. whitespace)   : %d\n", s.TotalCharactersExcludingWhitespace)
	fmt.Fprintf(b, "Average Word Length             : %.2f characters\n", s.AverageWordLength)
	fmt.Fprintf(b, "Average Sentence Length         : %.2f words\n", s.AverageSentenceLength)
	b.WriteString("\nTop 10 Most Frequent Words:\n")
	if len(s.TopWords) == 0 {
		b.WriteString("   (no words found)\n")
	}
	for i, wc := range s.TopWords {
		fmt.Fprintf(b, "   %d. %s (%d)\n", i+1, wc.Word, wc.Count)
	}
}
