// Package stats computes word, sentence and character statistics and a
// word frequency ranking for extracted text.
package stats

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/transfer-studio/backend/internal/models"
)

// TopWordsLimit is the maximum length of TextStatistics.TopWords.
const TopWordsLimit = 10

var sentenceSplit = regexp.MustCompile(`[.!?]+`)

// Compute derives statistics from text. It is pure: the same input always
// yields an identical result, and empty input yields all zeros.
func Compute(text string) *models.TextStatistics {
	words := strings.Fields(text)

	sentences := 0
	for _, segment := range sentenceSplit.Split(text, -1) {
		if strings.TrimSpace(segment) != "" {
			sentences++
		}
	}

	nonSpace := 0
	for _, r := range text {
		if !unicode.IsSpace(r) {
			nonSpace++
		}
	}

	result := &models.TextStatistics{
		TotalWords:                         len(words),
		TotalSentences:                     sentences,
		TotalCharacters:                    utf8.RuneCountInString(text),
		TotalCharactersExcludingWhitespace: nonSpace,
		TopWords:                           TopWords(words, TopWordsLimit),
	}
	if len(words) > 0 {
		result.AverageWordLength = round2(float64(nonSpace) / float64(len(words)))
	}
	if sentences > 0 {
		result.AverageSentenceLength = round2(float64(len(words)) / float64(sentences))
	}

	return result
}

// TopWords normalizes words, counts them and returns at most limit entries
// ordered by count, ties keeping first-seen order.
func TopWords(words []string, limit int) []models.WordCount {
	counts := make(map[string]int)
	order := make([]string, 0)

	for _, w := range words {
		key := normalizeWord(w)
		if key == "" {
			continue
		}
		if _, seen := counts[key]; !seen {
			order = append(order, key)
		}
		counts[key]++
	}

	ranked := make([]models.WordCount, len(order))
	for i, w := range order {
		ranked[i] = models.WordCount{Word: w, Count: counts[w]}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// normalizeWord lower-cases w and drops every rune that is not a letter or digit.
func normalizeWord(w string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(w) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
