package stats

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/transfer-studio/backend/internal/models"
)

func TestCompute_Example(t *testing.T) {
	s := Compute("The quick brown fox. The fox ran!")

	assert.Equal(t, 7, s.TotalWords)
	assert.Equal(t, 2, s.TotalSentences)
	assert.Equal(t, 33, s.TotalCharacters)
	assert.Equal(t, 27, s.TotalCharactersExcludingWhitespace)
	assert.Equal(t, 3.86, s.AverageWordLength)
	assert.Equal(t, 3.5, s.AverageSentenceLength)
	require.NotEmpty(t, s.TopWords)
	assert.Equal(t, models.WordCount{Word: "the", Count: 2}, s.TopWords[0])
	assert.Equal(t, models.WordCount{Word: "fox", Count: 2}, s.TopWords[1])
	assert.Equal(t, "quick", s.TopWords[2].Word)
}

func TestCompute_Empty(t *testing.T) {
	for _, input := range []string{"", "   \n\t "} {
		s := Compute(input)

		assert.Zero(t, s.TotalWords)
		assert.Zero(t, s.TotalSentences)
		assert.Zero(t, s.TotalCharactersExcludingWhitespace)
		assert.Zero(t, s.AverageWordLength)
		assert.Zero(t, s.AverageSentenceLength)
		assert.False(t, math.IsNaN(s.AverageWordLength))
		assert.False(t, math.IsNaN(s.AverageSentenceLength))
		assert.Empty(t, s.TopWords)
	}
}

func TestCompute_Sentences(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"One. Two! Three?", 3},
		{"Wait... what?!", 2},
		{"no terminator", 1},
		{"...!!!", 0},
		{"Trailing. ", 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Compute(tt.text).TotalSentences, tt.text)
	}
}

func TestCompute_PunctuationOnlyWordsLeaveFrequencyTable(t *testing.T) {
	s := Compute("-- hello -- HELLO, world!")

	assert.Equal(t, 5, s.TotalWords)
	require.Len(t, s.TopWords, 2)
	assert.Equal(t, models.WordCount{Word: "hello", Count: 2}, s.TopWords[0])
	assert.Equal(t, models.WordCount{Word: "world", Count: 1}, s.TopWords[1])
}

func TestCompute_SentencesCanExceedWords(t *testing.T) {
	s := Compute("a.b.c")

	assert.Equal(t, 1, s.TotalWords)
	assert.Equal(t, 3, s.TotalSentences)
	assert.Equal(t, 0.33, s.AverageSentenceLength)
}

func TestTopWords_TiesKeepFirstSeenOrder(t *testing.T) {
	words := strings.Fields("delta alpha charlie bravo alpha delta")

	got := TopWords(words, 10)

	require.Len(t, got, 4)
	assert.Equal(t, []string{"delta", "alpha", "charlie", "bravo"},
		[]string{got[0].Word, got[1].Word, got[2].Word, got[3].Word})
}

func TestTopWords_Invariants(t *testing.T) {
	inputs := []string{
		"",
		"a b c d e f g h i j k l m n o p",
		"x x x y y z",
		strings.Repeat("word ", 50) + "Other, other; OTHER!",
		"Ünïcödé ünïcödé 123 123 123 — – ...",
	}

	for _, input := range inputs {
		s := Compute(input)
		assert.LessOrEqual(t, len(s.TopWords), TopWordsLimit, input)

		sum := 0
		for i, wc := range s.TopWords {
			assert.GreaterOrEqual(t, wc.Count, 1, input)
			if i > 0 {
				assert.GreaterOrEqual(t, s.TopWords[i-1].Count, wc.Count, input)
			}
			sum += wc.Count
		}
		assert.LessOrEqual(t, sum, s.TotalWords, input)
	}
}

func TestCompute_Idempotent(t *testing.T) {
	text := "Go is expressive, concise, clean, and efficient. Go compiles quickly!"

	first := Compute(text)
	second := Compute(text)

	assert.Equal(t, first, second)
}

func TestCompute_UnicodeCharacters(t *testing.T) {
	s := Compute("héllo wörld")

	assert.Equal(t, 11, s.TotalCharacters)
	assert.Equal(t, 10, s.TotalCharactersExcludingWhitespace)
	assert.Equal(t, 5.0, s.AverageWordLength)
}
