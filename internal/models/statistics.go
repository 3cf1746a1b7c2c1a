package models

// WordCount is one entry of the word frequency ranking.
type WordCount struct {
	Word  string `json:"word" msgpack:"word"`
	Count int    `json:"count" msgpack:"count"`
}

// TextStatistics is derived deterministically from extracted text and is
// recomputed in full on every run.
type TextStatistics struct {
	TotalWords                         int         `json:"totalWords" msgpack:"totalWords"`
	TotalSentences                     int         `json:"totalSentences" msgpack:"totalSentences"`
	TotalCharacters                    int         `json:"totalCharacters" msgpack:"totalCharacters"`
	TotalCharactersExcludingWhitespace int         `json:"totalCharactersExcludingWhitespace" msgpack:"totalCharactersExcludingWhitespace"`
	AverageWordLength                  float64     `json:"averageWordLength" msgpack:"averageWordLength"`
	AverageSentenceLength              float64     `json:"averageSentenceLength" msgpack:"averageSentenceLength"`
	TopWords                           []WordCount `json:"topWords" msgpack:"topWords"`
}
