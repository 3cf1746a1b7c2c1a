package models

import "time"

// TimestampLayout renders timestamps the way the id-ID locale does,
// e.g. "19/10/2026, 15.04.05".
const TimestampLayout = "02/01/2006, 15.04.05"

// Prediction is a category/confidence pair. Confidence is in [0,1].
type Prediction struct {
	Class      string  `json:"class" yaml:"class" msgpack:"class"`
	Confidence float64 `json:"confidence" yaml:"confidence" msgpack:"confidence"`
}

// Entity is an entity/count pair.
type Entity struct {
	Name  string `json:"name" yaml:"name" msgpack:"name"`
	Count int    `json:"count" yaml:"count" msgpack:"count"`
}

// Topic is a topic/relevance pair. Relevance is in [0,1].
type Topic struct {
	Name      string  `json:"name" yaml:"name" msgpack:"name"`
	Relevance float64 `json:"relevance" yaml:"relevance" msgpack:"relevance"`
}

// AnalysisResult is the output of the inference stage. With the mock
// provider every field except the file fields and timestamps is a constant
// selected by the image / non-image branch.
type AnalysisResult struct {
	Model          string       `json:"model" msgpack:"model"`
	Task           string       `json:"task" msgpack:"task"`
	Predictions    []Prediction `json:"predictions" msgpack:"predictions"`
	Entities       []Entity     `json:"entities" msgpack:"entities"`
	Topics         []Topic      `json:"topics" msgpack:"topics"`
	ProcessingTime string       `json:"processingTime" msgpack:"processingTime"`
	ImageSize      string       `json:"imageSize,omitempty" msgpack:"imageSize,omitempty"`
	FileName       string       `json:"fileName" msgpack:"fileName"`
	FileSize       int64        `json:"fileSize" msgpack:"fileSize"`
	FileKind       FileKind     `json:"fileKind" msgpack:"fileKind"`
	Timestamp      string       `json:"timestamp" msgpack:"timestamp"`
	GeneratedAt    time.Time    `json:"generatedAt" msgpack:"generatedAt"`
}

// TopPrediction returns the first prediction, if any.
func (r *AnalysisResult) TopPrediction() (Prediction, bool) {
	if r == nil || len(r.Predictions) == 0 {
		return Prediction{}, false
	}
	return r.Predictions[0], true
}

// TopTopic returns the first topic, if any.
func (r *AnalysisResult) TopTopic() (Topic, bool) {
	if r == nil || len(r.Topics) == 0 {
		return Topic{}, false
	}
	return r.Topics[0], true
}

// HistoryEntry is a persisted summary of a completed analysis.
type HistoryEntry struct {
	SessionID     string    `json:"sessionId"`
	FileName      string    `json:"fileName"`
	FileKind      FileKind  `json:"fileKind"`
	FileSize      int64     `json:"fileSize"`
	Model         string    `json:"model"`
	TopPrediction string    `json:"topPrediction"`
	TopConfidence float64   `json:"topConfidence"`
	TotalWords    int       `json:"totalWords"`
	CompletedAt   time.Time `json:"completedAt"`
}
