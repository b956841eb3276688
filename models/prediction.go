package models

// ConfidenceBucket is the categorical form of a prediction probability.
type ConfidenceBucket string

const (
	ConfidenceLow    ConfidenceBucket = "Low"
	ConfidenceMedium ConfidenceBucket = "Medium"
	ConfidenceHigh   ConfidenceBucket = "High"
)

// PredictionRecord is the classifier output for one uploaded image.
type PredictionRecord struct {
	Filename    string           `json:"filename"`
	Label       string           `json:"label"`
	Probability float64          `json:"probability"`
	Confidence  ConfidenceBucket `json:"confidence"`
}
