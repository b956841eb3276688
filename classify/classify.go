// Package classify turns an uploaded produce photo into a labelled
// prediction using an external image model and a class index table.
package classify

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"

	"github.com/use-agent/producerecipe/models"
)

// Bucket boundaries. Both are inclusive for Medium.
const (
	lowBelow  = 0.33
	highAbove = 0.66
)

// Classifier labels images with a Model and a ClassTable.
type Classifier struct {
	model   Model
	classes ClassTable
}

// New returns a Classifier.
func New(model Model, classes ClassTable) *Classifier {
	return &Classifier{model: model, classes: classes}
}

// Classes exposes the class table for listing.
func (c *Classifier) Classes() ClassTable { return c.classes }

// Classify validates that image is a JPEG or PNG, scores it and returns the
// top class with its probability and confidence bucket.
func (c *Classifier) Classify(ctx context.Context, filename string, img []byte) (models.PredictionRecord, error) {
	if _, format, err := image.DecodeConfig(bytes.NewReader(img)); err != nil {
		return models.PredictionRecord{}, models.NewScrapeError(models.ErrCodeUnsupportedImage,
			fmt.Sprintf("%s is not a JPEG or PNG image", filename), err)
	} else if format != "jpeg" && format != "png" {
		return models.PredictionRecord{}, models.NewScrapeError(models.ErrCodeUnsupportedImage,
			fmt.Sprintf("%s has unsupported format %s", filename, format), nil)
	}

	probs, err := c.model.Predict(ctx, img)
	if err != nil {
		return models.PredictionRecord{}, err
	}
	if len(probs) == 0 {
		return models.PredictionRecord{}, models.NewScrapeError(models.ErrCodeClassifyFailed,
			fmt.Sprintf("model returned no scores for %s", filename), nil)
	}

	best := argmax(probs)
	label, ok := c.classes[best]
	if !ok {
		return models.PredictionRecord{}, models.NewScrapeError(models.ErrCodeClassifyFailed,
			fmt.Sprintf("model output index %d has no class label", best), nil)
	}

	rec := models.PredictionRecord{
		Filename:    filename,
		Label:       label,
		Probability: probs[best],
		Confidence:  Bucket(probs[best]),
	}
	slog.Debug("image classified", "filename", filename, "label", rec.Label, "probability", rec.Probability)
	return rec, nil
}

// argmax returns the first index holding the maximum value.
func argmax(v []float64) int {
	best := 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}

// Bucket maps a probability to its confidence bucket.
func Bucket(p float64) models.ConfidenceBucket {
	switch {
	case p < lowBelow:
		return models.ConfidenceLow
	case p <= highAbove:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceHigh
	}
}

// FilterLow drops Low-confidence records, keeping order.
func FilterLow(records []models.PredictionRecord) []models.PredictionRecord {
	out := make([]models.PredictionRecord, 0, len(records))
	for _, r := range records {
		if Bucket(r.Probability) != models.ConfidenceLow {
			out = append(out, r)
		}
	}
	return out
}

// Labels returns the label of every record, in order.
func Labels(records []models.PredictionRecord) []string {
	labels := make([]string, len(records))
	for i, r := range records {
		labels[i] = r.Label
	}
	return labels
}
