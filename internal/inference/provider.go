// Package inference defines the model provider boundary and the mock
// provider that stands in for a real transfer-learning model.
package inference

import (
	"context"

	"github.com/transfer-studio/backend/internal/models"
)

// Provider produces an analysis result for an uploaded file. Presentation
// code depends only on this interface, so a real model can replace the mock.
type Provider interface {
	// Name identifies the provider in logs.
	Name() string
	// Infer runs inference. It must return models.ErrMissingInput without
	// doing any work when req.File is nil.
	Infer(ctx context.Context, req Request) (*models.AnalysisResult, error)
}

// Request is the input of a single inference call.
type Request struct {
	File       *models.UploadedFile
	Statistics *models.TextStatistics
}
