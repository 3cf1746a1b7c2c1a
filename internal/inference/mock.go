package inference

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/transfer-studio/backend/internal/models"
)

// DefaultDelay is the simulated inference duration.
const DefaultDelay = 3 * time.Second

// MockProvider waits a fixed delay and returns a constant profile. It never
// looks at file content.
type MockProvider struct {
	profiles *Profiles
	delay    time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

// MockOption configures a MockProvider.
type MockOption func(*MockProvider)

// WithClock overrides the time source.
func WithClock(now func() time.Time) MockOption {
	return func(p *MockProvider) { p.now = now }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) MockOption {
	return func(p *MockProvider) { p.logger = logger }
}

// NewMockProvider creates a mock provider. A nil profiles value selects
// the embedded defaults.
func NewMockProvider(profiles *Profiles, delay time.Duration, opts ...MockOption) (*MockProvider, error) {
	if profiles == nil {
		var err error
		profiles, err = DefaultProfiles()
		if err != nil {
			return nil, err
		}
	}
	if delay < 0 {
		delay = 0
	}

	p := &MockProvider{
		profiles: profiles,
		delay:    delay,
		now:      time.Now,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func (p *MockProvider) Name() string {
	return "mock"
}

// Infer implements Provider.
func (p *MockProvider) Infer(ctx context.Context, req Request) (*models.AnalysisResult, error) {
	if req.File == nil {
		return nil, models.ErrMissingInput
	}

	p.logger.Debug("simulating inference",
		zap.String("file", req.File.Name),
		zap.String("kind", string(req.File.Kind)),
		zap.Duration("delay", p.delay))

	if p.delay > 0 {
		timer := time.NewTimer(p.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return nil, err
	}

	profile := p.profiles.Text
	if req.File.IsImage() {
		profile = p.profiles.Image
	}

	now := p.now()
	result := &models.AnalysisResult{
		Model:          profile.Model,
		Task:           profile.Task,
		Predictions:    append([]models.Prediction(nil), profile.Predictions...),
		Entities:       append([]models.Entity(nil), profile.Entities...),
		Topics:         append([]models.Topic(nil), profile.Topics...),
		ProcessingTime: profile.ProcessingTime,
		FileName:       req.File.Name,
		FileSize:       req.File.Size,
		FileKind:       req.File.Kind,
		Timestamp:      now.Format(models.TimestampLayout),
		GeneratedAt:    now,
	}
	if req.File.IsImage() {
		result.ImageSize = ImageSizeLabel(req.File.Size)
	}

	return result, nil
}

// ImageSizeLabel renders size/1024 with the shortest exact decimal form,
// e.g. 12800 bytes -> "12.5KB".
func ImageSizeLabel(size int64) string {
	return strconv.FormatFloat(float64(size)/1024, 'f', -1, 64) + "KB"
}
