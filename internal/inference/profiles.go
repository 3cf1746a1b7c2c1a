package inference

import (
	_ "embed"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/transfer-studio/backend/internal/models"
)

//go:embed profiles.yaml
var defaultProfilesYAML []byte

// Profile is one constant result shape.
type Profile struct {
	Model          string              `yaml:"model"`
	Task           string              `yaml:"task"`
	ProcessingTime string              `yaml:"processing_time"`
	Predictions    []models.Prediction `yaml:"predictions"`
	Entities       []models.Entity     `yaml:"entities"`
	Topics         []models.Topic      `yaml:"topics"`
}

// Profiles holds the image-flavoured and text-flavoured result shapes.
type Profiles struct {
	Image Profile `yaml:"image"`
	Text  Profile `yaml:"text"`
}

// DefaultProfiles returns the embedded profiles.
func DefaultProfiles() (*Profiles, error) {
	return parseProfiles(defaultProfilesYAML)
}

// LoadProfiles reads profiles from a YAML file.
func LoadProfiles(path string) (*Profiles, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open profiles: %w", err)
	}
	defer f.Close()

	return ParseProfilesFromReader(f)
}

// ParseProfilesFromReader decodes profiles from r.
func ParseProfilesFromReader(r io.Reader) (*Profiles, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read profiles: %w", err)
	}
	return parseProfiles(data)
}

func parseProfiles(data []byte) (*Profiles, error) {
	var p Profiles
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse profiles: %w", err)
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Profiles) validate() error {
	for name, prof := range map[string]Profile{"image": p.Image, "text": p.Text} {
		if prof.Model == "" {
			return fmt.Errorf("profile %s: model is required", name)
		}
		if len(prof.Predictions) == 0 {
			return fmt.Errorf("profile %s: at least one prediction is required", name)
		}
		for _, pred := range prof.Predictions {
			if pred.Confidence < 0 || pred.Confidence > 1 {
				return fmt.Errorf("profile %s: confidence %v for %q is outside [0,1]", name, pred.Confidence, pred.Class)
			}
		}
	}
	return nil
}
