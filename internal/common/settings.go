package common

import (
	"fmt"
	"os"
	"path/filepath"

	"tikflow-ledger-go/internal/models"

	"gopkg.in/yaml.v2"
)

// Official payment-provider sender ids accepted by default.
var DefaultSenders = []string{"TMoney", "Flooz", "MoovMoney", "0000"}

// PackageSeed is a catalog entry declared in the settings file.
type PackageSeed struct {
	Name  string `yaml:"name"`
	Coins int64  `yaml:"coins"`
	Price string `yaml:"price"`
}

// Settings is the operator-editable YAML configuration: the sender
// allow-list, the two parsing patterns, and the initial package catalog.
type Settings struct {
	Senders       []string      `yaml:"senders"`
	AmountPattern string        `yaml:"amount_pattern"`
	RefPattern    string        `yaml:"ref_pattern"`
	Packages      []PackageSeed `yaml:"packages"`
}

func DefaultSettings() *Settings {
	return &Settings{Senders: DefaultSenders}
}

// MatcherConfig converts the settings into the matcher's contract.
// Empty patterns fall back to the matcher defaults.
func (s *Settings) MatcherConfig() models.MatcherConfig {
	senders := s.Senders
	if len(senders) == 0 {
		senders = DefaultSenders
	}
	return models.MatcherConfig{
		AllowedSenders: senders,
		AmountPattern:  s.AmountPattern,
		RefPattern:     s.RefPattern,
	}
}

func LoadSettings(settingsFile string) (*Settings, error) {
	var settingsPath string
	if filepath.IsAbs(settingsFile) {
		settingsPath = settingsFile
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		settingsPath = filepath.Join(wd, settingsFile)
	}

	data, err := os.ReadFile(settingsPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", settingsFile, err)
	}

	var settings Settings
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", settingsFile, err)
	}

	for i, pkg := range settings.Packages {
		if pkg.Name == "" {
			return nil, fmt.Errorf("package at index %d missing name", i)
		}
		if pkg.Coins <= 0 {
			return nil, fmt.Errorf("package at index %d needs a positive coin count", i)
		}
		if pkg.Price == "" {
			return nil, fmt.Errorf("package at index %d missing price", i)
		}
	}

	return &settings, nil
}
