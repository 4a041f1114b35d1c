package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/domdiff/calibrate"
)

// SaveSettings writes calibration settings to a file. The format follows
// the extension: .json (the canonical interchange shape) or .yaml/.yml.
func SaveSettings(path string, s *calibrate.Settings) error {
	var data []byte
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(s)
	case ".json":
		data, err = json.MarshalIndent(s, "", "  ")
	default:
		return fmt.Errorf("config: unsupported settings format %q", filepath.Ext(path))
	}
	if err != nil {
		return fmt.Errorf("config: encode settings: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadSettings reads calibration settings written by SaveSettings.
func LoadSettings(path string) (*calibrate.Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var s calibrate.Settings
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &s)
	case ".json":
		err = json.Unmarshal(data, &s)
	default:
		return nil, fmt.Errorf("config: unsupported settings format %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("config: decode settings %s: %w", path, err)
	}
	return &s, nil
}
