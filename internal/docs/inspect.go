package docs

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Summary is the identifying header of an OpenAPI document.
type Summary struct {
	OpenAPI string `yaml:"openapi"`
	Info    struct {
		Title   string `yaml:"title"`
		Version string `yaml:"version"`
	} `yaml:"info"`
}

// Describe parses the header of an OpenAPI document.
func Describe(data []byte) (Summary, error) {
	var s Summary
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Summary{}, fmt.Errorf("parse openapi document: %w", err)
	}
	if s.OpenAPI == "" {
		return s, errors.New("openapi field missing")
	}
	return s, nil
}

// Inspect checks that every path holds a readable OpenAPI document and logs
// what it found.  Problems are warnings only: the routes still answer, with
// an error status, when a document is missing at request time.
func Inspect(paths ...string) {
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			slog.Warn("api document unavailable", "path", p, "error", err)
			continue
		}
		s, err := Describe(data)
		if err != nil {
			slog.Warn("api document is not a valid openapi file", "path", p, "error", err)
			continue
		}
		slog.Info("api document loaded", "path", p, "openapi", s.OpenAPI, "title", s.Info.Title, "version", s.Info.Version)
	}
}
