package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/geonsonatt/recall/highlight"
	"github.com/geonsonatt/recall/pdfimport"
)

// importConfig is the optional YAML sidecar for an import run.
//
//	documentId: dune-part-two
//	ignoreBefore: 2024-01-01T00:00:00Z
//	colors:
//	  "#ffd400": yellow
//	  "#e5484d": red
type importConfig struct {
	DocumentID   string            `yaml:"documentId"`
	IgnoreBefore time.Time         `yaml:"ignoreBefore"`
	Colors       map[string]string `yaml:"colors"`
}

func loadConfig(path string) (*importConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &importConfig{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, nil
}

// apply overlays config values onto options, leaving flag-provided values in
// place.
func (cfg *importConfig) apply(opts *pdfimport.Options) {
	if opts.DocumentID == "" {
		opts.DocumentID = cfg.DocumentID
	}
	if opts.IgnoreBefore.IsZero() {
		opts.IgnoreBefore = cfg.IgnoreBefore
	}

	if len(cfg.Colors) > 0 {
		opts.Colors = map[string]highlight.Color{}
		for hex, name := range cfg.Colors {
			opts.Colors[hex] = highlight.Color(name)
		}
	}
}
