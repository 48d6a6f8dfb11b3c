package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// KeywordsFile is a separately maintained list of search keywords and extra
// lexicon terms.
type KeywordsFile struct {
	Keywords []string `yaml:"keywords"`
	Terms    []string `yaml:"terms"`
}

// OverlayKeywords replaces cfg.Keywords and appends to cfg.Lexicon.Extra
// from the file at path. Empty lists leave cfg alone.
func OverlayKeywords(cfg *Config, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		// a missing keywords file should not stop a run
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var kf KeywordsFile
	if err := yaml.Unmarshal(b, &kf); err != nil {
		return err
	}

	if len(kf.Keywords) > 0 {
		cfg.Keywords = kf.Keywords
	}
	if len(kf.Terms) > 0 {
		cfg.Lexicon.Extra = append(cfg.Lexicon.Extra, kf.Terms...)
	}
	return nil
}
