// Package crisis detects crisis language in chat messages and holds the canned safety response.
package crisis

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed keywords.yml
var defaultKeywords []byte

type keywordFile struct {
	Keywords      []string `yaml:"keywords"`
	SafetyMessage string   `yaml:"safety_message"`
}

// Detector matches text against a fixed keyword list.
type Detector struct {
	keywords      []string
	safetyMessage string
}

var defaultDetector = mustDefault()

func mustDefault() *Detector {
	d, err := Parse(defaultKeywords)
	if err != nil {
		panic(fmt.Sprintf("crisis: embedded keywords: %v", err))
	}
	return d
}

// Default returns the detector built from the embedded keyword list.
func Default() *Detector {
	return defaultDetector
}

// Parse builds a Detector from a YAML document with keywords and safety_message fields.
func Parse(raw []byte) (*Detector, error) {
	var f keywordFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse keywords: %w", err)
	}

	d := &Detector{safetyMessage: strings.TrimSpace(f.SafetyMessage)}
	for _, k := range f.Keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			d.keywords = append(d.keywords, k)
		}
	}
	if len(d.keywords) == 0 {
		return nil, fmt.Errorf("parse keywords: empty keyword list")
	}
	if d.safetyMessage == "" {
		return nil, fmt.Errorf("parse keywords: empty safety message")
	}
	return d, nil
}

// Check reports whether text contains any keyword, ignoring case.
func (d *Detector) Check(text string) bool {
	lower := strings.ToLower(text)
	for _, k := range d.keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// SafetyMessage returns the response sent instead of an assistant reply.
func (d *Detector) SafetyMessage() string {
	return d.safetyMessage
}

// Keywords returns a copy of the keyword list.
func (d *Detector) Keywords() []string {
	return append([]string(nil), d.keywords...)
}

// Check runs the default detector.
func Check(text string) bool {
	return defaultDetector.Check(text)
}
