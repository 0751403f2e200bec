package collab

import (
	"bytes"
	"context"
)

// PatternKeywordDetector scans a payload for literal keyword byte patterns.
// It is a deliberately naive stand-in for a real recognition service; results
// are advisory only.
type PatternKeywordDetector struct {
	keywords []string
}

var _ KeywordDetector = (*PatternKeywordDetector)(nil)

// DefaultKeywords are the patterns scanned for when none are configured.
var DefaultKeywords = []string{"hello", "stop", "start", "bye"}

// NewPatternKeywordDetector creates a detector for the given keywords, or
// DefaultKeywords when the list is empty.
func NewPatternKeywordDetector(keywords []string) *PatternKeywordDetector {
	if len(keywords) == 0 {
		keywords = DefaultKeywords
	}
	return &PatternKeywordDetector{keywords: keywords}
}

// Detect returns the first keyword whose bytes appear in the payload, or "".
func (d *PatternKeywordDetector) Detect(audio []byte) string {
	for _, kw := range d.keywords {
		if bytes.Contains(audio, []byte(kw)) {
			return kw
		}
	}
	return ""
}

// NopTranscriber recognizes nothing. Used when no speech-to-text service is
// configured.
type NopTranscriber struct{}

var _ Transcriber = NopTranscriber{}

func (NopTranscriber) Transcribe(_ context.Context, _ []byte) (string, error) {
	return "", nil
}
