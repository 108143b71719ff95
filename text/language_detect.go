// Package text normalizes texts before they are profiled, and provides the
// alternative identification backends built on lingua-go and whatlanggo.
// Both return ISO 639-1 codes like the n-gram engine.
package text

import (
	"context"
	"fmt"
	"strings"

	wlg "github.com/abadojack/whatlanggo"
	"github.com/pemistahl/lingua-go"
	"github.com/sirupsen/logrus"
)

var logger = logrus.StandardLogger()

// LinguaIdentifier detects languages with lingua restricted to a set of codes.
type LinguaIdentifier struct {
	detector lingua.LanguageDetector
}

// NewLinguaIdentifier builds a detector for the given ISO 639-1 codes.
// Unknown codes are skipped; at least two known codes are required.
func NewLinguaIdentifier(codes []string) (*LinguaIdentifier, error) {
	languages := make([]lingua.Language, 0, len(codes))
	for _, code := range codes {
		lang := lingua.GetLanguageFromIsoCode639_1(lingua.GetIsoCode639_1FromValue(strings.ToUpper(code)))
		if lang == lingua.Unknown {
			logger.WithField("language", code).Warn("Language not supported by lingua, skipping")
			continue
		}
		languages = append(languages, lang)
	}
	if len(languages) < 2 {
		return nil, fmt.Errorf("lingua needs at least 2 languages, got %d", len(languages))
	}
	detector := lingua.NewLanguageDetectorBuilder().
		FromLanguages(languages...).
		Build()
	return &LinguaIdentifier{detector: detector}, nil
}

// Identify returns the ISO 639-1 code of text, or "" when undetectable.
func (d *LinguaIdentifier) Identify(_ context.Context, text string) (string, error) {
	if text == "" {
		return "", nil
	}
	lang, exists := d.detector.DetectLanguageOf(text)
	if !exists {
		return "", nil
	}
	return strings.ToLower(lang.IsoCode639_1().String()), nil
}

// WhatlangIdentifier detects languages with whatlanggo. Unreliable
// detections are reported as "".
type WhatlangIdentifier struct{}

func (WhatlangIdentifier) Identify(_ context.Context, text string) (string, error) {
	if text == "" {
		return "", nil
	}
	info := wlg.Detect(text)
	if !info.IsReliable() {
		return "", nil
	}
	return info.Lang.Iso6391(), nil
}
