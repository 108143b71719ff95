// Package charset guesses the character encoding of raw bytes from the clues
// of a statistical detector, an alias table and a confidence policy.
package charset

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

var logger = logrus.StandardLogger()

const (
	// NoThreshold disables the confidence threshold, and marks clues
	// without a confidence value.
	NoThreshold = -1

	// detectors misbehave on tiny inputs, so at least this many bytes are required
	minDetectLength = 5

	DefaultFallback = "utf-8"

	SourceDetect  = "detect"
	SourceDefault = "default"
)

// Clue is a candidate encoding collected while guessing.
type Clue struct {
	Value      string
	Source     string
	Confidence int
}

func (c Clue) String() string {
	if c.Confidence >= 0 {
		return fmt.Sprintf("%s (%s, %d%% confidence)", c.Value, c.Source, c.Confidence)
	}
	return fmt.Sprintf("%s (%s)", c.Value, c.Source)
}

// Options configures a Resolver.
type Options struct {
	// MinConfidence is the threshold a detected clue must reach, NoThreshold
	// (or any negative value) disables thresholding.
	MinConfidence int
	// Fallback is returned when neither a clue nor a default is available.
	Fallback string
	Metrics  *Metrics
}

// Resolver picks an encoding among detector clues. It is safe for concurrent
// use as long as its Detector is.
type Resolver struct {
	detector      Detector
	minConfidence int
	fallback      string
	metrics       *Metrics
}

func NewResolver(detector Detector, opts Options) *Resolver {
	fallback := strings.ToLower(strings.TrimSpace(opts.Fallback))
	if fallback == "" {
		fallback = DefaultFallback
	}
	minConfidence := opts.MinConfidence
	if minConfidence < 0 {
		minConfidence = NoThreshold
	}
	return &Resolver{
		detector:      detector,
		minConfidence: minConfidence,
		fallback:      fallback,
		metrics:       opts.Metrics,
	}
}

// GuessEncoding returns the lower-case name of the encoding of data.
//
// With a threshold the first clue, in detector order, reaching it wins.
// Otherwise the default encoding is used; only when no default is given does
// the first clue win as a best try. The result is never empty.
func (r *Resolver) GuessEncoding(data []byte, defaultEncoding string) string {
	clues := r.Clues(data)
	clue := r.choose(clues, defaultEncoding)
	r.metrics.guessed(clue.Source)
	logger.WithField("clues", len(clues)).Debugf("Guessed encoding %s", clue)
	return clue.Value
}

// Clues runs the detector and returns the recognized candidates, in detector
// order. Detector failures are logged and yield no clues.
func (r *Resolver) Clues(data []byte) []Clue {
	if r.detector == nil || len(data) < minDetectLength {
		return nil
	}
	matches, err := r.detect(data)
	if err != nil {
		r.metrics.detectorFailed()
		logger.WithError(err).Error("Encoding detector failed (ignoring)")
		return nil
	}
	clues := make([]Clue, 0, len(matches))
	for _, m := range matches {
		name, ok := Resolve(m.Name)
		if !ok {
			logger.WithField("encoding", m.Name).Debug("Dropping unsupported encoding clue")
			continue
		}
		clues = append(clues, Clue{Value: strings.ToLower(name), Source: SourceDetect, Confidence: m.Confidence})
	}
	return clues
}

func (r *Resolver) detect(data []byte) (matches []Match, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("detector panic: %v", p)
		}
	}()
	return r.detector.DetectAll(data)
}

func (r *Resolver) choose(clues []Clue, defaultEncoding string) Clue {
	if r.minConfidence >= 0 {
		for _, clue := range clues {
			if clue.Confidence >= r.minConfidence {
				return clue
			}
		}
	}
	if def := normalizeDefault(defaultEncoding); def != "" {
		return Clue{Value: def, Source: SourceDefault, Confidence: NoThreshold}
	}
	if len(clues) > 0 {
		return clues[0]
	}
	return Clue{Value: r.fallback, Source: SourceDefault, Confidence: NoThreshold}
}

// normalizeDefault resolves a caller supplied encoding. Unknown names are
// kept as given, lower-cased.
func normalizeDefault(name string) string {
	if resolved, ok := Resolve(name); ok {
		return strings.ToLower(resolved)
	}
	return strings.ToLower(strings.TrimSpace(name))
}
