package charset

import (
	"errors"

	"github.com/gogs/chardet"
)

// Match is one candidate encoding proposed by a Detector.
type Match struct {
	Name       string
	Confidence int // 0-100
}

// Detector proposes candidate encodings for raw bytes, best first.
type Detector interface {
	DetectAll(data []byte) ([]Match, error)
}

// ChardetDetector is the ICU derived statistical detector.
type ChardetDetector struct {
	detector *chardet.Detector
}

func NewChardetDetector() *ChardetDetector {
	return &ChardetDetector{detector: chardet.NewTextDetector()}
}

// NewChardetHTMLDetector ignores markup while detecting.
func NewChardetHTMLDetector() *ChardetDetector {
	return &ChardetDetector{detector: chardet.NewHtmlDetector()}
}

func (d *ChardetDetector) DetectAll(data []byte) ([]Match, error) {
	results, err := d.detector.DetectAll(data)
	if errors.Is(err, chardet.NotDetectedError) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	matches := make([]Match, len(results))
	for i, r := range results {
		matches[i] = Match{Name: r.Charset, Confidence: r.Confidence}
	}
	return matches, nil
}
