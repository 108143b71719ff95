package text

import (
	"strings"

	"github.com/longbridgeapp/opencc"
	"golang.org/x/text/unicode/norm"
)

type Normalizer interface {
	Normalize(text string) (string, error)
}

// UnicodeNormalizer folds text before it is profiled:
// 1. Unicode NFKC normalization (full width forms, ligatures, ...)
// 2. optionally Traditional Chinese -> Simplified Chinese
// 3. lower-casing
type UnicodeNormalizer struct {
	t2s *opencc.OpenCC
}

func NewUnicodeNormalizer(useT2s bool) (*UnicodeNormalizer, error) {
	n := &UnicodeNormalizer{}
	if useT2s {
		t2s, err := opencc.New("t2s")
		if err != nil {
			return nil, err
		}
		n.t2s = t2s
	}
	return n, nil
}

func (n *UnicodeNormalizer) Normalize(text string) (string, error) {
	s := norm.NFKC.String(text)
	if n.t2s != nil {
		var err error
		s, err = n.t2s.Convert(s)
		if err != nil {
			return "", err
		}
	}
	return strings.ToLower(s), nil
}

// Func adapts n to a plain string function. When n fails the NFKC form of the
// input is used instead.
func Func(n Normalizer) func(string) string {
	return func(text string) string {
		s, err := n.Normalize(text)
		if err != nil {
			logger.WithError(err).Warn("Failed to normalize text")
			return norm.NFKC.String(text)
		}
		return s
	}
}
