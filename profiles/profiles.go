// Package profiles provides the reference text samples language profiles are
// built from, and the table of candidate languages.
package profiles

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"sync"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

//go:embed data/*.txt
var samples embed.FS

//go:embed langmappings.yaml
var mappingsYAML []byte

// ErrSampleNotFound is returned (wrapped) when a source has no sample for a language.
var ErrSampleNotFound = errors.New("language sample not found")

// Mapping is one entry of the candidate language table.
type Mapping struct {
	Code string `yaml:"code" json:"code"`
	Name string `yaml:"name" json:"name"`
}

var loadMappings = sync.OnceValues(func() ([]Mapping, error) {
	var doc struct {
		Languages []Mapping `yaml:"languages"`
	}
	if err := yaml.Unmarshal(mappingsYAML, &doc); err != nil {
		return nil, fmt.Errorf("parse language mappings: %w", err)
	}
	return doc.Languages, nil
})

// Mappings returns the candidate languages in registration order.
func Mappings() ([]Mapping, error) {
	mappings, err := loadMappings()
	if err != nil {
		return nil, err
	}
	return append([]Mapping(nil), mappings...), nil
}

// Codes returns the candidate language codes in registration order.
func Codes() ([]string, error) {
	mappings, err := Mappings()
	if err != nil {
		return nil, err
	}
	return lo.Map(mappings, func(m Mapping, _ int) string { return m.Code }), nil
}

// Source provides reference samples by language code.
type Source interface {
	Sample(ctx context.Context, code string) (io.ReadCloser, error)
}

// EmbedSource serves the samples compiled into the binary.
type EmbedSource struct{}

func (EmbedSource) Sample(_ context.Context, code string) (io.ReadCloser, error) {
	f, err := samples.Open("data/" + code + ".txt")
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrSampleNotFound, code)
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

// ChainSource asks each source in turn and returns the first sample found.
type ChainSource []Source

func (c ChainSource) Sample(ctx context.Context, code string) (io.ReadCloser, error) {
	for _, src := range c {
		rc, err := src.Sample(ctx, code)
		if err == nil {
			return rc, nil
		}
		if !errors.Is(err, ErrSampleNotFound) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrSampleNotFound, code)
}
