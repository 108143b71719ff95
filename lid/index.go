package lid

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tsingjyujing/langid/ngram"
)

// ErrNoLanguages is returned when not a single language sample could be loaded.
var ErrNoLanguages = errors.New("no language profile could be loaded")

// SampleSource provides the reference sample of a language.
type SampleSource interface {
	Sample(ctx context.Context, code string) (io.ReadCloser, error)
}

// IndexOptions configures LoadIndex.
type IndexOptions struct {
	MinLength int
	MaxLength int
	MaxSize   int
	Normalize NormalizeFunc
}

// LoadIndex builds the shared index from the samples of codes, in order.
// Languages whose sample is missing or unreadable are logged and skipped.
func LoadIndex(ctx context.Context, codes []string, src SampleSource, opts IndexOptions) (*ngram.Index, error) {
	builder := ngram.NewBuilder(opts.MinLength, opts.MaxLength, opts.MaxSize)
	loaded := make([]string, 0, len(codes))
	for _, code := range codes {
		profile, err := loadProfile(ctx, builder, code, src, opts.Normalize)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.WithError(err).WithField("language", code).Error("Skipping language profile")
			continue
		}
		loaded = append(loaded, fmt.Sprintf("%s(%d)", code, profile.Len()))
	}
	idx := builder.Build()
	if len(loaded) == 0 {
		return nil, ErrNoLanguages
	}
	logger.Infof("Language identifier configuration [%d-%d/%d]", idx.MinLength(), idx.MaxLength(), idx.MaxSize())
	logger.Infof("Language identifier supports: %s", strings.Join(loaded, " "))
	return idx, nil
}

func loadProfile(ctx context.Context, builder *ngram.Builder, code string, src SampleSource, normalize NormalizeFunc) (*ngram.Profile, error) {
	rc, err := src.Sample(ctx, code)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rc.Close(); err != nil {
			logger.WithError(err).WithField("language", code).Warn("Failed to close language sample")
		}
	}()
	if normalize == nil {
		return builder.Load(code, rc)
	}
	sample, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read sample for %q: %w", code, err)
	}
	return builder.Load(code, strings.NewReader(normalize(string(sample))))
}
