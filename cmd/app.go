package cmd

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/lo"
	"github.com/tsingjyujing/langid/charset"
	"github.com/tsingjyujing/langid/config"
	"github.com/tsingjyujing/langid/controller"
	"github.com/tsingjyujing/langid/lid"
	"github.com/tsingjyujing/langid/profiles"
	"github.com/tsingjyujing/langid/text"
	_ "modernc.org/sqlite"
)

// app holds what the commands need to answer requests.
type app struct {
	controller *controller.Controller
	pool       *lid.Pool // nil unless the ngram backend is selected
	languages  []string
	db         *sql.DB
}

func (r *app) Close() {
	if err := r.controller.Close(); err != nil {
		logger.WithError(err).Error("Failed to close controller")
	}
	if r.db != nil {
		if err := r.db.Close(); err != nil {
			logger.WithError(err).Error("Failed to close database")
		}
	}
}

// candidateCodes returns the configured subset of the language table, in
// table order.
func candidateCodes(cfg *config.Identifier) ([]string, error) {
	codes, err := profiles.Codes()
	if err != nil {
		return nil, err
	}
	if len(cfg.Languages) == 0 {
		return codes, nil
	}
	selected := lo.Filter(codes, func(code string, _ int) bool {
		return lo.Contains(cfg.Languages, code)
	})
	if unknown, _ := lo.Difference(cfg.Languages, codes); len(unknown) > 0 {
		logger.WithField("languages", unknown).Warn("Ignoring unknown languages")
	}
	return selected, nil
}

func openSampleSource(ctx context.Context, cfg *config.Identifier) (profiles.Source, *sql.DB, error) {
	if cfg.SamplesDB == "" {
		return profiles.EmbedSource{}, nil, nil
	}
	db, err := sql.Open("sqlite", cfg.SamplesDB)
	if err != nil {
		return nil, nil, fmt.Errorf("open samples database: %w", err)
	}
	source, err := profiles.NewSQLSource(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	// stored samples take precedence over the embedded ones
	return profiles.ChainSource{source, profiles.EmbedSource{}}, db, nil
}

// newApp wires the configured identifier backend and the encoding
// resolver. reg may be nil to skip metrics.
func newApp(ctx context.Context, cfg *config.Envelope, reg prometheus.Registerer) (*app, error) {
	codes, err := candidateCodes(&cfg.Identifier)
	if err != nil {
		return nil, err
	}

	var lidMetrics *lid.Metrics
	var charsetMetrics *charset.Metrics
	if reg != nil {
		lidMetrics = lid.NewMetrics(reg)
		charsetMetrics = charset.NewMetrics(reg)
	}

	rt := &app{}
	var identifier controller.LanguageIdentifier
	switch cfg.Identifier.Backend {
	case config.BackendLingua:
		lingua, err := text.NewLinguaIdentifier(codes)
		if err != nil {
			return nil, err
		}
		identifier, rt.languages = lingua, codes
	case config.BackendWhatlang:
		identifier, rt.languages = text.WhatlangIdentifier{}, codes
	default:
		var normalize lid.NormalizeFunc
		if cfg.Identifier.Normalize {
			normalizer, err := text.NewUnicodeNormalizer(cfg.Identifier.T2S)
			if err != nil {
				return nil, err
			}
			normalize = text.Func(normalizer)
		}
		source, db, err := openSampleSource(ctx, &cfg.Identifier)
		if err != nil {
			return nil, err
		}
		rt.db = db
		index, err := lid.LoadIndex(ctx, codes, source, lid.IndexOptions{
			MinLength: cfg.Identifier.MinNGram,
			MaxLength: cfg.Identifier.MaxNGram,
			MaxSize:   cfg.Identifier.MaxProfileSize,
			Normalize: normalize,
		})
		if err != nil {
			if db != nil {
				_ = db.Close()
			}
			return nil, err
		}
		rt.pool = lid.NewPool(index, lid.PoolConfig{
			Size:          cfg.Identifier.PoolSize,
			BorrowTimeout: cfg.Identifier.BorrowTimeout,
			Engine: lid.Options{
				AnalyzeLength: cfg.Identifier.AnalyzeLength,
				Normalize:     normalize,
			},
			Metrics: lidMetrics,
		})
		identifier, rt.languages = rt.pool, index.Languages()
	}
	logger.Infof("Using %s language identifier", cfg.Identifier.Backend)

	var detector *charset.ChardetDetector
	if cfg.Encoding.HTML {
		detector = charset.NewChardetHTMLDetector()
	} else {
		detector = charset.NewChardetDetector()
	}
	resolver := charset.NewResolver(detector, charset.Options{
		MinConfidence: cfg.Encoding.MinConfidence,
		Metrics:       charsetMetrics,
	})

	rt.controller = controller.NewController(identifier, resolver, controller.Options{
		Languages:          rt.languages,
		ShortTextThreshold: cfg.Identifier.ShortTextThreshold,
		DefaultEncoding:    cfg.Encoding.Default,
	})
	return rt, nil
}
