package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	BackendNGram    = "ngram"
	BackendLingua   = "lingua"
	BackendWhatlang = "whatlang"
)

var backends = []string{BackendNGram, BackendLingua, BackendWhatlang}

type Envelope struct {
	Server     Server     `yaml:"server"`
	Log        Log        `yaml:"log"`
	Identifier Identifier `yaml:"identifier"`
	Encoding   Encoding   `yaml:"encoding"`
}

type Server struct {
	Address string   `yaml:"address"`
	Tokens  []string `yaml:"tokens"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Identifier struct {
	Backend        string        `yaml:"backend"`
	MinNGram       int           `yaml:"min_ngram"`
	MaxNGram       int           `yaml:"max_ngram"`
	MaxProfileSize int           `yaml:"max_profile_size"`
	AnalyzeLength  int           `yaml:"analyze_length"`
	PoolSize       int           `yaml:"pool_size"`
	BorrowTimeout  time.Duration `yaml:"borrow_timeout"`
	Normalize      bool          `yaml:"normalize"`
	T2S            bool          `yaml:"t2s"`
	// Languages restricts the candidate languages, empty means all of them.
	Languages []string `yaml:"languages"`
	// SamplesDB is an optional sqlite file whose samples override the embedded ones.
	SamplesDB string `yaml:"samples_db"`
	// ShortTextThreshold answers "en" for shorter contents, 0 disables it.
	ShortTextThreshold int `yaml:"short_text_threshold"`
}

type Encoding struct {
	Default       string `yaml:"default"`
	MinConfidence int    `yaml:"min_confidence"`
	HTML          bool   `yaml:"html"`
}

func Default() *Envelope {
	return &Envelope{
		Server: Server{Address: ":8080"},
		Log:    Log{Level: "info", Format: "text"},
		Identifier: Identifier{
			Backend:        BackendNGram,
			MinNGram:       1,
			MaxNGram:       4,
			MaxProfileSize: 1000,
			BorrowTimeout:  5 * time.Second,
			Normalize:      true,
		},
		Encoding: Encoding{
			Default:       "utf-8",
			MinConfidence: 50,
		},
	}
}

// LoadConfigFromFile decodes path on top of Default and validates the result.
func LoadConfigFromFile(path string) (*Envelope, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	envelope := Default()
	if err := yaml.Unmarshal(data, envelope); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := envelope.Validate(); err != nil {
		return nil, err
	}
	return envelope, nil
}

// Validate clamps the n-gram bounds into [1,4] and rejects unknown values.
func (e *Envelope) Validate() error {
	id := &e.Identifier
	id.Backend = strings.ToLower(strings.TrimSpace(id.Backend))
	if id.Backend == "" {
		id.Backend = BackendNGram
	}
	if !lo.Contains(backends, id.Backend) {
		return fmt.Errorf("unknown identifier backend %q, expecting one of %v", id.Backend, backends)
	}
	id.MinNGram = lo.Clamp(id.MinNGram, 1, 4)
	id.MaxNGram = lo.Clamp(id.MaxNGram, 1, 4)
	if id.MinNGram > id.MaxNGram {
		id.MinNGram, id.MaxNGram = id.MaxNGram, id.MinNGram
	}
	if id.AnalyzeLength < 0 {
		return fmt.Errorf("analyze_length must not be negative, got %d", id.AnalyzeLength)
	}
	if id.BorrowTimeout < 0 {
		return fmt.Errorf("borrow_timeout must not be negative, got %s", id.BorrowTimeout)
	}
	if id.ShortTextThreshold < 0 {
		id.ShortTextThreshold = 0
	}
	if len(id.Languages) > 0 {
		id.Languages = lo.Uniq(lo.Map(id.Languages, func(code string, _ int) string {
			return strings.ToLower(strings.TrimSpace(code))
		}))
	}
	if e.Encoding.MinConfidence > 100 {
		return fmt.Errorf("encoding min_confidence must be at most 100, got %d", e.Encoding.MinConfidence)
	}
	return nil
}

// ApplyOverrides copies the values set through the environment (LANGID_*)
// or flags bound to v.
func (e *Envelope) ApplyOverrides(v *viper.Viper) {
	if v.IsSet("server.address") {
		e.Server.Address = v.GetString("server.address")
	}
	if v.IsSet("server.tokens") {
		e.Server.Tokens = v.GetStringSlice("server.tokens")
	}
	if v.IsSet("log.level") {
		e.Log.Level = v.GetString("log.level")
	}
	if v.IsSet("identifier.backend") {
		e.Identifier.Backend = v.GetString("identifier.backend")
	}
	if v.IsSet("identifier.pool_size") {
		e.Identifier.PoolSize = v.GetInt("identifier.pool_size")
	}
	if v.IsSet("identifier.samples_db") {
		e.Identifier.SamplesDB = v.GetString("identifier.samples_db")
	}
	if v.IsSet("encoding.default") {
		e.Encoding.Default = v.GetString("encoding.default")
	}
}
