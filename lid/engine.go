// Package lid identifies the natural language of a text by scoring its
// n-gram profile against the shared per-language index.
package lid

import (
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"github.com/tsingjyujing/langid/ngram"
)

var logger = logrus.StandardLogger()

// SuspectName is the profile name of the text under analysis.
const SuspectName = "suspect"

// NormalizeFunc rewrites text before profiling. It must be applied to the
// reference samples and the analyzed text alike.
type NormalizeFunc func(string) string

// Options configures an Engine.
type Options struct {
	// AnalyzeLength caps the number of runes analyzed, 0 means unbounded.
	AnalyzeLength int
	Normalize     NormalizeFunc
}

// Score is the accumulated score of one language.
type Score struct {
	Language string  `json:"language"`
	Score    float64 `json:"score"`
}

// Engine scores texts against an Index.
//
// An Engine reuses its suspect profile across calls and is not safe for
// concurrent use. Share engines through a Pool or give each goroutine its own.
type Engine struct {
	index         *ngram.Index
	suspect       *ngram.Profile
	analyzeLength int
	normalize     NormalizeFunc

	slots  map[*ngram.Profile]int
	totals []Score

	owner    *Pool
	borrowed atomic.Bool
}

func NewEngine(index *ngram.Index, opts Options) *Engine {
	return &Engine{
		index:         index,
		suspect:       ngram.NewProfile(SuspectName, index.MinLength(), index.MaxLength(), index.MaxSize()),
		analyzeLength: max(opts.AnalyzeLength, 0),
		normalize:     opts.Normalize,
		slots:         make(map[*ngram.Profile]int),
	}
}

// Identify returns the code of the best matching language, or "" when no
// n-gram of text is known to any indexed language.
func (e *Engine) Identify(text string) string {
	leader := e.score(text)
	if leader == nil {
		return ""
	}
	return leader.Name()
}

// Scores returns the accumulated score of every language that matched at
// least one n-gram, in order of first contact.
func (e *Engine) Scores(text string) []Score {
	e.score(text)
	out := make([]Score, len(e.totals))
	copy(out, e.totals)
	return out
}

// score analyzes text into the suspect profile and accumulates per language
// totals. The first language to reach the highest total stays the leader.
func (e *Engine) score(text string) *ngram.Profile {
	text = Truncate(text, e.analyzeLength)
	if e.normalize != nil {
		text = e.normalize(text)
	}
	e.suspect.Analyze(text)

	clear(e.slots)
	e.totals = e.totals[:0]

	var leader *ngram.Profile
	top := 0.0
	for _, searched := range e.suspect.Sorted() {
		for _, match := range e.index.Lookup(searched.Seq()) {
			profile := match.Profile()
			slot, ok := e.slots[profile]
			if !ok {
				slot = len(e.totals)
				e.slots[profile] = slot
				e.totals = append(e.totals, Score{Language: profile.Name()})
			}
			e.totals[slot].Score += match.Score() + searched.Score()
			if e.totals[slot].Score > top {
				top = e.totals[slot].Score
				leader = profile
			}
		}
	}
	return leader
}

// Truncate returns at most n runes of text. n <= 0 leaves text unchanged.
func Truncate(text string, n int) string {
	if n <= 0 || len(text) <= n {
		return text
	}
	count := 0
	for i := range text {
		if count == n {
			return text[:i]
		}
		count++
	}
	return text
}
