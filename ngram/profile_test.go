package ngram

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seqs(entries []*Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Seq()
	}
	return out
}

func TestClampLengths(t *testing.T) {
	tests := []struct {
		name             string
		minIn, maxIn     int
		minWant, maxWant int
	}{
		{name: "defaults", minIn: 1, maxIn: 4, minWant: 1, maxWant: 4},
		{name: "max too large", minIn: 2, maxIn: 9, minWant: 2, maxWant: 4},
		{name: "min too small", minIn: 0, maxIn: 3, minWant: 1, maxWant: 3},
		{name: "min above max", minIn: 4, maxIn: 2, minWant: 2, maxWant: 2},
		{name: "both negative", minIn: -3, maxIn: -1, minWant: 1, maxWant: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			minLength, maxLength := ClampLengths(tt.minIn, tt.maxIn)
			assert.Equal(t, tt.minWant, minLength)
			assert.Equal(t, tt.maxWant, maxLength)
		})
	}
}

func TestProfile_AnalyzeSingleWord(t *testing.T) {
	p := NewProfile("suspect", 1, 4, 0)
	p.Analyze("ab")

	// _ab_ is the only 4-gram; 3-grams and 1-grams share frequency 1/2,
	// ties are broken by the n-gram itself.
	want := []string{"_ab_", "_ab", "a", "ab_", "b", "_a", "ab", "b_"}
	assert.Equal(t, want, seqs(p.Sorted()))
	for _, e := range p.Sorted() {
		assert.Equal(t, 1, e.Count(), e.Seq())
		assert.Nil(t, e.Profile(), "suspect entries are never owned by an index")
	}
}

func TestProfile_AnalyzeCounts(t *testing.T) {
	p := NewProfile("suspect", 1, 4, 0)
	p.Analyze("Aa aa, AA!")

	e, ok := p.Lookup("a")
	require.True(t, ok)
	assert.Equal(t, 6, e.Count())

	e, ok = p.Lookup("_aa_")
	require.True(t, ok)
	assert.Equal(t, 3, e.Count())

	_, ok = p.Lookup("_")
	assert.False(t, ok, "a lone separator is not a gram")
	_, ok = p.Lookup("a_a")
	assert.False(t, ok, "grams never span words")
}

func TestProfile_WordBoundaries(t *testing.T) {
	p := NewProfile("suspect", 1, 4, 0)
	p.Analyze("a,b 7c")
	for _, seq := range []string{"_a_", "_b_", "_c_", "a", "b", "c"} {
		_, ok := p.Lookup(seq)
		assert.True(t, ok, seq)
	}
	_, ok := p.Lookup("7")
	assert.False(t, ok, "digits are not letters")
}

func TestProfile_EmptyText(t *testing.T) {
	for _, text := range []string{"", "   ", "\t\n", "1234 !?", "..."} {
		p := NewProfile("suspect", 1, 4, 0)
		p.Analyze(text)
		assert.Equal(t, 0, p.Len(), "text %q", text)
		assert.Empty(t, p.Sorted())
	}
}

func TestProfile_LengthBounds(t *testing.T) {
	p := NewProfile("suspect", 2, 3, 0)
	p.Analyze("hello world")
	require.NotZero(t, p.Len())
	for _, e := range p.Sorted() {
		n := utf8.RuneCountInString(e.Seq())
		assert.GreaterOrEqual(t, n, 2, e.Seq())
		assert.LessOrEqual(t, n, 3, e.Seq())
		assert.Equal(t, n, e.Size())
	}
}

func TestProfile_Cap(t *testing.T) {
	p := NewProfile("suspect", 1, 4, 3)
	p.Analyze("ab")
	assert.Equal(t, []string{"_ab_", "_ab", "a"}, seqs(p.Sorted()))

	_, ok := p.Lookup("b_")
	assert.False(t, ok, "entries past the cap are discarded")
}

func TestProfile_RankScores(t *testing.T) {
	p := NewProfile("suspect", 1, 4, 10)
	p.Analyze("ab")
	sorted := p.Sorted()
	require.Len(t, sorted, 8)
	assert.InDelta(t, 1.0, sorted[0].Score(), 1e-12)
	assert.InDelta(t, 0.9, sorted[1].Score(), 1e-12)
	assert.InDelta(t, 0.3, sorted[7].Score(), 1e-12)
}

func TestProfile_ScoreIgnoresSampleSize(t *testing.T) {
	short := NewProfile("short", 1, 4, 0)
	short.Analyze("ab")
	long := NewProfile("long", 1, 4, 0)
	long.Analyze(strings.Repeat("ab ", 500))

	assert.Equal(t, seqs(short.Sorted()), seqs(long.Sorted()))
	for i, e := range long.Sorted() {
		assert.Equal(t, short.Sorted()[i].Score(), e.Score())
	}
}

func TestProfile_AnalyzeOverwrites(t *testing.T) {
	p := NewProfile("suspect", 1, 4, 0)
	p.Analyze("xyz")
	snapshot := p.Sorted()

	p.Analyze("ab")
	_, ok := p.Lookup("x")
	assert.False(t, ok, "previous grams must not leak")

	fresh := NewProfile("suspect", 1, 4, 0)
	fresh.Analyze("ab")
	assert.Equal(t, seqs(fresh.Sorted()), seqs(p.Sorted()))
	assert.Equal(t, "_xyz", snapshot[0].Seq(), "snapshots are not live views")
}

func TestProfile_Load(t *testing.T) {
	p := NewProfile("en", 1, 4, 0)
	require.NoError(t, p.Load(strings.NewReader("the cat")))
	_, ok := p.Lookup("_the_")
	assert.True(t, ok)
}

func TestProfile_Properties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("grams respect bounds and cap", prop.ForAll(
		func(text string, minLength, maxLength, maxSize int) bool {
			p := NewProfile("suspect", minLength, maxLength, maxSize)
			p.Analyze(text)
			if p.Len() > p.MaxSize() {
				return false
			}
			for _, e := range p.Sorted() {
				n := utf8.RuneCountInString(e.Seq())
				if n < p.MinLength() || n > p.MaxLength() || e.Count() < 1 {
					return false
				}
			}
			return true
		},
		gen.AnyString(),
		gen.IntRange(0, 5),
		gen.IntRange(0, 5),
		gen.IntRange(1, 50),
	))

	properties.Property("scores strictly decrease with rank", prop.ForAll(
		func(text string) bool {
			p := NewProfile("suspect", 1, 4, 0)
			p.Analyze(text)
			sorted := p.Sorted()
			for i := 1; i < len(sorted); i++ {
				if sorted[i].Score() >= sorted[i-1].Score() {
					return false
				}
			}
			return true
		},
		gen.AlphaString(),
	))

	properties.Property("analysis is deterministic", prop.ForAll(
		func(text string) bool {
			a := NewProfile("a", 1, 4, 0)
			a.Analyze(text)
			b := NewProfile("b", 1, 4, 0)
			b.Analyze("warm up " + text)
			b.Analyze(text)
			sa, sb := seqs(a.Sorted()), seqs(b.Sorted())
			if len(sa) != len(sb) {
				return false
			}
			for i := range sa {
				if sa[i] != sb[i] {
					return false
				}
			}
			return true
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}

func BenchmarkProfile_Analyze(b *testing.B) {
	p := NewProfile("suspect", 1, 4, 0)
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 40)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p.Analyze(text)
	}
}
