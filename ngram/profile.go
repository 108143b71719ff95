// Package ngram builds ranked character n-gram profiles and the read-only
// index that maps every n-gram to the language profiles containing it.
package ngram

import (
	"cmp"
	"io"
	"slices"
	"strings"
	"unicode"
)

const (
	AbsoluteMinLength = 1
	AbsoluteMaxLength = 4

	DefaultMinLength = 1
	DefaultMaxLength = 4

	// DefaultMaxSize is the number of top ranked n-grams a profile retains.
	DefaultMaxSize = 1000

	// Separator pads every word so that grams touching word edges are counted.
	Separator = '_'
)

const separatorString = string(Separator)

// Entry is one n-gram of a profile.
type Entry struct {
	seq       string
	size      int
	count     int
	frequency float64
	score     float64
	profile   *Profile
}

// Seq returns the n-gram itself.
func (e *Entry) Seq() string { return e.seq }

// Size returns the n-gram length in code points.
func (e *Entry) Size() int { return e.size }

// Count returns how many times the n-gram was observed.
func (e *Entry) Count() int { return e.count }

// Score returns the rank based frequency score: 1 for the top ranked entry,
// decreasing by 1/maxSize per rank.
func (e *Entry) Score() float64 { return e.score }

// Profile returns the owning profile. It is nil unless the profile was
// registered in an Index.
func (e *Entry) Profile() *Profile { return e.profile }

// Profile is a frequency table of character n-grams extracted from a text.
//
// A Profile is not safe for concurrent use while it is being analyzed.
// Profiles registered in an Index are never mutated again and may be read
// from any goroutine.
type Profile struct {
	name      string
	minLength int
	maxLength int
	maxSize   int
	ngrams    map[string]*Entry
	sorted    []*Entry
	word      []rune
}

// ClampLengths forces n-gram bounds into [AbsoluteMinLength, AbsoluteMaxLength]
// with minLength <= maxLength.
func ClampLengths(minLength, maxLength int) (int, int) {
	maxLength = min(maxLength, AbsoluteMaxLength)
	maxLength = max(maxLength, AbsoluteMinLength)
	minLength = max(minLength, AbsoluteMinLength)
	minLength = min(minLength, maxLength)
	return minLength, maxLength
}

// NewProfile creates an empty profile. Out of range lengths are clamped and a
// non-positive maxSize selects DefaultMaxSize.
func NewProfile(name string, minLength, maxLength, maxSize int) *Profile {
	minLength, maxLength = ClampLengths(minLength, maxLength)
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Profile{
		name:      name,
		minLength: minLength,
		maxLength: maxLength,
		maxSize:   maxSize,
		ngrams:    make(map[string]*Entry),
	}
}

func (p *Profile) Name() string   { return p.name }
func (p *Profile) MinLength() int { return p.minLength }
func (p *Profile) MaxLength() int { return p.maxLength }
func (p *Profile) MaxSize() int   { return p.maxSize }

// Len returns the number of retained n-grams.
func (p *Profile) Len() int { return len(p.sorted) }

// Lookup returns the retained entry for seq.
func (p *Profile) Lookup(seq string) (*Entry, bool) {
	e, ok := p.ngrams[seq]
	return e, ok
}

// Sorted returns a snapshot of the retained entries, best ranked first.
func (p *Profile) Sorted() []*Entry {
	return slices.Clone(p.sorted)
}

// Load builds the profile from a reference sample.
func (p *Profile) Load(r io.Reader) error {
	sample, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	p.Analyze(string(sample))
	return nil
}

// Analyze replaces the profile content with the n-grams of text.
//
// Letters are lower-cased, any other rune ends the current word. Every word
// is wrapped in Separator so short words still contribute their edge grams.
func (p *Profile) Analyze(text string) {
	clear(p.ngrams)
	p.sorted = p.sorted[:0]

	word := append(p.word[:0], Separator)
	for _, r := range text {
		r = unicode.ToLower(r)
		if unicode.IsLetter(r) {
			word = append(word, r)
			p.addSuffixes(word)
			continue
		}
		if len(word) > 1 {
			word = append(word, Separator)
			p.addSuffixes(word)
			word = append(word[:0], Separator)
		}
	}
	if len(word) > 1 {
		word = append(word, Separator)
		p.addSuffixes(word)
	}
	p.word = word[:0]

	p.rank()
}

// addSuffixes counts every gram that ends at the last rune of word.
func (p *Profile) addSuffixes(word []rune) {
	n := len(word)
	for size := p.minLength; size <= p.maxLength && size <= n; size++ {
		p.add(string(word[n-size:]), size)
	}
}

func (p *Profile) add(seq string, size int) {
	if seq == separatorString {
		return
	}
	e, ok := p.ngrams[seq]
	if !ok {
		e = &Entry{seq: seq, size: size}
		p.ngrams[seq] = e
	}
	e.count++
}

// rank orders the entries by their frequency relative to other grams of the
// same size, drops everything past maxSize and assigns rank scores.
func (p *Profile) rank() {
	totals := make([]int, p.maxLength+1)
	for _, e := range p.ngrams {
		totals[e.size] += e.count
	}

	sorted := p.sorted[:0]
	for _, e := range p.ngrams {
		e.frequency = float64(e.count) / float64(totals[e.size])
		sorted = append(sorted, e)
	}
	slices.SortFunc(sorted, func(a, b *Entry) int {
		if c := cmp.Compare(b.frequency, a.frequency); c != 0 {
			return c
		}
		return strings.Compare(a.seq, b.seq)
	})

	if len(sorted) > p.maxSize {
		for _, e := range sorted[p.maxSize:] {
			delete(p.ngrams, e.seq)
		}
		clear(sorted[p.maxSize:])
		sorted = sorted[:p.maxSize]
	}
	for i, e := range sorted {
		e.score = float64(p.maxSize-i) / float64(p.maxSize)
	}
	p.sorted = sorted
}
