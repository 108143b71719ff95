package ngram

import (
	"fmt"
	"io"
)

// Index maps an n-gram to the entries of every registered language profile
// that retains it. An Index is immutable once built and safe for concurrent
// reads.
type Index struct {
	minLength int
	maxLength int
	maxSize   int
	profiles  []*Profile
	byName    map[string]*Profile
	ngrams    map[string][]*Entry
}

// Lookup returns the entries matching seq, in profile registration order.
// The returned slice must not be modified.
func (idx *Index) Lookup(seq string) []*Entry {
	return idx.ngrams[seq]
}

// Profile returns the registered profile for a language code.
func (idx *Index) Profile(name string) (*Profile, bool) {
	p, ok := idx.byName[name]
	return p, ok
}

// Languages returns the registered language codes in registration order.
func (idx *Index) Languages() []string {
	names := make([]string, len(idx.profiles))
	for i, p := range idx.profiles {
		names[i] = p.name
	}
	return names
}

// Len returns the number of distinct indexed n-grams.
func (idx *Index) Len() int { return len(idx.ngrams) }

func (idx *Index) MinLength() int { return idx.minLength }
func (idx *Index) MaxLength() int { return idx.maxLength }
func (idx *Index) MaxSize() int   { return idx.maxSize }

// Builder accumulates language profiles before freezing them into an Index.
// A Builder must not be used after Build.
type Builder struct {
	minLength int
	maxLength int
	maxSize   int
	profiles  []*Profile
	byName    map[string]*Profile
	lists     map[string][]*Entry
}

// NewBuilder creates a builder for profiles of the given bounds. Zero values
// select DefaultMinLength, DefaultMaxLength and DefaultMaxSize, other out of
// range lengths are clamped.
func NewBuilder(minLength, maxLength, maxSize int) *Builder {
	if minLength == 0 {
		minLength = DefaultMinLength
	}
	if maxLength == 0 {
		maxLength = DefaultMaxLength
	}
	minLength, maxLength = ClampLengths(minLength, maxLength)
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Builder{
		minLength: minLength,
		maxLength: maxLength,
		maxSize:   maxSize,
		byName:    make(map[string]*Profile),
		lists:     make(map[string][]*Entry),
	}
}

// NewProfile returns an empty profile using the builder's bounds.
func (b *Builder) NewProfile(name string) *Profile {
	return NewProfile(name, b.minLength, b.maxLength, b.maxSize)
}

// Load reads a reference sample for a language and registers its profile.
func (b *Builder) Load(name string, sample io.Reader) (*Profile, error) {
	if _, ok := b.byName[name]; ok {
		return nil, fmt.Errorf("language %q already registered", name)
	}
	p := b.NewProfile(name)
	if err := p.Load(sample); err != nil {
		return nil, fmt.Errorf("load sample for %q: %w", name, err)
	}
	if err := b.Add(p); err != nil {
		return nil, err
	}
	return p, nil
}

// Add registers an already analyzed profile. The profile must not be
// modified afterwards.
func (b *Builder) Add(p *Profile) error {
	if _, ok := b.byName[p.name]; ok {
		return fmt.Errorf("language %q already registered", p.name)
	}
	if p.minLength != b.minLength || p.maxLength != b.maxLength || p.maxSize != b.maxSize {
		return fmt.Errorf("profile %q bounds [%d-%d/%d] differ from index [%d-%d/%d]",
			p.name, p.minLength, p.maxLength, p.maxSize, b.minLength, b.maxLength, b.maxSize)
	}
	b.byName[p.name] = p
	b.profiles = append(b.profiles, p)
	for _, e := range p.sorted {
		e.profile = p
		b.lists[e.seq] = append(b.lists[e.seq], e)
	}
	return nil
}

// Build freezes the registered profiles into an Index.
func (b *Builder) Build() *Index {
	ngrams := make(map[string][]*Entry, len(b.lists))
	for seq, list := range b.lists {
		frozen := make([]*Entry, len(list))
		copy(frozen, list)
		ngrams[seq] = frozen
	}
	idx := &Index{
		minLength: b.minLength,
		maxLength: b.maxLength,
		maxSize:   b.maxSize,
		profiles:  b.profiles,
		byName:    b.byName,
		ngrams:    ngrams,
	}
	b.lists = nil
	b.profiles = nil
	b.byName = nil
	return idx
}
