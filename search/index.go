// Package search is an in-memory full-text index over site content.
//
// Indexes are built once per content load and never updated in place; a
// reload builds a fresh Engine.
package search

import (
	"sort"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Tokenize controls which terms are generated for each indexed word.
type Tokenize int

const (
	// Strict indexes whole words only.
	Strict Tokenize = iota
	// Forward indexes every prefix of a word.
	Forward
	// Reverse indexes every prefix and every suffix of a word.
	Reverse
)

// Index maps terms to documents. Fields passed to Add are weighted by
// position: the first field ranks highest.
type Index struct {
	mode   Tokenize
	ids    []string
	seen   map[string]int
	terms  map[string]map[int]float64
	vocab  map[string]struct{}
	fields int
}

// NewIndex returns an empty index.
func NewIndex(mode Tokenize, fields int) *Index {
	if fields < 1 {
		fields = 1
	}
	return &Index{
		mode:   mode,
		seen:   map[string]int{},
		terms:  map[string]map[int]float64{},
		vocab:  map[string]struct{}{},
		fields: fields,
	}
}

// Len reports the number of indexed documents.
func (ix *Index) Len() int { return len(ix.ids) }

// Add indexes a document. Adding an existing id merges the new fields in.
func (ix *Index) Add(id string, fields ...string) {
	pos, ok := ix.seen[id]
	if !ok {
		pos = len(ix.ids)
		ix.ids = append(ix.ids, id)
		ix.seen[id] = pos
	}
	for i, field := range fields {
		if i >= ix.fields {
			break
		}
		weight := float64(ix.fields - i)
		for _, word := range Tokens(field) {
			ix.vocab[word] = struct{}{}
			ix.put(word, pos, 2*weight)
			for _, term := range ix.partials(word) {
				ix.put(term, pos, weight)
			}
		}
	}
}

func (ix *Index) put(term string, pos int, score float64) {
	docs := ix.terms[term]
	if docs == nil {
		docs = map[int]float64{}
		ix.terms[term] = docs
	}
	if score > docs[pos] {
		docs[pos] = score
	}
}

func (ix *Index) partials(word string) []string {
	if ix.mode == Strict {
		return nil
	}
	r := []rune(word)
	out := make([]string, 0, len(r))
	for i := 1; i < len(r); i++ {
		out = append(out, string(r[:i]))
		if ix.mode == Reverse {
			out = append(out, string(r[i:]))
		}
	}
	return out
}

type scored struct {
	pos     int
	score   float64
	matched int
}

// Search returns up to limit document ids matching every word of query.
// With suggest set, a query that matches nothing falls back to documents
// matching any word, then to vocabulary words within a small edit distance.
func (ix *Index) Search(query string, limit int, suggest bool) []string {
	words := Tokens(query)
	if len(words) == 0 || limit <= 0 {
		return nil
	}
	hits := ix.collect(words)
	results := filter(hits, len(words))
	if len(results) == 0 && suggest {
		results = filter(hits, 1)
		if len(results) == 0 {
			results = filter(ix.collect(ix.corrections(words)), 1)
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.matched != b.matched {
			return a.matched > b.matched
		}
		if a.score != b.score {
			return a.score > b.score
		}
		return a.pos < b.pos
	})
	if len(results) > limit {
		results = results[:limit]
	}
	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = ix.ids[r.pos]
	}
	return ids
}

func (ix *Index) collect(words []string) map[int]*scored {
	hits := map[int]*scored{}
	for _, word := range words {
		for pos, score := range ix.terms[word] {
			h := hits[pos]
			if h == nil {
				h = &scored{pos: pos}
				hits[pos] = h
			}
			h.score += score
			h.matched++
		}
	}
	return hits
}

func filter(hits map[int]*scored, minMatched int) []scored {
	out := make([]scored, 0, len(hits))
	for _, h := range hits {
		if h.matched >= minMatched {
			out = append(out, *h)
		}
	}
	return out
}

// corrections replaces each query word with its closest vocabulary words.
func (ix *Index) corrections(words []string) []string {
	var out []string
	for _, word := range words {
		maxDist := 1
		if len([]rune(word)) > 4 {
			maxDist = 2
		}
		best := maxDist + 1
		var candidates []string
		for v := range ix.vocab {
			d := levenshtein.ComputeDistance(word, v)
			switch {
			case d < best:
				best = d
				candidates = append(candidates[:0], v)
			case d == best:
				candidates = append(candidates, v)
			}
		}
		sort.Strings(candidates)
		out = append(out, candidates...)
	}
	return out
}

// Tokens splits text into case-folded, diacritic-free words.
func Tokens(text string) []string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	plain, _, err := transform.String(t, text)
	if err != nil {
		plain = text
	}
	plain = cases.Fold().String(plain)
	return strings.FieldsFunc(plain, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
