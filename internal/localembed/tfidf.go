// Package localembed is the in-process embedding backend: a TF-IDF model that is either fitted
// on the sentences of the current run or loaded from a bbolt model file.
package localembed

import (
	"errors"
	"math"
	"regexp"
	"sort"
	"strings"
)

// DefaultMaxFeatures bounds the vocabulary (and therefore the vector dimension).
const DefaultMaxFeatures = 4096

// ErrEmptyVocabulary is returned when a corpus yields no usable tokens.
var ErrEmptyVocabulary = errors.New("localembed: corpus has no tokens")

var tokenPattern = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\p{N}+`)

var stopwords = func() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at",
		"by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that",
		"these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so",
		"such", "into", "about", "between", "through", "during", "before", "after", "above", "below",
		"out", "off", "own", "same", "too", "very", "can", "will", "just", "don", "should", "now",
	}

	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}

	return m
}()

// Model is a fitted TF-IDF vectorizer. Term indices are assigned in lexical order.
type Model struct {
	Vocabulary map[string]int
	IDF        []float64
	Documents  int
}

// Fit builds a model over corpus keeping at most maxFeatures terms, preferring the terms that
// occur in the most documents (ties broken lexically). maxFeatures <= 0 means DefaultMaxFeatures.
func Fit(corpus []string, maxFeatures int) (*Model, error) {
	if maxFeatures <= 0 {
		maxFeatures = DefaultMaxFeatures
	}

	df := make(map[string]int)

	for _, doc := range corpus {
		seen := make(map[string]struct{})

		for _, tok := range tokenize(doc) {
			if _, ok := seen[tok]; ok {
				continue
			}

			seen[tok] = struct{}{}
			df[tok]++
		}
	}

	if len(df) == 0 {
		return nil, ErrEmptyVocabulary
	}

	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}

	if len(terms) > maxFeatures {
		sort.Slice(terms, func(i, j int) bool {
			if df[terms[i]] != df[terms[j]] {
				return df[terms[i]] > df[terms[j]]
			}

			return terms[i] < terms[j]
		})
		terms = terms[:maxFeatures]
	}

	sort.Strings(terms)

	n := float64(len(corpus))
	m := &Model{
		Vocabulary: make(map[string]int, len(terms)),
		IDF:        make([]float64, len(terms)),
		Documents:  len(corpus),
	}

	for i, term := range terms {
		m.Vocabulary[term] = i
		// Smoothed IDF.
		m.IDF[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}

	return m, nil
}

// Dimensions returns the vector length produced by the model.
func (m *Model) Dimensions() int {
	return len(m.IDF)
}

// Vector returns the TF-IDF vector of text. Unknown terms are ignored; text without known terms
// maps to the zero vector. The result is not normalized.
func (m *Model) Vector(text string) []float32 {
	vec := make([]float32, len(m.IDF))
	counts := make(map[int]int)
	total := 0

	for _, tok := range tokenize(text) {
		if idx, ok := m.Vocabulary[tok]; ok {
			counts[idx]++
			total++
		}
	}

	for idx, c := range counts {
		vec[idx] = float32(float64(c) / float64(total) * m.IDF[idx])
	}

	return vec
}

func tokenize(text string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)

	out := raw[:0]
	for _, t := range raw {
		if _, stop := stopwords[t]; !stop {
			out = append(out, t)
		}
	}

	return out
}
