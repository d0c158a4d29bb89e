// Package markup parses the tag-delimited fields language models are asked to answer with.
package markup

import (
	"errors"
	"strings"
)

// ErrMissingTag matches every *MissingTagError.
var ErrMissingTag = errors.New("markup: missing tag")

// MissingTagError reports the delimiter that was not found.
type MissingTagError struct {
	Tag string
}

// Error implements the error interface.
func (e *MissingTagError) Error() string {
	return "markup: missing " + e.Tag
}

// Is reports whether target is ErrMissingTag or another *MissingTagError.
func (e *MissingTagError) Is(target error) bool {
	if target == ErrMissingTag {
		return true
	}

	_, ok := target.(*MissingTagError)

	return ok
}

func openTag(tag string) string  { return "<" + tag + ">" }
func closeTag(tag string) string { return "</" + tag + ">" }

// Extract returns the trimmed text between the first <tag> and the </tag> that follows it.
func Extract(text, tag string) (string, error) {
	open := openTag(tag)

	_, rest, ok := strings.Cut(text, open)
	if !ok {
		return "", &MissingTagError{Tag: open}
	}

	inner, _, ok := strings.Cut(rest, closeTag(tag))
	if !ok {
		return "", &MissingTagError{Tag: closeTag(tag)}
	}

	return strings.TrimSpace(inner), nil
}

// After returns the trimmed text following the first </tag>, up to a repeated </tag> if the
// reply carries one.
func After(text, tag string) (string, error) {
	_, rest, ok := strings.Cut(text, closeTag(tag))
	if !ok {
		return "", &MissingTagError{Tag: closeTag(tag)}
	}

	rest, _, _ = strings.Cut(rest, closeTag(tag))

	return strings.TrimSpace(rest), nil
}

// Unwrap returns the contents of <tag> when present and the trimmed text otherwise.
func Unwrap(text, tag string) string {
	if inner, err := Extract(text, tag); err == nil {
		return inner
	}

	return strings.TrimSpace(text)
}
