package domain

import (
	"strconv"
	"strings"
)

// FieldValueKind discriminates the metadata value variants.
type FieldValueKind int

const (
	FieldValueText FieldValueKind = iota
	FieldValueNumber
	FieldValueTags
)

// tagDelimiter separates list values when a tag list is stored as a single
// string. The unit separator cannot appear in user-entered tags, so no
// escaping is needed. EncodeTags and DecodeTags are the only two places that
// may reference it.
const tagDelimiter = "\x1f"

// FieldValue is a tagged metadata value: text, number, or tag list.
// Serialization to the flat per-backend representation goes through Encode,
// and the assembler reverses it with the matching Decode* functions, so the
// list-as-delimited-string convention lives in exactly one place.
type FieldValue struct {
	kind   FieldValueKind
	text   string
	number float64
	tags   []string
}

func Text(s string) FieldValue      { return FieldValue{kind: FieldValueText, text: s} }
func Number(n float64) FieldValue   { return FieldValue{kind: FieldValueNumber, number: n} }
func Tags(tags []string) FieldValue { return FieldValue{kind: FieldValueTags, tags: tags} }

// Bool stores a boolean flag as an exact-match tag value.
func Bool(b bool) FieldValue {
	if b {
		return Text("true")
	}
	return Text("false")
}

func (v FieldValue) Kind() FieldValueKind { return v.kind }

func (v FieldValue) TextValue() string { return v.text }

func (v FieldValue) NumberValue() float64 { return v.number }

// TagsValue returns the tag list, never nil.
func (v FieldValue) TagsValue() []string {
	if v.tags == nil {
		return []string{}
	}
	return v.tags
}

// Encode renders the value as a single flat string for storage.
func (v FieldValue) Encode() string {
	switch v.kind {
	case FieldValueNumber:
		return strconv.FormatFloat(v.number, 'f', -1, 64)
	case FieldValueTags:
		return EncodeTags(v.tags)
	default:
		return v.text
	}
}

// EncodeTags joins a tag list into the stored single-string form.
func EncodeTags(tags []string) string {
	return strings.Join(tags, tagDelimiter)
}

// DecodeTags splits a stored tag string back into a list. An empty string
// decodes to an empty list, not [""].
func DecodeTags(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, tagDelimiter)
}

// DecodeNumber parses a stored numeric string. Returns 0 for malformed input
// rather than failing assembly of an otherwise valid hit.
func DecodeNumber(s string) float64 {
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return n
}
