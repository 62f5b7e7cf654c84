package survey

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	// DefaultMaxTitleLength caps slugs, in runes
	DefaultMaxTitleLength = 80

	// MaxSlugBytes bounds a slug's encoded length so that "<slug>.pdf"
	// stays well under the 255 byte file name limit of common filesystems.
	MaxSlugBytes = 200

	slugSeparator = '_'
)

// DefaultTitleColumns are tried in order when no title column is configured
var DefaultTitleColumns = []string{"Title", "Title of Tier I Data Submitted", "GlobalID"}

// TitleResolver picks a row's title and derives its output file name
type TitleResolver struct {
	columns   []string
	groups    []Group
	maxLength int
	lowercase bool
}

// Title is the resolved naming of one row
type Title struct {
	// Value is the raw title cell, empty when no candidate had a value.
	Value string
	// Column is the column the value came from.
	Column string
	// Slug is the file name stem: the slugified value or row_<index>.
	Slug string
	// Heading is the document heading shown on the first page.
	Heading string
}

// NewTitleResolver creates a resolver over the candidate title columns.
// Empty columns fall back to DefaultTitleColumns; a non-positive
// maxLength falls back to DefaultMaxTitleLength.
func NewTitleResolver(columns []string, groups []Group, maxLength int, lowercase bool) *TitleResolver {
	if len(columns) == 0 {
		columns = DefaultTitleColumns
	}
	if maxLength <= 0 {
		maxLength = DefaultMaxTitleLength
	}
	return &TitleResolver{
		columns:   columns,
		groups:    groups,
		maxLength: maxLength,
		lowercase: lowercase,
	}
}

// Resolve returns the title for row
func (tr *TitleResolver) Resolve(row Row) Title {
	fallback := FallbackName(row.Index)

	for _, candidate := range tr.columns {
		column := tr.columnFor(candidate, row)
		if column == "" {
			continue
		}
		v, _ := row.Value(column)
		if IsBlank(v) {
			continue
		}

		slug := Slugify(v, tr.maxLength, tr.lowercase)
		if slug == "" {
			slug = fallback
		}
		return Title{
			Value:   strings.TrimSpace(v),
			Column:  column,
			Slug:    slug,
			Heading: strings.TrimSpace(v),
		}
	}

	return Title{
		Slug:    fallback,
		Heading: fmt.Sprintf("Submission %d", row.Index),
	}
}

// columnFor maps a candidate to a concrete column: an exact column name
// wins, otherwise the lowest-suffix member of the group with that base.
func (tr *TitleResolver) columnFor(candidate string, row Row) string {
	if row.Has(candidate) {
		return candidate
	}
	for _, g := range tr.groups {
		if g.Base == candidate {
			return g.First().Column
		}
	}
	return ""
}

// FallbackName is the file stem used when a row has no usable title
func FallbackName(index int) string {
	return fmt.Sprintf("row_%d", index)
}

// Slugify makes text safe for use as a file name: accents are folded,
// every run of characters that is not a letter or digit becomes a single
// underscore, separators are trimmed from both ends and the result is
// capped at maxLength runes and MaxSlugBytes bytes.
func Slugify(text string, maxLength int, lowercase bool) string {
	folded, _, err := transform.String(transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), text)
	if err != nil {
		folded = text
	}

	var b strings.Builder
	pending := false
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pending && b.Len() > 0 {
				b.WriteRune(slugSeparator)
			}
			pending = false
			if lowercase {
				r = unicode.ToLower(r)
			}
			b.WriteRune(r)
			continue
		}
		pending = true
	}

	slug := b.String()
	if maxLength > 0 && utf8.RuneCountInString(slug) > maxLength {
		slug = string([]rune(slug)[:maxLength])
	}
	for len(slug) > MaxSlugBytes {
		_, size := utf8.DecodeLastRuneInString(slug)
		slug = slug[:len(slug)-size]
	}
	return strings.TrimRight(slug, string(slugSeparator))
}
