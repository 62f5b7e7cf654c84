package survey

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultRepeatLabel prefixes the positional labels of repeated members
const DefaultRepeatLabel = "File"

// Survey123SystemFields are the bookkeeping columns Survey123 adds to every export
var Survey123SystemFields = []string{
	"ObjectID", "GlobalID", "CreationDate", "EditDate",
	"Creator", "Editor", "Owner", "x", "y",
}

var repeatSuffix = regexp.MustCompile(`^(.*)\.(\d+)$`)

// Group is one logical question: a single column, or a family of repeated
// columns (Base, Base.1, Base.2, ...) ordered by their numeric suffix.
type Group struct {
	Base    string   `json:"base"`
	Label   string   `json:"label"`
	Members []Member `json:"members"`
}

// Member is a column belonging to a Group
type Member struct {
	Column string `json:"column"`
	Index  int    `json:"index"`
	Label  string `json:"label"`
}

// Answer is a member bound to one row's cell value
type Answer struct {
	Member
	Value string
}

// Repeated reports whether the group has more than one member
func (g Group) Repeated() bool {
	return len(g.Members) > 1
}

// Columns returns the group's column names in member order
func (g Group) Columns() []string {
	cols := make([]string, len(g.Members))
	for i, m := range g.Members {
		cols[i] = m.Column
	}
	return cols
}

// Answers binds the group to row, returning only members whose value is
// not blank after trimming whitespace.
func (g Group) Answers(row Row) []Answer {
	answers := make([]Answer, 0, len(g.Members))
	for _, m := range g.Members {
		v, _ := row.Value(m.Column)
		if IsBlank(v) {
			continue
		}
		answers = append(answers, Answer{Member: m, Value: v})
	}
	return answers
}

// First returns the member with the lowest suffix
func (g Group) First() Member {
	return g.Members[0]
}

// IsBlank reports whether a cell is empty or whitespace-only
func IsBlank(v string) bool {
	return strings.TrimSpace(v) == ""
}

// DetectGroups partitions ordered column names into question groups.
// A column named base.N joins the group of an earlier column with base
// name base; any other column starts a new group. Group order follows
// first appearance. Members of repeated groups are labeled
// "<repeatLabel> 1", "<repeatLabel> 2", ...
func DetectGroups(columns []string, repeatLabel string) []Group {
	type builder struct {
		base    string
		members []Member
	}

	byBase := make(map[string]*builder, len(columns))
	order := make([]*builder, 0, len(columns))

	for _, col := range columns {
		base, idx := col, 0
		if m := repeatSuffix.FindStringSubmatch(col); m != nil {
			if _, known := byBase[m[1]]; known {
				if n, err := strconv.Atoi(m[2]); err == nil {
					base, idx = m[1], n
				}
			}
		}

		b, ok := byBase[base]
		if !ok {
			b = &builder{base: base}
			byBase[base] = b
			order = append(order, b)
		}
		b.members = append(b.members, Member{Column: col, Index: idx})
	}

	groups := make([]Group, 0, len(order))
	for _, b := range order {
		sort.SliceStable(b.members, func(i, j int) bool {
			return b.members[i].Index < b.members[j].Index
		})

		g := Group{Base: b.base, Label: FormatLabel(b.base), Members: b.members}
		for i := range g.Members {
			if g.Repeated() {
				g.Members[i].Label = memberLabel(repeatLabel, g.Label, i)
			} else {
				g.Members[i].Label = g.Label
			}
		}
		groups = append(groups, g)
	}
	return groups
}

// FindGroup returns the group whose base or member column equals name
func FindGroup(groups []Group, name string) (Group, bool) {
	for _, g := range groups {
		if g.Base == name {
			return g, true
		}
	}
	for _, g := range groups {
		for _, m := range g.Members {
			if m.Column == name {
				return g, true
			}
		}
	}
	return Group{}, false
}

func memberLabel(repeatLabel, groupLabel string, pos int) string {
	prefix := repeatLabel
	if prefix == "" {
		prefix = groupLabel
	}
	return fmt.Sprintf("%s %d", prefix, pos+1)
}

// FormatLabel turns identifier-like headers (first_name, dataPillar,
// GlobalID) into space separated title case. Headers that already contain
// whitespace are prose questions and are returned unchanged.
func FormatLabel(name string) string {
	name = strings.TrimSpace(name)
	if name == "" || strings.IndexFunc(name, unicode.IsSpace) >= 0 {
		return name
	}

	words := splitIdentifier(name)
	if len(words) == 0 {
		return name
	}
	// Casers carry state, so each call gets its own.
	return cases.Title(language.Und, cases.NoLower).String(strings.Join(words, " "))
}

// splitIdentifier splits on _ and - and at camel case boundaries.
// An uppercase run followed by a lowercase letter ends one rune early,
// so "HTTPServer" becomes HTTP + Server.
func splitIdentifier(s string) []string {
	var words []string
	var cur []rune

	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
	}

	runes := []rune(s)
	for i, r := range runes {
		if r == '_' || r == '-' {
			flush()
			continue
		}
		if i > 0 && unicode.IsUpper(r) && len(cur) > 0 {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				flush()
			}
		}
		cur = append(cur, r)
	}
	flush()
	return words
}
