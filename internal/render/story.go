package render

import (
	"strings"

	"github.com/a3tai/survey2pdf/internal/survey"
)

// BlockKind identifies how a story block is laid out
type BlockKind int

const (
	KindHeading BlockKind = iota
	KindRule
	KindSection
	KindQuestion
	KindAnswer
)

// String returns a string representation of the BlockKind
func (k BlockKind) String() string {
	switch k {
	case KindHeading:
		return "heading"
	case KindRule:
		return "rule"
	case KindSection:
		return "section"
	case KindQuestion:
		return "question"
	case KindAnswer:
		return "answer"
	default:
		return "unknown"
	}
}

// Block is one paragraph of a document
type Block struct {
	Kind BlockKind `json:"kind"`
	Text string    `json:"text,omitempty"`
}

// Story is the linear content of one document, laid out top to bottom
type Story struct {
	Title  string  `json:"title"`
	Blocks []Block `json:"blocks"`
}

// Composer turns one row into a Story using a header grouping shared by
// every row of the table.
type Composer struct {
	groups  []survey.Group
	exclude map[string]bool
}

// NewComposer creates a composer. Names in exclude match a group's base
// name (dropping the whole group) or a single member column.
func NewComposer(groups []survey.Group, exclude []string) *Composer {
	ex := make(map[string]bool, len(exclude))
	for _, name := range exclude {
		if name = strings.TrimSpace(name); name != "" {
			ex[name] = true
		}
	}
	return &Composer{groups: groups, exclude: ex}
}

// Compose lays out row under heading. Blank answers are skipped; a
// repeated group with no answers loses its section heading too.
func (c *Composer) Compose(row survey.Row, heading string) Story {
	story := Story{
		Title: heading,
		Blocks: []Block{
			{Kind: KindHeading, Text: heading},
			{Kind: KindRule},
		},
	}

	for _, g := range c.groups {
		if c.exclude[g.Base] {
			continue
		}

		answers := c.filter(g.Answers(row))
		if len(answers) == 0 {
			continue
		}

		if !g.Repeated() {
			story.Blocks = append(story.Blocks,
				Block{Kind: KindQuestion, Text: g.Label},
				Block{Kind: KindAnswer, Text: answers[0].Value},
			)
			continue
		}

		story.Blocks = append(story.Blocks,
			Block{Kind: KindSection, Text: g.Label},
			Block{Kind: KindRule},
		)
		for _, a := range answers {
			story.Blocks = append(story.Blocks,
				Block{Kind: KindQuestion, Text: a.Label},
				Block{Kind: KindAnswer, Text: a.Value},
			)
		}
	}

	return story
}

func (c *Composer) filter(answers []survey.Answer) []survey.Answer {
	if len(c.exclude) == 0 {
		return answers
	}
	kept := answers[:0]
	for _, a := range answers {
		if !c.exclude[a.Column] {
			kept = append(kept, a)
		}
	}
	return kept
}
