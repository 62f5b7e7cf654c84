package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/survey2pdf/internal/survey"
)

func composeRow(t *testing.T, exclude []string, header []string, cells []string) Story {
	t.Helper()
	table, err := survey.NewTable([][]string{header, cells})
	require.NoError(t, err)

	composer := NewComposer(survey.DetectGroups(table.Columns, survey.DefaultRepeatLabel), exclude)
	return composer.Compose(table.Row(0), "Heading")
}

// texts returns the text of every block of kind k, in order
func texts(s Story, k BlockKind) []string {
	var out []string
	for _, b := range s.Blocks {
		if b.Kind == k {
			out = append(out, b.Text)
		}
	}
	return out
}

func TestCompose_Layout(t *testing.T) {
	story := composeRow(t, nil,
		[]string{"Name", "Attachment", "Attachment.1", "Attachment.2"},
		[]string{"Ada", "a.pdf", "", "c.pdf"},
	)

	assert.Equal(t, "Heading", story.Title)
	assert.Equal(t, []Block{
		{Kind: KindHeading, Text: "Heading"},
		{Kind: KindRule},
		{Kind: KindQuestion, Text: "Name"},
		{Kind: KindAnswer, Text: "Ada"},
		{Kind: KindSection, Text: "Attachment"},
		{Kind: KindRule},
		{Kind: KindQuestion, Text: "File 1"},
		{Kind: KindAnswer, Text: "a.pdf"},
		{Kind: KindQuestion, Text: "File 3"},
		{Kind: KindAnswer, Text: "c.pdf"},
	}, story.Blocks)
}

func TestCompose_SkipsBlankGroups(t *testing.T) {
	story := composeRow(t, nil,
		[]string{"Name", "Notes", "Photo", "Photo.1"},
		[]string{"Ada", "  ", "", ""},
	)

	assert.Equal(t, []string{"Name"}, texts(story, KindQuestion))
	assert.Empty(t, texts(story, KindSection), "a repeated group with no answers has no section")
}

func TestCompose_EmptyRow(t *testing.T) {
	story := composeRow(t, nil, []string{"a", "b"}, []string{"", ""})

	require.Len(t, story.Blocks, 2)
	assert.Equal(t, KindHeading, story.Blocks[0].Kind)
	assert.Equal(t, KindRule, story.Blocks[1].Kind)
}

func TestCompose_Exclude(t *testing.T) {
	header := []string{"ObjectID", "Name", "Photo", "Photo.1", "Photo.2"}
	cells := []string{"17", "Ada", "p0.jpg", "p1.jpg", "p2.jpg"}

	story := composeRow(t, []string{"ObjectID", " Photo.1 "}, header, cells)
	assert.Equal(t, []string{"Name", "File 1", "File 3"}, texts(story, KindQuestion))
	assert.Equal(t, []string{"Ada", "p0.jpg", "p2.jpg"}, texts(story, KindAnswer))

	story = composeRow(t, []string{"Photo"}, header, cells)
	assert.Equal(t, []string{"Object ID", "Name"}, texts(story, KindQuestion))
	assert.Empty(t, texts(story, KindSection))
}

func TestCompose_AnswerOrderMatchesSuffix(t *testing.T) {
	story := composeRow(t, nil,
		[]string{"q", "q.2", "q.1"},
		[]string{"first", "third", "second"},
	)

	assert.Equal(t, []string{"Q"}, texts(story, KindSection))
	assert.Equal(t, []string{"File 1", "File 2", "File 3"}, texts(story, KindQuestion))
	assert.Equal(t, []string{"first", "second", "third"}, texts(story, KindAnswer))
}

func TestBlockKind_String(t *testing.T) {
	assert.Equal(t, "heading", KindHeading.String())
	assert.Equal(t, "answer", KindAnswer.String())
	assert.Equal(t, "unknown", BlockKind(99).String())
}
