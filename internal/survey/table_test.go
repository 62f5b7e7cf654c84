package survey

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	cerrors "github.com/a3tai/survey2pdf/internal/errors"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestParseCSV_StripsBOM(t *testing.T) {
	records, err := ParseCSV(strings.NewReader("\ufeffTitle,Notes\nA,b\n"))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Title", records[0][0])
}

func TestParseCSV_QuotedMultiline(t *testing.T) {
	records, err := ParseCSV(strings.NewReader("Title,Notes\n\"A, B\",\"line one\nline two\"\n"))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"A, B", "line one\nline two"}, records[1])
}

func TestNewTable(t *testing.T) {
	table, err := NewTable([][]string{
		{"Name", "Attachment", "Attachment"},
		{"Ada", "a.pdf"},
		{"Bob", "b.pdf", "c.pdf", "", " "},
		{"", "", ""},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Name", "Attachment", "Attachment.1"}, table.Columns)
	assert.Equal(t, 3, table.Len(), "blank rows keep their index")
	assert.Equal(t, []string{"Ada", "a.pdf", ""}, table.Rows[0])
	assert.Equal(t, []string{"Bob", "b.pdf", "c.pdf"}, table.Rows[1])

	v, ok := table.Row(1).Value("Attachment.1")
	assert.True(t, ok)
	assert.Equal(t, "c.pdf", v)

	_, ok = table.Row(1).Value("missing")
	assert.False(t, ok)
	assert.Equal(t, 2, table.Row(2).Index)
}

func TestNewTable_Errors(t *testing.T) {
	_, err := NewTable(nil)
	assert.Error(t, err)

	_, err = NewTable([][]string{{}})
	assert.Error(t, err)

	_, err = NewTable([][]string{{"a"}, {"1", "extra"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 0")
}

func TestDedupeColumns(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{name: "unique", in: []string{"a", "b"}, want: []string{"a", "b"}},
		{name: "repeats", in: []string{"a", "a", "a"}, want: []string{"a", "a.1", "a.2"}},
		{name: "collision with existing suffix", in: []string{"a", "a.1", "a"}, want: []string{"a", "a.1", "a.2"}},
		{name: "blank names", in: []string{"", " x ", ""}, want: []string{"Unnamed: 0", "x", "Unnamed: 2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, dedupeColumns(tt.in))
		})
	}
}

func TestReadTable_CSV(t *testing.T) {
	path := writeFile(t, "export.csv", "\ufeffTitle,Attachment,Attachment.1\nSoil,a.jpg,b.jpg\nWater,,\n")

	table, err := ReadTable(path, ReadOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Title", "Attachment", "Attachment.1"}, table.Columns)
	assert.Equal(t, 2, table.Len())
}

func TestReadTable_HeaderOnly(t *testing.T) {
	path := writeFile(t, "empty.csv", "Title,Notes\n")

	table, err := ReadTable(path, ReadOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, table.Len())
}

func TestReadTable_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadTable(filepath.Join(dir, "missing.csv"), ReadOptions{})
	require.Error(t, err)
	assert.True(t, cerrors.IsType(err, cerrors.ErrorTypeInputNotFound))

	_, err = ReadTable(dir, ReadOptions{})
	require.Error(t, err)
	assert.True(t, cerrors.IsType(err, cerrors.ErrorTypeInputUnreadable))

	empty := writeFile(t, "empty.csv", "")
	_, err = ReadTable(empty, ReadOptions{})
	require.Error(t, err)
	assert.True(t, cerrors.IsType(err, cerrors.ErrorTypeInputUnreadable))

	big := writeFile(t, "big.csv", "Title\n"+strings.Repeat("x\n", 100))
	_, err = ReadTable(big, ReadOptions{MaxFileSize: 16})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too large")
}

func TestReadTable_XLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"Title", "Photo", "Photo.1"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"Delta Flats", "p1.jpg", "p2.jpg"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{"Ridge", "p3.jpg"}))

	_, err := f.NewSheet("Other")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("Other", "A1", &[]interface{}{"Only"}))

	path := filepath.Join(t.TempDir(), "export.xlsx")
	require.NoError(t, f.SaveAs(path))

	table, err := ReadTable(path, ReadOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Title", "Photo", "Photo.1"}, table.Columns)
	require.Equal(t, 2, table.Len())
	assert.Equal(t, []string{"Ridge", "p3.jpg", ""}, table.Rows[1])

	other, err := ReadTable(path, ReadOptions{Sheet: "Other"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Only"}, other.Columns)
	assert.Equal(t, 0, other.Len())

	_, err = ReadTable(path, ReadOptions{Sheet: "Nope"})
	assert.True(t, cerrors.IsType(err, cerrors.ErrorTypeInputUnreadable))
}
