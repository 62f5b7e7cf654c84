package convert

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/survey2pdf/internal/config"
	cerrors "github.com/a3tai/survey2pdf/internal/errors"
	"github.com/a3tai/survey2pdf/internal/pdf"
	"github.com/a3tai/survey2pdf/internal/render"
	"github.com/a3tai/survey2pdf/internal/survey"
)

const sampleCSV = "\ufeffTitle,What was collected?,Attachment,Attachment.1,Attachment.2,GlobalID\n" +
	"Soil Survey,Cores,a.jpg,,c.jpg,{aaa-111}\n" +
	",Water samples,,,,{bbb-222}\n" +
	",,,,,\n" +
	"Soil Survey,Duplicate title,d.jpg,,,{ccc-333}\n"

func newTestService(out *bytes.Buffer) *Service {
	return NewService(render.DefaultFonts(), config.DefaultMaxFileSize, out, false)
}

func writeInput(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "export.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func defaultOptions(outDir string) Options {
	return Options{
		OutputDir:      outDir,
		TitleColumns:   survey.DefaultTitleColumns,
		RepeatLabel:    survey.DefaultRepeatLabel,
		MaxTitleLength: survey.DefaultMaxTitleLength,
		Verify:         true,
	}
}

func pdfFiles(t *testing.T, dir string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "*.pdf"))
	require.NoError(t, err)
	names := make([]string, len(matches))
	for i, m := range matches {
		names[i] = filepath.Base(m)
	}
	return names
}

func TestConvert_SelectedRows(t *testing.T) {
	var out bytes.Buffer
	svc := newTestService(&out)
	outDir := filepath.Join(t.TempDir(), "nested", "pdfs")

	opts := defaultOptions(outDir)
	opts.Rows = "0-2"

	result, err := svc.Convert(context.Background(), ConvertRequest{InputPath: writeInput(t, sampleCSV), Options: opts})
	require.NoError(t, err)

	assert.Equal(t, 3, result.Written)
	assert.Equal(t, 0, result.Failed)
	assert.ElementsMatch(t, []string{"Soil_Survey.pdf", "bbb_222.pdf", "row_2.pdf"}, pdfFiles(t, outDir))

	require.Len(t, result.Rows, 3)
	assert.Equal(t, 0, result.Rows[0].Index)
	assert.Equal(t, "Soil Survey", result.Rows[0].Title)
	assert.Equal(t, filepath.Join(outDir, "Soil_Survey.pdf"), result.Rows[0].Path)
	assert.Equal(t, 1, result.Rows[0].Pages)

	assert.Equal(t, 3, strings.Count(out.String(), "✔ Wrote"))
	assert.Contains(t, out.String(), "Soil_Survey.pdf (1 page)")

	for _, r := range result.Rows {
		validation, err := svc.ValidateFile(pdf.PDFValidateFileRequest{Path: r.Path})
		require.NoError(t, err)
		assert.True(t, validation.Valid, validation.Message)
	}
}

func TestConvert_DuplicateTitlesOverwrite(t *testing.T) {
	var out bytes.Buffer
	svc := newTestService(&out)
	outDir := t.TempDir()

	opts := defaultOptions(outDir)
	opts.Rows = "0,3"

	result, err := svc.Convert(context.Background(), ConvertRequest{InputPath: writeInput(t, sampleCSV), Options: opts})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Written)
	assert.Equal(t, []string{"Soil_Survey.pdf"}, pdfFiles(t, outDir))
	assert.Equal(t, result.Rows[0].Path, result.Rows[1].Path)
}

func TestConvert_LowercaseSlugs(t *testing.T) {
	svc := newTestService(&bytes.Buffer{})
	outDir := t.TempDir()

	opts := defaultOptions(outDir)
	opts.Rows = "0"
	opts.LowercaseSlugs = true

	_, err := svc.Convert(context.Background(), ConvertRequest{InputPath: writeInput(t, sampleCSV), Options: opts})
	require.NoError(t, err)
	assert.Equal(t, []string{"soil_survey.pdf"}, pdfFiles(t, outDir))
}

func TestConvert_InvalidSelectionWritesNothing(t *testing.T) {
	svc := newTestService(&bytes.Buffer{})
	outDir := filepath.Join(t.TempDir(), "pdfs")

	opts := defaultOptions(outDir)
	opts.Rows = "0,20"

	result, err := svc.Convert(context.Background(), ConvertRequest{InputPath: writeInput(t, sampleCSV), Options: opts})
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, cerrors.IsType(err, cerrors.ErrorTypeInvalidRowSelection))
	assert.Contains(t, err.Error(), "20")

	_, statErr := os.Stat(outDir)
	assert.True(t, os.IsNotExist(statErr), "output directory must not be created")
}

func TestConvert_InputErrors(t *testing.T) {
	svc := newTestService(&bytes.Buffer{})
	outDir := t.TempDir()

	_, err := svc.Convert(context.Background(), ConvertRequest{
		InputPath: filepath.Join(outDir, "missing.csv"),
		Options:   defaultOptions(outDir),
	})
	assert.True(t, cerrors.IsType(err, cerrors.ErrorTypeInputNotFound))

	_, err = svc.Convert(context.Background(), ConvertRequest{
		InputPath: writeInput(t, "Title,Notes\n"),
		Options:   defaultOptions(outDir),
	})
	assert.True(t, cerrors.IsType(err, cerrors.ErrorTypeNoRowsSelected))
}

func TestConvert_SelectionOnHeaderOnlyInput(t *testing.T) {
	svc := newTestService(&bytes.Buffer{})

	opts := defaultOptions(t.TempDir())
	opts.Rows = "0"

	_, err := svc.Convert(context.Background(), ConvertRequest{InputPath: writeInput(t, "Title,Notes\n"), Options: opts})
	require.Error(t, err)
	assert.True(t, cerrors.IsType(err, cerrors.ErrorTypeInvalidRowSelection))
	assert.Contains(t, err.Error(), `"0"`)
}

func TestConvert_OutputPathIsFile(t *testing.T) {
	svc := newTestService(&bytes.Buffer{})
	blocker := filepath.Join(t.TempDir(), "out")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	_, err := svc.Convert(context.Background(), ConvertRequest{
		InputPath: writeInput(t, sampleCSV),
		Options:   defaultOptions(blocker),
	})
	require.Error(t, err)
	assert.True(t, cerrors.IsType(err, cerrors.ErrorTypeOutputDirectory))
}

func TestConvert_FailurePolicy(t *testing.T) {
	input := writeInput(t, "Title,Notes\nGood,one\nBroken,two\nAlso Good,three\n")

	t.Run("abort", func(t *testing.T) {
		svc := newTestService(&bytes.Buffer{})
		outDir := t.TempDir()
		require.NoError(t, os.Mkdir(filepath.Join(outDir, "Broken.pdf"), 0o750))

		result, err := svc.Convert(context.Background(), ConvertRequest{InputPath: input, Options: defaultOptions(outDir)})
		require.Error(t, err)
		assert.True(t, cerrors.IsType(err, cerrors.ErrorTypeRenderFailure))

		var ce *cerrors.ConvertError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, 1, ce.Row)

		require.NotNil(t, result)
		assert.Equal(t, 1, result.Written)
		assert.Equal(t, 1, result.Failed)
		require.Len(t, result.Rows, 2)
		assert.True(t, result.Rows[1].Failed())
		assert.NoFileExists(t, filepath.Join(outDir, "Also_Good.pdf"))
	})

	t.Run("continue", func(t *testing.T) {
		svc := newTestService(&bytes.Buffer{})
		outDir := t.TempDir()
		require.NoError(t, os.Mkdir(filepath.Join(outDir, "Broken.pdf"), 0o750))

		opts := defaultOptions(outDir)
		opts.ContinueOnError = true

		result, err := svc.Convert(context.Background(), ConvertRequest{InputPath: input, Options: opts})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "1 row(s) failed")
		assert.True(t, cerrors.IsType(err, cerrors.ErrorTypeRenderFailure))

		var ce *cerrors.ConvertError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, 1, ce.Row)

		assert.Equal(t, 2, result.Written)
		assert.Equal(t, 1, result.Failed)
		require.Len(t, result.Rows, 3)
		assert.True(t, result.Rows[1].Failed())
		assert.FileExists(t, filepath.Join(outDir, "Also_Good.pdf"))
	})
}

func TestConvert_Cancelled(t *testing.T) {
	svc := newTestService(&bytes.Buffer{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := svc.Convert(ctx, ConvertRequest{InputPath: writeInput(t, sampleCSV), Options: defaultOptions(t.TempDir())})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, result.Written)
}

func TestConvert_ExcludedColumns(t *testing.T) {
	svc := newTestService(&bytes.Buffer{})
	outDir := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.OutputDir = outDir
	cfg.SkipSystemFields = true
	cfg.Rows = "1"

	opts := OptionsFromConfig(cfg)
	assert.Contains(t, opts.Exclude, "GlobalID")

	result, err := svc.Convert(context.Background(), ConvertRequest{InputPath: writeInput(t, sampleCSV), Options: opts})
	require.NoError(t, err)
	assert.Equal(t, "bbb_222.pdf", filepath.Base(result.Rows[0].Path), "excluded columns still name files")
}

func TestInspect(t *testing.T) {
	svc := newTestService(&bytes.Buffer{})

	result, err := svc.Inspect(InspectRequest{InputPath: writeInput(t, sampleCSV), RepeatLabel: "File"})
	require.NoError(t, err)

	assert.Equal(t, 4, result.Rows)
	assert.Equal(t, 6, result.Columns)
	require.Len(t, result.Groups, 4)
	assert.Equal(t, "Attachment", result.Groups[2].Base)
	assert.Len(t, result.Groups[2].Members, 3)
}

func TestEnsureOutputDir(t *testing.T) {
	assert.Error(t, ensureOutputDir(""))

	dir := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, ensureOutputDir(dir))
	assert.DirExists(t, dir)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "the writability probe must be removed")
}
