package convert

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/a3tai/survey2pdf/internal/config"
	cerrors "github.com/a3tai/survey2pdf/internal/errors"
	"github.com/a3tai/survey2pdf/internal/pdf"
	"github.com/a3tai/survey2pdf/internal/render"
	"github.com/a3tai/survey2pdf/internal/survey"
)

// OutputExtension is appended to every generated file name
const OutputExtension = ".pdf"

// Service converts survey exports into per-row PDF documents by
// orchestrating the table reader, grouper, composer, renderer and validator.
type Service struct {
	maxFileSize int64
	renderer    *render.Renderer
	validator   *pdf.Validator
	out         io.Writer
	debug       bool
}

// NewService creates a conversion service. Progress lines are written to
// out; pass io.Discard to silence them.
func NewService(fonts render.FontSet, maxFileSize int64, out io.Writer, debug bool) *Service {
	if out == nil {
		out = io.Discard
	}
	return &Service{
		maxFileSize: maxFileSize,
		renderer:    render.NewRenderer(fonts, "survey2pdf"),
		validator:   pdf.NewValidator(0),
		out:         out,
		debug:       debug,
	}
}

// Inspect reads an export and returns its question groups
func (s *Service) Inspect(req InspectRequest) (*InspectResult, error) {
	table, err := survey.ReadTable(req.InputPath, survey.ReadOptions{Sheet: req.Sheet, MaxFileSize: s.maxFileSize})
	if err != nil {
		return nil, err
	}

	return &InspectResult{
		InputPath: req.InputPath,
		Rows:      table.Len(),
		Columns:   len(table.Columns),
		Groups:    survey.DetectGroups(table.Columns, req.RepeatLabel),
	}, nil
}

// ValidateFile validates a generated PDF
func (s *Service) ValidateFile(req pdf.PDFValidateFileRequest) (*pdf.PDFValidateFileResult, error) {
	return s.validator.ValidateFile(req)
}

// Convert renders one PDF per selected row. Rows are processed one at a
// time; by default the first failure aborts the run. With
// ContinueOnError, row failures are recorded in the result and returned
// together once every row has been attempted.
func (s *Service) Convert(ctx context.Context, req ConvertRequest) (*RunResult, error) {
	opts := req.Options

	table, err := survey.ReadTable(req.InputPath, survey.ReadOptions{Sheet: opts.Sheet, MaxFileSize: s.maxFileSize})
	if err != nil {
		return nil, err
	}

	indexes, err := survey.SelectRows(opts.Rows, table.Len())
	if err != nil {
		return nil, err
	}
	if len(indexes) == 0 {
		return nil, cerrors.New(cerrors.ErrorTypeNoRowsSelected, "input has no data rows").WithPath(req.InputPath)
	}

	if err := ensureOutputDir(opts.OutputDir); err != nil {
		return nil, err
	}

	groups := survey.DetectGroups(table.Columns, opts.RepeatLabel)
	titles := survey.NewTitleResolver(opts.TitleColumns, groups, opts.MaxTitleLength, opts.LowercaseSlugs)
	composer := render.NewComposer(groups, opts.Exclude)

	if s.debug {
		log.Printf("[convert] %d columns in %d groups, %d of %d rows selected",
			len(table.Columns), len(groups), len(indexes), table.Len())
		for _, g := range groups {
			if g.Repeated() {
				log.Printf("[convert] group %q: %s", g.Label, strings.Join(g.Columns(), ", "))
			}
		}
		for _, name := range opts.Exclude {
			if _, ok := survey.FindGroup(groups, name); !ok {
				log.Printf("[convert] excluded column %q is not in the input", name)
			}
		}
	}

	result := &RunResult{
		InputPath: req.InputPath,
		OutputDir: opts.OutputDir,
		Rows:      make([]RowResult, 0, len(indexes)),
	}
	failures := cerrors.NewErrorCollection(req.InputPath)
	writtenBy := make(map[string]int, len(indexes))

	for _, i := range indexes {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("conversion cancelled before row %d: %w", i, err)
		}

		row := table.Row(i)
		title := titles.Resolve(row)
		outPath := filepath.Join(opts.OutputDir, title.Slug+OutputExtension)

		if prev, ok := writtenBy[outPath]; ok {
			log.Printf("[convert] warning: row %d overwrites %s written by row %d", i, outPath, prev)
		}

		pages, err := s.renderRow(composer.Compose(row, title.Heading), outPath, opts.Verify)
		if err != nil {
			ce := cerrors.Wrap(cerrors.ErrorTypeRenderFailure, "failed to render row", err).
				WithRow(i).WithPath(outPath)
			result.Rows = append(result.Rows, RowResult{Index: i, Title: title.Value, Path: outPath, Error: err.Error()})
			result.Failed++
			if !opts.ContinueOnError || !ce.Type.IsRecoverable() {
				return result, ce
			}

			log.Printf("[convert] row %d failed: %v", i, err)
			failures.Add(ce)
			continue
		}

		writtenBy[outPath] = i
		result.Rows = append(result.Rows, RowResult{Index: i, Title: title.Value, Path: outPath, Pages: pages})
		result.Written++
		fmt.Fprintf(s.out, "✔ Wrote %s (%d %s)\n", outPath, pages, plural(pages, "page", "pages"))
	}

	if failures.Count() > 0 {
		log.Printf("[convert] %d of %d rows failed", failures.Count(), len(indexes))
	}
	return result, failures.Err()
}

func (s *Service) renderRow(story render.Story, outPath string, verify bool) (int, error) {
	pages, err := s.renderer.RenderFile(story, outPath)
	if err != nil {
		return 0, err
	}
	if !verify {
		return pages, nil
	}

	checked, err := s.validator.Check(outPath)
	if err != nil {
		return 0, fmt.Errorf("validation failed: %w", err)
	}
	if checked != pages {
		return 0, fmt.Errorf("validation failed: rendered %d pages but file has %d", pages, checked)
	}
	return pages, nil
}

// ensureOutputDir creates dir if needed and checks that files can be created in it
func ensureOutputDir(dir string) error {
	if dir == "" {
		return cerrors.New(cerrors.ErrorTypeOutputDirectory, "output directory cannot be empty")
	}

	info, err := os.Stat(dir)
	switch {
	case err == nil && !info.IsDir():
		return cerrors.New(cerrors.ErrorTypeOutputDirectory, "output path exists and is not a directory").WithPath(dir)
	case os.IsNotExist(err):
		if err := os.MkdirAll(dir, config.DefaultDirPerm); err != nil {
			return cerrors.Wrap(cerrors.ErrorTypeOutputDirectory, "cannot create output directory", err).WithPath(dir)
		}
	case err != nil:
		return cerrors.Wrap(cerrors.ErrorTypeOutputDirectory, "cannot access output directory", err).WithPath(dir)
	}

	probe, err := os.CreateTemp(dir, ".survey2pdf-*")
	if err != nil {
		return cerrors.Wrap(cerrors.ErrorTypeOutputDirectory, "output directory is not writable", err).WithPath(dir)
	}
	probe.Close()
	_ = os.Remove(probe.Name())
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
