package convert

import (
	"github.com/a3tai/survey2pdf/internal/config"
	"github.com/a3tai/survey2pdf/internal/survey"
)

// Options controls a conversion run
type Options struct {
	OutputDir       string   `json:"output_dir"`
	Rows            string   `json:"rows,omitempty"`
	Sheet           string   `json:"sheet,omitempty"`
	TitleColumns    []string `json:"title_columns,omitempty"`
	Exclude         []string `json:"exclude,omitempty"`
	RepeatLabel     string   `json:"repeat_label"`
	LowercaseSlugs  bool     `json:"lowercase_slugs"`
	MaxTitleLength  int      `json:"max_title_length"`
	ContinueOnError bool     `json:"continue_on_error"`
	Verify          bool     `json:"verify"`
}

// OptionsFromConfig builds run options from the process configuration
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		OutputDir:       cfg.OutputDir,
		Rows:            cfg.Rows,
		Sheet:           cfg.Sheet,
		TitleColumns:    cfg.TitleColumns,
		Exclude:         cfg.ExcludedColumns(),
		RepeatLabel:     cfg.RepeatLabel,
		LowercaseSlugs:  cfg.LowercaseSlugs,
		MaxTitleLength:  cfg.MaxTitleLength,
		ContinueOnError: cfg.ContinueOnError,
		Verify:          cfg.Verify,
	}
}

// ConvertRequest represents a request to convert an export into PDFs
type ConvertRequest struct {
	InputPath string  `json:"input_path"`
	Options   Options `json:"options"`
}

// RowResult is the outcome of one selected row
type RowResult struct {
	Index int    `json:"index"`
	Title string `json:"title,omitempty"`
	Path  string `json:"path"`
	Pages int    `json:"pages"`
	Error string `json:"error,omitempty"`
}

// Failed reports whether the row could not be written
func (r RowResult) Failed() bool {
	return r.Error != ""
}

// RunResult summarizes a conversion run
type RunResult struct {
	InputPath string      `json:"input_path"`
	OutputDir string      `json:"output_dir"`
	Rows      []RowResult `json:"rows"`
	Written   int         `json:"written"`
	Failed    int         `json:"failed"`
}

// InspectRequest represents a request to describe an export's question groups
type InspectRequest struct {
	InputPath   string `json:"input_path"`
	Sheet       string `json:"sheet,omitempty"`
	RepeatLabel string `json:"repeat_label"`
}

// InspectResult describes the header grouping of an export
type InspectResult struct {
	InputPath string         `json:"input_path"`
	Rows      int            `json:"rows"`
	Columns   int            `json:"columns"`
	Groups    []survey.Group `json:"groups"`
}
