package mcp

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/a3tai/survey2pdf/internal/config"
	"github.com/a3tai/survey2pdf/internal/convert"
	"github.com/a3tai/survey2pdf/internal/descriptions"
	"github.com/a3tai/survey2pdf/internal/pdf"
	"github.com/a3tai/survey2pdf/internal/security"
)

// Server represents the MCP server instance
type Server struct {
	config    *config.Config
	service   *convert.Service
	paths     *security.PathValidator
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, service *convert.Service) (*Server, error) {
	if service == nil {
		return nil, fmt.Errorf("service cannot be nil")
	}

	paths, err := security.NewPathValidator(cfg.Directory)
	if err != nil {
		return nil, fmt.Errorf("failed to create path validator: %w", err)
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false),
	)

	s := &Server{
		config:    cfg,
		service:   service,
		paths:     paths,
		mcpServer: mcpServer,
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool(
		"survey_headers",
		mcp.WithDescription(descriptions.GetToolDescription("survey_headers")),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the export, relative to the configured directory"),
		),
		mcp.WithString("sheet",
			mcp.Description("Worksheet name for XLSX inputs (default: first sheet)"),
		),
	), s.handleSurveyHeaders)

	s.mcpServer.AddTool(mcp.NewTool(
		"survey_convert",
		mcp.WithDescription(descriptions.GetToolDescription("survey_convert")),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the export, relative to the configured directory"),
		),
		mcp.WithString("outdir",
			mcp.Description("Output directory (default: "+s.config.OutputDir+")"),
		),
		mcp.WithString("rows",
			mcp.Description("Row selection such as '0,2,5-7' (default: all rows)"),
		),
		mcp.WithString("sheet",
			mcp.Description("Worksheet name for XLSX inputs (default: first sheet)"),
		),
		mcp.WithBoolean("continue_on_error",
			mcp.Description("Keep going when a row fails instead of aborting"),
		),
	), s.handleSurveyConvert)

	s.mcpServer.AddTool(mcp.NewTool(
		"pdf_validate_file",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_validate_file")),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the PDF file"),
		),
	), s.handlePDFValidateFile)

	s.mcpServer.AddTool(mcp.NewTool(
		"survey_server_info",
		mcp.WithDescription(descriptions.GetToolDescription("survey_server_info")),
	), s.handleServerInfo)
}

func (s *Server) handleSurveyHeaders(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path, err = s.paths.Resolve(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("security validation failed: %v", err)), nil
	}

	result, err := s.service.Inspect(convert.InspectRequest{
		InputPath:   path,
		Sheet:       request.GetString("sheet", s.config.Sheet),
		RepeatLabel: s.config.RepeatLabel,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatInspectResult(result)), nil
}

func (s *Server) handleSurveyConvert(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path, err = s.paths.Resolve(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("security validation failed: %v", err)), nil
	}

	opts := convert.OptionsFromConfig(s.config)
	opts.Rows = request.GetString("rows", opts.Rows)
	opts.Sheet = request.GetString("sheet", opts.Sheet)
	opts.ContinueOnError = request.GetBool("continue_on_error", opts.ContinueOnError)

	outDir, err := s.paths.Resolve(request.GetString("outdir", opts.OutputDir))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("security validation failed: %v", err)), nil
	}
	opts.OutputDir = outDir

	if s.config.IsDebug() {
		log.Printf("[mcp] survey_convert %s -> %s rows=%q", path, outDir, opts.Rows)
	}

	result, err := s.service.Convert(ctx, convert.ConvertRequest{InputPath: path, Options: opts})
	if err != nil {
		text := fmt.Sprintf("Conversion failed: %v", err)
		if result != nil {
			text += "\n\n" + formatRunResult(result)
		}
		return mcp.NewToolResultError(text), nil
	}

	return mcp.NewToolResultText(formatRunResult(result)), nil
}

func (s *Server) handlePDFValidateFile(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path, err = s.paths.Resolve(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("security validation failed: %v", err)), nil
	}

	result, err := s.service.ValidateFile(pdf.PDFValidateFileRequest{Path: path})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if result.Valid {
		return mcp.NewToolResultText(fmt.Sprintf("PDF is valid: %s (%d pages)", result.Path, result.Pages)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("PDF validation failed: %s\nReason: %s", result.Path, result.Message)), nil
}

func (s *Server) handleServerInfo(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "%s v%s\n", s.config.ServerName, s.config.Version)
	fmt.Fprintf(&b, "Directory: %s\n", s.paths.Root())
	fmt.Fprintf(&b, "Default output directory: %s\n", s.config.OutputDir)
	fmt.Fprintf(&b, "Max input size: %d MB\n\n", s.config.MaxFileSize/(1024*1024))
	b.WriteString("Tools:\n")
	for _, name := range descriptions.GetAllToolNames() {
		fmt.Fprintf(&b, "  %-20s %s\n", name, descriptions.GetSummary(name))
	}
	b.WriteString("\nAll paths are resolved relative to, and confined to, the directory above.\n")
	return mcp.NewToolResultText(b.String()), nil
}

func formatInspectResult(result *convert.InspectResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d rows, %d columns, %d question groups\n",
		result.InputPath, result.Rows, result.Columns, len(result.Groups))
	for i, g := range result.Groups {
		if !g.Repeated() {
			fmt.Fprintf(&b, "%3d. %s\n", i+1, g.Label)
			continue
		}
		fmt.Fprintf(&b, "%3d. %s (%d repeats)\n", i+1, g.Label, len(g.Members))
		for _, m := range g.Members {
			fmt.Fprintf(&b, "       %s: %s\n", m.Label, m.Column)
		}
	}
	return b.String()
}

func formatRunResult(result *convert.RunResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Wrote %d PDF(s) to %s", result.Written, result.OutputDir)
	if result.Failed > 0 {
		fmt.Fprintf(&b, ", %d row(s) failed", result.Failed)
	}
	b.WriteString("\n")
	for _, r := range result.Rows {
		if r.Failed() {
			fmt.Fprintf(&b, "  row %d: FAILED %s\n", r.Index, r.Error)
			continue
		}
		fmt.Fprintf(&b, "  row %d: %s (%d pages)\n", r.Index, r.Path, r.Pages)
	}
	return b.String()
}

// Run serves MCP over standard I/O until stdin closes
func (s *Server) Run(_ context.Context) error {
	if s.config.IsDebug() {
		log.Printf("Starting survey2pdf MCP server in stdio mode")
		log.Printf("Directory: %s", s.paths.Root())
	}

	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}
