package descriptions

import "sort"

// Tool descriptions with practical examples and use cases

const (
	SurveyHeadersDescription = `List the question groups detected in a survey CSV or XLSX export.

**When to use:** Before converting an export, to see how its columns will be laid out in the generated documents.

**Why it's useful:** Survey123 exports repeat questions as Attachment, Attachment.1, Attachment.2, ... This tool shows which columns were merged into one question and the labels each repeat will get.

**Examples:**
• Preview an export: "Show the question groups of exports/tier1.csv"
• Pick a worksheet: "List the headers of responses.xlsx, sheet Responses"

**Common workflows:**
1. Preview: survey_headers → choose rows and exclusions → survey_convert
2. Troubleshooting: survey_headers → spot unexpected columns → exclude them

**Best practices:** Run this first on an unfamiliar export; the row count it reports bounds valid row selections.`

	SurveyConvertDescription = `Generate one PDF document per response row of a survey export.

**When to use:** Turning survey submissions into printable or archivable per-response documents.

**Why it's useful:** Each PDF carries the row's title as heading, every answered question with its answer, repeated questions grouped under a section, and page footers. Files are named after the row's title column.

**Examples:**
• Convert everything: "Convert exports/tier1.csv into pdfs/"
• Convert a few rows: "Convert rows 0,2,5-7 of exports/tier1.csv"
• Tolerate bad rows: "Convert exports/tier1.csv and keep going if a row fails"

**Common workflows:**
1. Archive: survey_headers → survey_convert → pdf_validate_file on a sample
2. Re-run a fix: survey_convert with rows set to the failed indexes

**Best practices:** Row indexes are zero-based data rows. An invalid selection writes nothing. Rows with the same title overwrite each other's file.`

	PDFValidateFileDescription = `Verify that a generated PDF is structurally valid and report its page count.

**When to use:** After a conversion, or before handing generated documents to another system.

**Why it's useful:** Checks the file with two independent PDF parsers and confirms they agree on the page count.

**Examples:**
• Spot check: "Validate pdfs/Soil_Survey.pdf"

**Best practices:** Conversions already validate every file they write unless verification is disabled.`

	SurveyServerInfoDescription = `Get server information, the directory tools are confined to, and the available tools.

**When to use:** To discover where exports can be read from and where PDFs may be written.

**Best practices:** All paths passed to the other tools are resolved relative to the directory reported here.`
)

// ToolDescriptions maps tool names to their descriptions
var ToolDescriptions = map[string]string{
	"survey_headers":     SurveyHeadersDescription,
	"survey_convert":     SurveyConvertDescription,
	"pdf_validate_file":  PDFValidateFileDescription,
	"survey_server_info": SurveyServerInfoDescription,
}

// GetToolDescription returns the description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetSummary returns the first line of a tool's description
func GetSummary(toolName string) string {
	desc := GetToolDescription(toolName)
	for i, r := range desc {
		if r == '\n' {
			return desc[:i]
		}
	}
	return desc
}

// GetAllToolNames returns the names of all tools in alphabetical order
func GetAllToolNames() []string {
	names := make([]string, 0, len(ToolDescriptions))
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
