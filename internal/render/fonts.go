package render

import (
	"fmt"
	"os"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// DefaultFontFamily is the family name the embedded Go fonts register under
const DefaultFontFamily = "GoSans"

// FontSet is a single TrueType family in two weights. All document text
// uses it; questions and headings use Bold, answers use Regular.
type FontSet struct {
	Family  string
	Regular []byte
	Bold    []byte
}

// DefaultFonts returns the embedded Go Regular / Go Bold family, which
// covers Latin, Greek and Cyrillic scripts.
func DefaultFonts() FontSet {
	return FontSet{
		Family:  DefaultFontFamily,
		Regular: goregular.TTF,
		Bold:    gobold.TTF,
	}
}

// LoadFonts reads a TTF family from disk. An empty regularPath returns the
// embedded family. An empty boldPath reuses the regular face for bold.
func LoadFonts(regularPath, boldPath string) (FontSet, error) {
	if regularPath == "" {
		if boldPath != "" {
			return FontSet{}, fmt.Errorf("bold font given without a regular font")
		}
		return DefaultFonts(), nil
	}

	regular, err := os.ReadFile(regularPath)
	if err != nil {
		return FontSet{}, fmt.Errorf("failed to read regular font: %w", err)
	}

	bold := regular
	if boldPath != "" {
		bold, err = os.ReadFile(boldPath)
		if err != nil {
			return FontSet{}, fmt.Errorf("failed to read bold font: %w", err)
		}
	}

	return FontSet{Family: "Custom", Regular: regular, Bold: bold}, nil
}
