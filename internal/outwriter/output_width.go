package outwriter

import (
	"os"

	"github.com/huangsam/bidsim/internal/contract"
	"golang.org/x/term"
)

// GetMaxLabelWidth calculates the maximum width for requirement labels in
// table output based on terminal width and the fixed numeric columns.
func GetMaxLabelWidth(cfg *contract.Config, fixedColumns int) int {
	var termWidth int

	// Check for absolute width override from flag/env
	if cfg.Width > 0 {
		termWidth = cfg.Width
	}

	if termWidth == 0 { // Not set by override
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			// Fallback to conservative default if terminal size can't be detected
			termWidth = 80
		} else {
			termWidth = detectedWidth
		}
	}

	// Each numeric column takes roughly 12 cells with padding and separators
	baseWidth := fixedColumns*12 + 10

	available := termWidth - baseWidth
	if available < 15 {
		return 15
	}
	if available > 60 {
		return 60
	}
	return available
}
