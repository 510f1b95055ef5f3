package welcome

import (
	"charm.land/lipgloss/v2"

	"github.com/abhisek/pathwise/internal/ui/theme"
)

const bannerArt = `
 ██████╗  █████╗ ████████╗██╗  ██╗██╗    ██╗██╗███████╗███████╗
 ██╔══██╗██╔══██╗╚══██╔══╝██║  ██║██║    ██║██║██╔════╝██╔════╝
 ██████╔╝███████║   ██║   ███████║██║ █╗ ██║██║███████╗█████╗
 ██╔═══╝ ██╔══██║   ██║   ██╔══██║██║███╗██║██║╚════██║██╔══╝
 ██║     ██║  ██║   ██║   ██║  ██║╚███╔███╔╝██║███████║███████╗
 ╚═╝     ╚═╝  ╚═╝   ╚═╝   ╚═╝  ╚═╝ ╚══╝╚══╝ ╚═╝╚══════╝╚══════╝`

const bannerCompact = "P A T H W I S E"

// bannerWidth is the column count of bannerArt.
const bannerWidth = 66

// RenderBanner returns the PATHWISE banner styled in the primary color,
// falling back to spaced letters on narrow terminals.
func RenderBanner(width int) string {
	style := lipgloss.NewStyle().
		Foreground(theme.Primary).
		Bold(true)

	if width < bannerWidth {
		return style.Render(bannerCompact)
	}
	return style.Render(bannerArt)
}
