package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// renderLogo renders "MEAL AUTH" as a forest-to-emerald gradient across the letters.
func renderLogo() string {
	const text = "MEALAUTH"
	n := len(text)

	var out string
	for i := 0; i < n; i++ {
		b := float64(i) / float64(n-1)
		// Deep: (26, 58, 36) #1a3a24
		// Bright: (74, 222, 128) #4ade80
		r := clampByte(26 + b*(74-26))
		g := clampByte(58 + b*(222-58))
		bl := clampByte(36 + b*(128-36))

		s := lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(fmt.Sprintf("#%02X%02X%02X", r, g, bl)))
		out += s.Render(string(text[i]))

		if i == 3 {
			out += "    "
		} else if i < n-1 {
			out += "  "
		}
	}
	return out
}

func clampByte(v float64) int {
	if v > 255 {
		return 255
	}
	if v < 0 {
		return 0
	}
	return int(v)
}

var (
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8890a0"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e4e4ec")).
			Bold(true)

	normalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#c0c4d0"))

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#505868"))

	// Help bar
	helpKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8890a0"))

	helpLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#505868"))

	accentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#34d474"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ade80")).
			Bold(true)

	rejectStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#b45555"))

	goldStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#d4a844"))

	inputPromptStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#34d474")).
				Bold(true)

	inputPlaceholderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#343c4a"))

	// Big digits on the success page
	clockStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e4e4ec")).
			Bold(true).
			Padding(0, 2)

	// Detection box on the scanner page, 250x250 px scaled to cells
	scanBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#34d474")).
			Width(25).
			Height(9).
			Align(lipgloss.Center, lipgloss.Center)

	alertStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("#d4a844")).
			Foreground(lipgloss.Color("#e4e4ec")).
			Padding(1, 3).
			MaxWidth(72)

	successCardStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("#4ade80")).
				Padding(1, 4)
)

// helpEntry renders a key/label pair for the help bar.
func helpEntry(key, label string) string {
	return helpKeyStyle.Render(key) + " " + helpLabelStyle.Render(label)
}

// countdownStyle turns gold in the last minute and red in the last ten seconds.
func countdownStyle(secondsLeft int) lipgloss.Style {
	switch {
	case secondsLeft <= 10:
		return rejectStyle.Bold(true)
	case secondsLeft <= 60:
		return goldStyle.Bold(true)
	default:
		return accentStyle.Bold(true)
	}
}
