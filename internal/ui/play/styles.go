package play

import "github.com/charmbracelet/lipgloss"

var (
	textPrimaryColor = lipgloss.AdaptiveColor{Light: "#1A1A1A", Dark: "#EEEEEE"}
	textMutedColor   = lipgloss.AdaptiveColor{Light: "#888888", Dark: "#777777"}
	accentColor      = lipgloss.AdaptiveColor{Light: "#7D56F4", Dark: "#7D56F4"}
	correctColor     = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	incorrectColor   = lipgloss.AdaptiveColor{Light: "#E05252", Dark: "#FF6B6B"}
	pillTextColor    = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#1A1A1A"}
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor)

	metaStyle = lipgloss.NewStyle().
			Foreground(textMutedColor)

	promptStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(textPrimaryColor).
			MarginTop(1)

	buttonStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(textMutedColor).
			Foreground(textPrimaryColor).
			Width(6).
			Align(lipgloss.Center)

	// Button states after an answer.
	targetButtonStyle = buttonStyle.
				BorderForeground(correctColor).
				Foreground(correctColor).
				Bold(true)
	wrongButtonStyle = buttonStyle.
				BorderForeground(incorrectColor).
				Foreground(incorrectColor)

	pillStyle = lipgloss.NewStyle().
			Padding(0, 1).
			MarginRight(1).
			Foreground(pillTextColor)
	correctPillStyle   = pillStyle.Background(correctColor)
	incorrectPillStyle = pillStyle.Background(incorrectColor)
	accuracyPillStyle  = pillStyle.Background(accentColor)

	keyboardStyle = lipgloss.NewStyle().
			Foreground(textMutedColor).
			MarginTop(1)

	correctTextStyle   = lipgloss.NewStyle().Foreground(correctColor).Bold(true)
	incorrectTextStyle = lipgloss.NewStyle().Foreground(incorrectColor).Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(textMutedColor).
			Italic(true)

	helpKeyStyle  = lipgloss.NewStyle().Foreground(textPrimaryColor).Bold(true)
	helpDescStyle = lipgloss.NewStyle().Foreground(textMutedColor)
)
