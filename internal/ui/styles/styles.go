// Package styles contains Lip Gloss style definitions.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/dvars/internal/dvar"
)

var (
	// Semantic color names - Text hierarchy
	TextPrimaryColor     = lipgloss.AdaptiveColor{Light: "#333333", Dark: "#CCCCCC"}
	TextSecondaryColor   = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#BBBBBB"}
	TextMutedColor       = lipgloss.AdaptiveColor{Light: "#888888", Dark: "#696969"} // Hints, help text, footers
	TextDescriptionColor = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#999999"}
	TextPlaceholderColor = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#777777"}

	BorderDefaultColor = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#696969"}

	// Semantic color names - Status
	StatusSuccessColor = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	StatusWarningColor = lipgloss.AdaptiveColor{Light: "#FECA57", Dark: "#FECA57"}
	StatusErrorColor   = lipgloss.AdaptiveColor{Light: "#FF6B6B", Dark: "#FF8787"}

	SelectionIndicatorColor = lipgloss.AdaptiveColor{Light: "#000000", Dark: "#FFFFFF"}

	// Variable type colors (Catppuccin)
	TypeNumberColor = lipgloss.AdaptiveColor{Light: "#FE640B", Dark: "#FAB387"} // peach
	TypeVectorColor = lipgloss.AdaptiveColor{Light: "#179299", Dark: "#94E2D5"} // teal
	TypeTextColor   = lipgloss.AdaptiveColor{Light: "#DF8E1D", Dark: "#F9E2AF"} // yellow
	TypeEnumColor   = lipgloss.AdaptiveColor{Light: "#8839EF", Dark: "#CBA6F7"} // mauve
	TypeBoolColor   = lipgloss.AdaptiveColor{Light: "#1E66F5", Dark: "#89B4FA"} // blue
	TypeColorColor  = lipgloss.AdaptiveColor{Light: "#D20F39", Dark: "#F38BA8"} // red

	SelectionIndicatorStyle = lipgloss.NewStyle().Bold(true).Foreground(SelectionIndicatorColor)

	NameStyle        = lipgloss.NewStyle().Foreground(TextPrimaryColor)
	SelectedStyle    = lipgloss.NewStyle().Foreground(TextPrimaryColor).Bold(true)
	MutedStyle       = lipgloss.NewStyle().Foreground(TextMutedColor)
	DescriptionStyle = lipgloss.NewStyle().Foreground(TextDescriptionColor)
	PendingStyle     = lipgloss.NewStyle().Foreground(StatusWarningColor)

	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderDefaultColor).
			Padding(0, 1)

	// Status bar
	StatusBarStyle = lipgloss.NewStyle().
			Foreground(TextSecondaryColor).
			Padding(0, 1)

	StatusErrorStyle = lipgloss.NewStyle().
				Foreground(StatusErrorColor).
				Bold(true).
				Padding(0, 1)

	StatusSuccessStyle = lipgloss.NewStyle().
				Foreground(StatusSuccessColor).
				Padding(0, 1)
)

// TypeStyle returns the style used to print values of type t.
func TypeStyle(t dvar.Type) lipgloss.Style {
	switch t {
	case dvar.TypeBool:
		return lipgloss.NewStyle().Foreground(TypeBoolColor)
	case dvar.TypeInt, dvar.TypeInt64, dvar.TypeFloat:
		return lipgloss.NewStyle().Foreground(TypeNumberColor)
	case dvar.TypeFloat2, dvar.TypeFloat3, dvar.TypeFloat4:
		return lipgloss.NewStyle().Foreground(TypeVectorColor)
	case dvar.TypeEnum:
		return lipgloss.NewStyle().Foreground(TypeEnumColor)
	case dvar.TypeColor, dvar.TypeLinearRGB, dvar.TypeColorXYZ:
		return lipgloss.NewStyle().Foreground(TypeColorColor)
	default:
		return lipgloss.NewStyle().Foreground(TypeTextColor)
	}
}
