package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Palette. Adaptive colors keep the dashboard readable on light terminals.
var (
	primaryColor   = lipgloss.AdaptiveColor{Light: "#5B21B6", Dark: "#A78BFA"}
	secondaryColor = lipgloss.AdaptiveColor{Light: "#4338CA", Dark: "#818CF8"}
	successColor   = lipgloss.AdaptiveColor{Light: "#047857", Dark: "#34D399"}
	warningColor   = lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#FBBF24"}
	errorColor     = lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#F87171"}
	mutedColor     = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}
	cyanColor      = lipgloss.AdaptiveColor{Light: "#0E7490", Dark: "#22D3EE"}
	barFg          = lipgloss.Color("#F3F4F6")
	barBg          = lipgloss.Color("#1F2937")
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(primaryColor).Padding(0, 1)
	statusBarStyle = lipgloss.NewStyle().Foreground(barFg).Background(barBg).Padding(0, 1)
	inputBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(primaryColor).Padding(0, 1)
	itemStyle      = lipgloss.NewStyle().PaddingLeft(2).PaddingRight(2)
	selectedStyle  = itemStyle.Copy().Bold(true).Foreground(barFg).Background(primaryColor)
	helpStyle      = lipgloss.NewStyle().Italic(true).Foreground(mutedColor)
	labelStyle     = lipgloss.NewStyle().Foreground(mutedColor)
	bannerStyle    = lipgloss.NewStyle().Bold(true).Foreground(barFg).Background(errorColor).Padding(0, 1)
	onlineStyle    = lipgloss.NewStyle().Bold(true).Foreground(successColor)
	offlineStyle   = lipgloss.NewStyle().Foreground(errorColor)

	suggestBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(secondaryColor).Padding(0, 1)
	suggestTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(primaryColor)
)

// DisableColor switches all rendering to plain ASCII.
func DisableColor() {
	lipgloss.SetColorProfile(termenv.Ascii)
}
