package main

import "github.com/charmbracelet/lipgloss"

var (
	// Tokyo Night palette
	bgColor      = lipgloss.Color("#1A1B26")
	fgColor      = lipgloss.Color("#C0CAF5")
	redColor     = lipgloss.Color("#F7768E")
	greenColor   = lipgloss.Color("#9ECE6A")
	yellowColor  = lipgloss.Color("#E0AF68")
	blueColor    = lipgloss.Color("#7AA2F7")
	magentaColor = lipgloss.Color("#BB9AF7")
	cyanColor    = lipgloss.Color("#7DCFFF")
	whiteColor   = lipgloss.Color("#A9B1D6")
	mutedColor   = lipgloss.Color("#565F89")

	// Header styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(magentaColor)

	headerStyle = lipgloss.NewStyle().
			Foreground(fgColor).
			Background(bgColor).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(blueColor).
			Padding(0, 1)

	// Pane styles
	mapPaneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(cyanColor).
			Padding(0, 1)

	distPaneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(yellowColor).
			Padding(0, 1)

	benchPaneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(greenColor).
			Padding(0, 1)

	paneTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(fgColor)

	// Memory map cells
	freeBlockStyle = lipgloss.NewStyle().
			Background(greenColor).
			Foreground(bgColor)

	usedBlockStyle = lipgloss.NewStyle().
			Background(redColor).
			Foreground(bgColor)

	highlightBlockStyle = lipgloss.NewStyle().
				Bold(true).
				Underline(true).
				Foreground(whiteColor)

	// Bars
	distBarStyle  = lipgloss.NewStyle().Foreground(yellowColor)
	usedBarStyle  = lipgloss.NewStyle().Foreground(redColor)
	freeBarStyle  = lipgloss.NewStyle().Foreground(greenColor)
	timeBarStyle  = lipgloss.NewStyle().Foreground(greenColor)
	blockBarStyle = lipgloss.NewStyle().Foreground(magentaColor)

	// Status bar
	statusStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Padding(0, 1)

	statusMessageStyle = lipgloss.NewStyle().
				Foreground(cyanColor).
				Padding(0, 1)

	// Help overlay styles
	helpTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(magentaColor).
			MarginBottom(1)

	helpKeyStyle = lipgloss.NewStyle().
			Foreground(cyanColor).
			Bold(true)

	helpDescStyle = lipgloss.NewStyle().
			Foreground(fgColor)

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(blueColor).
			Padding(1, 2).
			Background(bgColor)

	// Error styles
	errorStyle = lipgloss.NewStyle().
			Foreground(redColor).
			Bold(true)
)
