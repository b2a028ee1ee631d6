package ui

// Default component dimensions.
const (
	// DefaultWidth is assumed until the terminal reports its size.
	DefaultWidth = 80

	// DefaultProgressBarWidth is the default width for progress bars.
	DefaultProgressBarWidth = 40
)
