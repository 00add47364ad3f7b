package tui

// Key binding constants.
const (
	KeyQuit     = "q"
	KeyCtrlC    = "ctrl+c"
	KeyTab      = "tab"
	KeyShiftTab = "shift+tab"
)
