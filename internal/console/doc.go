// Package console prints the user-facing status lines of tpi.
//
// Lines carry a colored tag ("TPI·Info => ", "TPI·Fail => ", ...) rendered
// with lipgloss. Colors are dropped automatically when the destination is
// not a terminal.
package console
