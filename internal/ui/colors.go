package ui

import (
	"github.com/charmbracelet/lipgloss"
)

const (
	colorAccent  = "#7D56F4"
	colorOK      = "#04B575"
	colorError   = "#FF0000"
	colorWarn    = "#FFA500"
	colorMuted   = "#626262"
	colorUser    = "#3C9EE7"
	colorContent = "#FAFAFA"
)

var styles = NewPalette(colorAccent, colorOK, colorError, colorWarn, colorMuted)

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title     lipgloss.Style
	ok        lipgloss.Style
	err       lipgloss.Style
	warn      lipgloss.Style
	help      lipgloss.Style
	muted     lipgloss.Style
	user      lipgloss.Style
	assistant lipgloss.Style
	tab       lipgloss.Style
	activeTab lipgloss.Style
	lockedTab lipgloss.Style
	cursor    lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title:     NewBold(t).MarginBottom(1),
		ok:        NewBold(s),
		err:       NewBold(e),
		warn:      NewStyle(w),
		help:      NewEm(h),
		muted:     NewStyle(h),
		user:      NewBold(colorUser),
		assistant: NewBold(t),
		tab:       NewStyle(colorContent).Padding(0, 2),
		activeTab: NewBold(colorContent).Background(lipgloss.Color(t)).Padding(0, 2),
		lockedTab: NewStyle(h).Padding(0, 2),
		cursor:    NewBold(t),
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}
