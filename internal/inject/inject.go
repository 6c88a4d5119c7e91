// Package inject delivers finished transcripts to the focused application
// as synthetic keystrokes.
package inject

import "github.com/go-vgo/robotgo"

// Typer writes text into whatever window currently has keyboard focus.
type Typer interface {
	Type(text string) error
}

// RobotgoTyper injects text through the OS accessibility/event APIs.
type RobotgoTyper struct{}

func NewRobotgoTyper() *RobotgoTyper { return &RobotgoTyper{} }

func (RobotgoTyper) Type(text string) error {
	if text == "" {
		return nil
	}
	robotgo.TypeStr(text)
	return nil
}
