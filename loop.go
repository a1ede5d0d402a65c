package flock

import (
	"context"
	"fmt"
)

// Updater mutates instances and the camera before each frame.
type Updater interface {
	Update(frame int) error
}

// UpdateFunc adapts a function to Updater.
type UpdateFunc func(frame int) error

// Update calls f(frame).
func (f UpdateFunc) Update(frame int) error { return f(frame) }

// Loop drives a renderer: each step runs the update, then renders. All
// calls happen on the goroutine that calls Step or Run.
type Loop struct {
	renderer *Renderer
	updater  Updater
	frame    int
}

// NewLoop creates a loop. A nil updater renders without updates.
func NewLoop(r *Renderer, u Updater) *Loop {
	return &Loop{renderer: r, updater: u}
}

// Frame returns the number of completed steps.
func (l *Loop) Frame() int {
	return l.frame
}

// Step runs one update and renders one frame. An update error skips the
// render.
func (l *Loop) Step() error {
	if l.updater != nil {
		if err := l.updater.Update(l.frame); err != nil {
			return fmt.Errorf("update frame %d: %w", l.frame, err)
		}
	}
	if err := l.renderer.RenderFrame(); err != nil {
		return err
	}
	l.frame++
	return nil
}

// Run steps until frames steps completed or ctx is done. frames <= 0
// runs until ctx is done. It returns the first step error or ctx.Err().
func (l *Loop) Run(ctx context.Context, frames int) error {
	for done := 0; frames <= 0 || done < frames; done++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := l.Step(); err != nil {
			return err
		}
	}
	return nil
}
