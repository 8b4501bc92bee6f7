//go:build !window

package display

import (
	"context"
	"fmt"
	"image"
)

const windowAvailable = false

// Window is a placeholder in builds without the window tag.
type Window struct{}

func NewWindow(Options) (*Window, error) {
	return nil, fmt.Errorf("window display requires the window build tag: %w", ErrUnavailable)
}

func (*Window) Present(image.Image) error { return ErrUnavailable }
func (*Window) Poll() bool                { return true }
func (*Window) Close() error              { return nil }

func (*Window) Serve(context.Context, func(context.Context) error) error {
	return ErrUnavailable
}
