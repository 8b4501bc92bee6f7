// Package display presents the current best raster to the user. The
// evolver only sees Present and Poll; Serve lets a backend that must own the
// calling goroutine (a desktop window) host the run.
package display

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"

	"github.com/mattn/go-isatty"
)

var ErrUnavailable = errors.New("display backend unavailable")

type Host interface {
	Present(img image.Image) error
	Poll() bool
	// Serve runs work until it returns or the user closes the display.
	Serve(ctx context.Context, work func(context.Context) error) error
	Close() error
}

type Options struct {
	Title string
	// Scale multiplies the window size relative to the raster size.
	Scale int
	// SnapshotPath, when set on a headless display, receives every
	// presented frame as PNG.
	SnapshotPath string
}

// Kinds accepted by New.
const (
	KindAuto     = "auto"
	KindHeadless = "none"
	KindTerminal = "terminal"
	KindWindow   = "window"
)

// New builds the named backend. "auto" prefers a window when one is compiled
// in, then the terminal when stdout is a TTY, then headless.
func New(kind string, opts Options) (Host, error) {
	switch kind {
	case "", KindAuto:
		if windowAvailable {
			return newWindowHost(opts)
		}
		if stdoutIsTerminal() {
			return newTerminalHost()
		}
		return NewHeadless(opts), nil
	case KindHeadless, "headless":
		return NewHeadless(opts), nil
	case KindTerminal:
		return newTerminalHost()
	case KindWindow:
		return newWindowHost(opts)
	default:
		return nil, fmt.Errorf("unsupported display: %s", kind)
	}
}

func newWindowHost(opts Options) (Host, error) {
	w, err := NewWindow(opts)
	if err != nil {
		return nil, err
	}
	return w, nil
}

func newTerminalHost() (Host, error) {
	t, err := NewTerminal(nil)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func stdoutIsTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
