package display

import (
	"context"
	"fmt"
	"image"
	"sync"
	"sync/atomic"

	"github.com/gdamore/tcell/v2"
)

// Terminal draws frames with half-block cells, two pixel rows per cell.
// Escape, Ctrl-C and q request a quit.
type Terminal struct {
	screen tcell.Screen
	events chan tcell.Event
	stop   chan struct{}
	quit   atomic.Bool
	once   sync.Once
}

// NewTerminal takes over screen, or the process terminal when screen is nil.
func NewTerminal(screen tcell.Screen) (*Terminal, error) {
	if screen == nil {
		s, err := tcell.NewScreen()
		if err != nil {
			return nil, fmt.Errorf("open terminal: %w", err)
		}
		screen = s
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("init terminal: %w", err)
	}
	screen.HideCursor()
	screen.Clear()

	t := &Terminal{
		screen: screen,
		events: make(chan tcell.Event, 64),
		stop:   make(chan struct{}),
	}
	go t.pump()
	return t, nil
}

func (t *Terminal) pump() {
	for {
		ev := t.screen.PollEvent()
		if ev == nil {
			return
		}
		select {
		case t.events <- ev:
		case <-t.stop:
			return
		}
	}
}

func (t *Terminal) Present(img image.Image) error {
	cols, rows := t.screen.Size()
	if cols <= 0 || rows <= 0 {
		return nil
	}
	b := img.Bounds()
	if b.Empty() {
		return nil
	}

	// Fit the image into cols x 2*rows pixels, keeping its aspect.
	pw, ph := cols, 2*rows
	if b.Dx()*ph > b.Dy()*pw {
		ph = max(b.Dy()*pw/b.Dx(), 1)
	} else {
		pw = max(b.Dx()*ph/b.Dy(), 1)
	}
	sample := func(x, y int) tcell.Color {
		sx := b.Min.X + x*b.Dx()/pw
		sy := b.Min.Y + y*b.Dy()/ph
		r, g, bl, _ := img.At(sx, sy).RGBA()
		return tcell.NewRGBColor(int32(r>>8), int32(g>>8), int32(bl>>8))
	}

	t.screen.Clear()
	for cy := 0; cy < (ph+1)/2; cy++ {
		for x := 0; x < pw; x++ {
			style := tcell.StyleDefault.Foreground(sample(x, 2*cy))
			if 2*cy+1 < ph {
				style = style.Background(sample(x, 2*cy+1))
			}
			t.screen.SetContent(x, cy, '▀', nil, style)
		}
	}
	t.screen.Show()
	return nil
}

func (t *Terminal) Poll() bool {
	for {
		select {
		case ev := <-t.events:
			t.handle(ev)
		default:
			return t.quit.Load()
		}
	}
}

func (t *Terminal) handle(ev tcell.Event) {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch {
		case ev.Key() == tcell.KeyEscape, ev.Key() == tcell.KeyCtrlC:
			t.quit.Store(true)
		case ev.Key() == tcell.KeyRune && (ev.Rune() == 'q' || ev.Rune() == 'Q'):
			t.quit.Store(true)
		}
	case *tcell.EventResize:
		t.screen.Sync()
	}
}

func (t *Terminal) Serve(ctx context.Context, work func(context.Context) error) error {
	return work(ctx)
}

func (t *Terminal) Close() error {
	t.once.Do(func() {
		close(t.stop)
		t.screen.Fini()
	})
	return nil
}
