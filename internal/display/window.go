//go:build window

package display

import (
	"context"
	"errors"
	"image"
	"image/draw"
	"sync"
	"sync/atomic"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

const windowAvailable = true

// Window shows frames in a desktop window. Escape, q and closing the window
// request a quit; f toggles fullscreen. Serve must be called from the main
// goroutine.
type Window struct {
	title string
	scale int

	mu    sync.Mutex
	frame *image.RGBA
	dirty bool

	quit atomic.Bool
	done atomic.Bool
}

func NewWindow(opts Options) (*Window, error) {
	title := opts.Title
	if title == "" {
		title = "imagelife"
	}
	scale := opts.Scale
	if scale <= 0 {
		scale = 1
	}
	return &Window{title: title, scale: scale}, nil
}

func (w *Window) Present(img image.Image) error {
	b := img.Bounds()
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.frame == nil || w.frame.Bounds().Dx() != b.Dx() || w.frame.Bounds().Dy() != b.Dy() {
		w.frame = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	}
	draw.Draw(w.frame, w.frame.Bounds(), img, b.Min, draw.Src)
	w.dirty = true
	return nil
}

func (w *Window) Poll() bool {
	return w.quit.Load()
}

// Serve runs work on a separate goroutine and the window loop on the
// caller's. Closing the window cancels work's context.
func (w *Window) Serve(ctx context.Context, work func(context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errc := make(chan error, 1)
	go func() {
		errc <- work(ctx)
		w.done.Store(true)
	}()

	width, height := 640, 480
	w.mu.Lock()
	if w.frame != nil {
		width, height = w.frame.Bounds().Dx(), w.frame.Bounds().Dy()
	}
	w.mu.Unlock()

	ebiten.SetWindowTitle(w.title)
	ebiten.SetWindowSize(width*w.scale, height*w.scale)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(30)

	g := &windowGame{w: w, width: width, height: height}
	runErr := ebiten.RunGame(g)
	w.quit.Store(true)
	cancel()
	workErr := <-errc
	if runErr != nil && !errors.Is(runErr, ebiten.Termination) {
		return runErr
	}
	return workErr
}

func (w *Window) Close() error {
	w.quit.Store(true)
	return nil
}

type windowGame struct {
	w      *Window
	img    *ebiten.Image
	width  int
	height int
}

func (g *windowGame) Update() error {
	if g.w.done.Load() {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeyQ) {
		g.w.quit.Store(true)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF) {
		ebiten.SetFullscreen(!ebiten.IsFullscreen())
	}
	return nil
}

func (g *windowGame) Draw(screen *ebiten.Image) {
	g.w.mu.Lock()
	defer g.w.mu.Unlock()
	if g.w.frame == nil {
		return
	}
	b := g.w.frame.Bounds()
	if g.img == nil || g.img.Bounds().Dx() != b.Dx() || g.img.Bounds().Dy() != b.Dy() {
		if g.img != nil {
			g.img.Deallocate()
		}
		g.img = ebiten.NewImage(b.Dx(), b.Dy())
		g.width, g.height = b.Dx(), b.Dy()
		g.w.dirty = true
	}
	if g.w.dirty {
		g.img.WritePixels(g.w.frame.Pix)
		g.w.dirty = false
	}
	screen.DrawImage(g.img, nil)
}

func (g *windowGame) Layout(int, int) (int, int) {
	return g.width, g.height
}
