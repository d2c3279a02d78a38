// Package ui is the fyne front end: a board widget over the sync
// engine, a toolbar, and the session status bar.
package ui

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"netsketch/internal/board"
	"netsketch/internal/config"
	"netsketch/internal/engine"
	"netsketch/internal/export"
	"netsketch/internal/track"
	"netsketch/internal/transport"
	"netsketch/internal/wire"
)

// App owns the window, the engine and the session channel. It is also
// the engine's Sender: commands go out over the channel when one is
// connected and stay local otherwise.
type App struct {
	fyneApp fyne.App
	win     fyne.Window
	surface *board.Surface
	engine  *engine.Engine
	channel *transport.Channel
	status  *widget.Label
	log     *slog.Logger
}

var _ engine.Sender = (*App)(nil)

// New assembles the client from its configuration. Call Run to show
// the window and enter the event loop.
func New(cfg config.Config, log *slog.Logger) *App {
	if log == nil {
		log = slog.Default()
	}
	a := &App{
		fyneApp: app.New(),
		surface: board.New(cfg.BoardWidth, cfg.BoardHeight),
		status:  widget.NewLabel("local board"),
		log:     log,
	}
	a.engine = engine.New(a.surface, track.New(nil), a, log)
	a.engine.SetColor(cfg.Color)
	a.engine.SetBrushSize(cfg.BrushSize)

	a.win = a.fyneApp.NewWindow("netsketch")
	content := container.NewBorder(NewToolbar(a), a.status, nil, nil, NewBoardWidget(a.engine, a.surface))
	a.win.SetContent(content)
	a.win.Resize(fyne.NewSize(float32(cfg.BoardWidth), float32(cfg.BoardHeight)))
	return a
}

// Run joins the session unless the configuration says offline, then
// blocks in the UI event loop until the window closes.
func (a *App) Run(ctx context.Context, cfg config.Config) {
	if !cfg.Offline {
		a.join(ctx, cfg.SessionURL)
	}
	a.win.ShowAndRun()
	a.shutdown()
}

// Dialing happens before the window shows, so the handshake gets a
// deadline a dead relay cannot stall past.
const dialTimeout = 10 * time.Second

// join dials the session. Failure is not fatal: the board keeps
// working locally and the status bar says why we are alone.
func (a *App) join(ctx context.Context, url string) {
	ctx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	ch, err := transport.Dial(ctx, url, func(frame []byte) {
		fyne.Do(func() { a.engine.HandleFrame(frame) })
	}, a.log)
	if err != nil {
		a.log.Warn("could not join session, drawing locally", "err", err)
		a.status.SetText(fmt.Sprintf("connection failed: %v", err))
		return
	}
	a.channel = ch
	a.status.SetText("in session " + url)
	go a.watchChannel(ch)
}

// watchChannel updates the status bar once the session ends.
func (a *App) watchChannel(ch *transport.Channel) {
	<-ch.Done()
	fyne.Do(func() {
		if ch.Err() != nil {
			a.status.SetText("connection lost, drawing locally")
		} else {
			a.status.SetText("left session")
		}
	})
}

// Send implements engine.Sender over the session channel. With no
// channel there is nobody to tell, which is fine.
func (a *App) Send(cmd wire.Command) error {
	if a.channel == nil {
		return nil
	}
	return a.channel.Send(cmd)
}

func (a *App) savePNG() {
	a.saveAs("png", export.PNG)
}

func (a *App) savePDF() {
	a.saveAs("pdf", export.PDF)
}

// saveAs runs the save dialog and streams the board through write.
func (a *App) saveAs(ext string, write func(io.Writer, *board.Surface) error) {
	fd := dialog.NewFileSave(func(wc fyne.URIWriteCloser, err error) {
		if err != nil || wc == nil {
			return
		}
		defer wc.Close()
		if err := write(wc, a.surface); err != nil {
			a.log.Error("export failed", "file", wc.URI().Name(), "err", err)
			a.status.SetText("export failed")
			return
		}
		a.status.SetText("saved " + wc.URI().Name())
	}, a.win)
	fd.SetFileName(export.DefaultName(ext))
	fd.SetFilter(storage.NewExtensionFileFilter([]string{"." + ext}))
	fd.Show()
}

func (a *App) shutdown() {
	if a.channel != nil {
		_ = a.channel.Close()
	}
	_ = a.surface.Close()
}
