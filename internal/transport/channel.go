// Package transport carries wire frames between a client and the
// session relay over a websocket. The protocol is one JSON command per
// text frame; anything else on the socket is ignored.
package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"netsketch/internal/wire"
)

// ErrChannelClosed is returned by Send once the channel is no longer
// connected. There is no automatic reconnect; callers keep drawing
// locally and dial a fresh channel when they want back in.
var ErrChannelClosed = errors.New("transport: channel closed")

// DefaultPath is the relay endpoint joined when a session URL names
// only a host.
const DefaultPath = "/room"

// Frames queued for delivery before the channel starts dropping. A
// slow socket costs frames, never a blocked UI.
const outboundQueue = 256

// Handler receives each inbound text frame. It runs on the channel's
// read loop; implementations that touch UI state must hop onto their
// own loop first.
type Handler func(frame []byte)

// State reports whether a channel can still carry frames.
type State int

const (
	StateOpen State = iota
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Channel is one client's connection to a session. Send queues
// outbound commands; inbound frames are delivered to the Handler
// passed to Dial. All methods are safe for concurrent use.
type Channel struct {
	conn    *websocket.Conn
	log     *slog.Logger
	onFrame Handler
	out     chan []byte
	done    chan struct{}
	once    sync.Once

	mu    sync.Mutex
	state State
	err   error
}

// Dial joins the session at rawURL and starts the read and write
// loops. ws, wss, http and https schemes are accepted; a bare
// host:port gets ws and the default room path.
func Dial(ctx context.Context, rawURL string, onFrame Handler, log *slog.Logger) (*Channel, error) {
	if log == nil {
		log = slog.Default()
	}
	if onFrame == nil {
		onFrame = func([]byte) {}
	}
	u, err := SessionURL(rawURL)
	if err != nil {
		return nil, err
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return nil, fmt.Errorf("transport: dial %s: %w", u, err)
	}
	c := &Channel{
		conn:    conn,
		log:     log,
		onFrame: onFrame,
		out:     make(chan []byte, outboundQueue),
		done:    make(chan struct{}),
		state:   StateOpen,
	}
	go c.readPump()
	go c.writePump()
	log.Info("joined session", "url", u)
	return c, nil
}

// Send encodes one command and queues it as a text frame. It never
// blocks: when the queue is full the frame is dropped and the stroke
// survives only locally.
func (c *Channel) Send(cmd wire.Command) error {
	if c.State() == StateClosed {
		return ErrChannelClosed
	}
	data, err := wire.Encode(cmd)
	if err != nil {
		return err
	}
	select {
	case c.out <- data:
		return nil
	default:
		c.log.Debug("outbound queue full, dropping frame", "kind", cmd.Kind)
		return nil
	}
}

// State reports whether the channel is still connected.
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err returns the failure that closed the channel, or nil after a
// clean shutdown. It is meaningful once Done is closed.
func (c *Channel) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Done is closed when the channel stops carrying frames, whichever
// side ended it.
func (c *Channel) Done() <-chan struct{} {
	return c.done
}

// Close tells the relay we are leaving and tears the connection down.
// It is safe to call more than once.
func (c *Channel) Close() error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	c.teardown(nil)
	return nil
}

func (c *Channel) readPump() {
	for {
		mt, data, err := c.conn.ReadMessage()
		if err != nil {
			c.teardown(err)
			return
		}
		if mt != websocket.TextMessage {
			continue
		}
		c.onFrame(data)
	}
}

func (c *Channel) writePump() {
	for {
		select {
		case <-c.done:
			return
		case data := <-c.out:
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.teardown(err)
				return
			}
		}
	}
}

func (c *Channel) teardown(err error) {
	c.once.Do(func() {
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			err = nil
		}
		c.mu.Lock()
		c.state = StateClosed
		c.err = err
		c.mu.Unlock()
		close(c.done)
		_ = c.conn.Close()
		if err != nil {
			c.log.Warn("session connection lost", "err", err)
		} else {
			c.log.Info("left session")
		}
	})
}

// SessionURL normalizes a user-supplied session address into a
// websocket URL. http and https map onto ws and wss, a missing scheme
// means plain ws, and a missing path falls back to DefaultPath.
func SessionURL(raw string) (string, error) {
	if raw == "" {
		return "", errors.New("transport: empty session URL")
	}
	if !strings.Contains(raw, "://") {
		raw = "ws://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("transport: bad session URL %q: %w", raw, err)
	}
	switch u.Scheme {
	case "ws", "wss":
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("transport: unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("transport: no host in session URL %q", raw)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = DefaultPath
	}
	return u.String(), nil
}
