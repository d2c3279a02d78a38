// Package relay implements the session server. It keeps no picture of
// the board: every valid command a client sends is re-encoded in
// canonical form and fanned out to the other clients in the same room,
// and that is the whole job. Clients that join late start from a blank
// board.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sort"
	"sync"

	"github.com/felixge/httpsnoop"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"netsketch/internal/wire"
)

// DefaultRoom is where clients land when their session URL names no
// room.
const DefaultRoom = "default"

// Frames queued per client before the relay starts dropping. A slow
// client loses frames; it never slows the room down.
const clientQueue = 64

// Server relays drawing commands between the clients of each room.
type Server struct {
	addr string
	log  *slog.Logger
	up   websocket.Upgrader

	mu    sync.Mutex
	rooms map[string]*room

	httpSrv *http.Server
}

type room struct {
	name    string
	clients map[string]*client
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// New returns a relay that will bind to addr, for example ":8080".
func New(addr string, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		addr: addr,
		log:  log,
		up: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browser clients of the same session are welcome.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		rooms: make(map[string]*room),
	}
}

// Handler returns the relay's HTTP surface: the websocket endpoints
// and a small JSON room listing.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(func(handler http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			m := httpsnoop.CaptureMetrics(handler, w, req)
			s.log.Info("handled", "method", req.Method, "url", req.URL, "duration", m.Duration, "status", m.Code)
		})
	})
	r.Path("/room").HandlerFunc(s.serveRoom)
	r.Path("/room/{room}").HandlerFunc(s.serveRoom)
	r.Path("/rooms").Methods(http.MethodGet).HandlerFunc(s.listRooms)
	return r
}

// ListenAndServe runs the relay until ctx is canceled or the listener
// fails.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.httpSrv = &http.Server{Handler: s.Handler()}
	go func() {
		<-ctx.Done()
		_ = s.httpSrv.Close()
	}()

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("relay: listen on %s: %w", s.addr, err)
	}
	s.log.Info("relay listening", "addr", ln.Addr().String())
	if err := s.httpSrv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) serveRoom(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["room"]
	if name == "" {
		name = DefaultRoom
	}
	conn, err := s.up.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("upgrade failed", "err", err)
		return
	}

	cl := &client{id: uuid.NewString(), conn: conn, send: make(chan []byte, clientQueue)}
	rm := s.join(name, cl)
	go cl.writePump()
	s.log.Info("client joined", "room", name, "client", cl.id)

	s.readLoop(rm, cl)
	s.leave(rm, cl)
}

// readLoop forwards each valid command from one client to the rest of
// its room. Frames that do not parse are dropped here so peers only
// ever see well-formed commands; kinds this relay does not know are
// dropped too rather than forwarded blind.
func (s *Server) readLoop(rm *room, cl *client) {
	for {
		mt, data, err := cl.conn.ReadMessage()
		if err != nil {
			return
		}
		if mt != websocket.TextMessage {
			continue
		}
		cmd, err := wire.Decode(data)
		switch {
		case errors.Is(err, wire.ErrUnknownKind):
			s.log.Debug("dropping frame of unknown kind", "client", cl.id, "err", err)
			continue
		case err != nil:
			s.log.Warn("dropping malformed frame", "client", cl.id, "err", err)
			continue
		}
		frame, err := wire.Encode(cmd)
		if err != nil {
			s.log.Warn("re-encode failed", "client", cl.id, "err", err)
			continue
		}
		s.broadcast(rm, cl.id, frame)
	}
}

func (s *Server) broadcast(rm *room, from string, frame []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, cl := range rm.clients {
		if id == from {
			continue
		}
		select {
		case cl.send <- frame:
		default:
			s.log.Debug("dropping frame to slow client", "client", id)
		}
	}
}

func (s *Server) join(name string, cl *client) *room {
	s.mu.Lock()
	defer s.mu.Unlock()
	rm, ok := s.rooms[name]
	if !ok {
		rm = &room{name: name, clients: make(map[string]*client)}
		s.rooms[name] = rm
	}
	rm.clients[cl.id] = cl
	return rm
}

func (s *Server) leave(rm *room, cl *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := rm.clients[cl.id]; !ok {
		return
	}
	delete(rm.clients, cl.id)
	close(cl.send)
	_ = cl.conn.Close()
	if len(rm.clients) == 0 {
		delete(s.rooms, rm.name)
	}
	s.log.Info("client left", "room", rm.name, "client", cl.id)
}

func (s *Server) listRooms(w http.ResponseWriter, _ *http.Request) {
	type roomInfo struct {
		Name    string `json:"name"`
		Clients int    `json:"clients"`
	}
	s.mu.Lock()
	resp := struct {
		Rooms []roomInfo `json:"rooms"`
	}{Rooms: []roomInfo{}}
	for _, rm := range s.rooms {
		resp.Rooms = append(resp.Rooms, roomInfo{Name: rm.name, Clients: len(rm.clients)})
	}
	s.mu.Unlock()
	sort.Slice(resp.Rooms, func(i, j int) bool { return resp.Rooms[i].Name < resp.Rooms[j].Name })

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (c *client) writePump() {
	for data := range c.send {
		_ = c.conn.WriteMessage(websocket.TextMessage, data)
	}
}
