// Package server serves a read-only web view of an open repository: the
// commit graph, working tree status and hit testing over HTTP, with a
// websocket that pushes fresh state whenever the repository changes.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/xvierd/gitlanes/internal/adapters/watcher"
	"github.com/xvierd/gitlanes/internal/domain"
	"github.com/xvierd/gitlanes/internal/graph"
	"github.com/xvierd/gitlanes/internal/ports"
	"github.com/xvierd/gitlanes/internal/view"
)

// DefaultAddr is the listen address used when none is configured.
const DefaultAddr = "127.0.0.1:7420"

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// MessageType tags a websocket message.
type MessageType string

const (
	MessageTypeRepository MessageType = "repository"
	MessageTypeGraph      MessageType = "graph"
	MessageTypeStatus     MessageType = "status"
	MessageTypeError      MessageType = "error"
)

// UpdateMessage is one websocket message.
type UpdateMessage struct {
	Type MessageType `json:"type"`
	Data interface{} `json:"data"`
}

type errorBody struct {
	Error string `json:"error"`
}

type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) send(msg UpdateMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.conn.WriteJSON(msg)
}

// Server caches the last view of the repository and fans it out.
type Server struct {
	repo    ports.RepositoryView
	addr    string
	palette view.Palette
	logger  zerolog.Logger

	// refreshMu orders refreshes so an older one never lands after a newer
	// one; loads coalesces requests that find nothing cached
	refreshMu sync.Mutex
	loads     singleflight.Group

	mu     sync.RWMutex
	cached struct {
		layout     *domain.Layout
		graph      view.Graph
		status     view.Status
		statusErr  string
		repository view.Repository
		loaded     bool
	}

	clientsMu sync.RWMutex
	clients   map[*client]bool
	broadcast chan UpdateMessage
}

// Option configures a Server.
type Option func(*Server)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(s *Server) { s.addr = addr }
}

// WithPalette sets the colors used for lanes.
func WithPalette(palette []string) Option {
	return func(s *Server) { s.palette = palette }
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// New creates a server over a repository view.
func New(repo ports.RepositoryView, opts ...Option) *Server {
	s := &Server{
		repo:      repo,
		addr:      DefaultAddr,
		logger:    zerolog.Nop(),
		clients:   make(map[*client]bool),
		broadcast: make(chan UpdateMessage, 256),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.addr
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/repository", s.handleRepository)
	mux.HandleFunc("GET /api/graph", s.handleGraph)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/select", s.handleSelect)
	mux.HandleFunc("GET /api/ws", s.handleWebSocket)
	return mux
}

// Refresh reloads graph, status and repository info, then broadcasts them.
// Concurrent calls run one at a time.
func (s *Server) Refresh(ctx context.Context) error {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	var (
		gv        domain.GraphView
		status    *domain.StatusReport
		statusErr error
		info      *domain.RepositoryInfo
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		gv = s.repo.Graph(gctx)
		return nil
	})
	g.Go(func() error {
		status, statusErr = s.repo.Status(gctx)
		return nil
	})
	g.Go(func() error {
		var err error
		info, err = s.repo.Repository(gctx)
		if err != nil {
			return fmt.Errorf("failed to describe repository: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		s.broadcastUpdate(MessageTypeError, errorBody{Error: err.Error()})
		return err
	}

	s.mu.Lock()
	s.cached.graph = view.NewGraph(gv, s.palette)
	s.cached.layout = nil
	if ready, ok := gv.(domain.GraphReady); ok {
		s.cached.layout = ready.Layout
	}
	s.cached.status = view.NewStatus(status)
	s.cached.statusErr = ""
	if statusErr != nil {
		s.cached.statusErr = statusErr.Error()
	}
	s.cached.repository = view.NewRepository(info)
	s.cached.loaded = true
	nodes := len(s.cached.graph.Nodes)
	msgs := s.stateMessages()
	s.mu.Unlock()

	for _, msg := range msgs {
		s.broadcastUpdate(msg.Type, msg.Data)
	}
	s.logger.Debug().Int("nodes", nodes).Msg("view refreshed")
	return nil
}

// Run serves HTTP on the configured address, refreshing on every watcher
// change, until ctx ends. changes may be nil.
func (s *Server) Run(ctx context.Context, changes <-chan watcher.Change) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	return s.Serve(ctx, ln, changes)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener, changes <-chan watcher.Change) error {
	if err := s.Refresh(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("initial refresh failed")
	}

	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.handleBroadcast(gctx)
		return nil
	})
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case change, ok := <-changes:
				if !ok {
					changes = nil
					continue
				}
				s.logger.Debug().Strs("paths", change.Paths).Msg("repository changed")
				if err := s.Refresh(gctx); err != nil {
					s.logger.Warn().Err(err).Msg("refresh failed")
				}
			}
		}
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.closeClients()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		s.logger.Info().Str("addr", ln.Addr().String()).Msg("web viewer listening")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	return g.Wait()
}

func (s *Server) handleRepository(w http.ResponseWriter, r *http.Request) {
	s.ensureLoaded(r.Context())
	s.mu.RLock()
	defer s.mu.RUnlock()
	writeJSON(w, http.StatusOK, s.cached.repository)
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	s.ensureLoaded(r.Context())
	s.mu.RLock()
	defer s.mu.RUnlock()
	writeJSON(w, http.StatusOK, s.cached.graph)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.ensureLoaded(r.Context())
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cached.statusErr != "" {
		writeJSON(w, http.StatusBadGateway, errorBody{Error: s.cached.statusErr})
		return
	}
	writeJSON(w, http.StatusOK, s.cached.status)
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	x, errX := strconv.Atoi(r.URL.Query().Get("x"))
	y, errY := strconv.Atoi(r.URL.Query().Get("y"))
	if errX != nil || errY != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "x and y must be integers"})
		return
	}

	s.ensureLoaded(r.Context())
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.cached.graph.State != view.GraphStateReady {
		writeJSON(w, http.StatusConflict, errorBody{Error: s.cached.graph.Reason})
		return
	}

	sel := view.Selection{X: x, Y: y}
	if hash, ok := graph.HitTest(s.cached.layout, domain.Point{X: x, Y: y}); ok {
		if n, found := s.cached.graph.FindNode(hash); found {
			sel.Found = true
			sel.Node = &n
		}
	}
	writeJSON(w, http.StatusOK, sel)
}

func (s *Server) isLoaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cached.loaded
}

// ensureLoaded refreshes when nothing is cached yet, such as after a failed
// initial refresh. Requests arriving together share one refresh.
func (s *Server) ensureLoaded(ctx context.Context) {
	if s.isLoaded() {
		return
	}
	_, err, _ := s.loads.Do("refresh", func() (interface{}, error) {
		if s.isLoaded() {
			return nil, nil
		}
		return nil, s.Refresh(ctx)
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("refresh failed")
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	c := &client{conn: conn}
	defer func() {
		s.removeClient(c)
	}()

	s.ensureLoaded(r.Context())

	// Send initial state before registering, so broadcasts arrive after it
	s.mu.RLock()
	msgs := s.stateMessages()
	s.mu.RUnlock()
	for _, msg := range msgs {
		if err := c.send(msg); err != nil {
			s.logger.Warn().Err(err).Msg("failed to send initial state")
			return
		}
	}

	s.clientsMu.Lock()
	s.clients[c] = true
	total := len(s.clients)
	s.clientsMu.Unlock()
	s.logger.Debug().Int("clients", total).Msg("websocket client connected")

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// stateMessages must be called with s.mu held.
func (s *Server) stateMessages() []UpdateMessage {
	msgs := []UpdateMessage{
		{Type: MessageTypeRepository, Data: s.cached.repository},
		{Type: MessageTypeGraph, Data: s.cached.graph},
	}
	if s.cached.statusErr != "" {
		msgs = append(msgs, UpdateMessage{Type: MessageTypeError, Data: errorBody{Error: s.cached.statusErr}})
	} else {
		msgs = append(msgs, UpdateMessage{Type: MessageTypeStatus, Data: s.cached.status})
	}
	return msgs
}

func (s *Server) handleBroadcast(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-s.broadcast:
			s.clientsMu.RLock()
			clients := make([]*client, 0, len(s.clients))
			for c := range s.clients {
				clients = append(clients, c)
			}
			s.clientsMu.RUnlock()

			for _, c := range clients {
				if err := c.send(msg); err != nil {
					s.logger.Debug().Err(err).Msg("dropping websocket client")
					s.removeClient(c)
				}
			}
		}
	}
}

func (s *Server) broadcastUpdate(msgType MessageType, data interface{}) {
	select {
	case s.broadcast <- UpdateMessage{Type: msgType, Data: data}:
	default:
		s.logger.Warn().Str("type", string(msgType)).Msg("broadcast channel full, dropping message")
	}
}

func (s *Server) removeClient(c *client) {
	s.clientsMu.Lock()
	delete(s.clients, c)
	s.clientsMu.Unlock()
	_ = c.conn.Close()
}

func (s *Server) closeClients() {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	for c := range s.clients {
		_ = c.conn.Close()
		delete(s.clients, c)
	}
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
