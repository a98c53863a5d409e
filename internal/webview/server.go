// Package webview hosts the preview document in a browser page. The page is
// served over HTTP and connects back on a websocket that carries both script
// execution and bridge calls.
package webview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/bethropolis/hubmark/internal/bridge"
	"github.com/bethropolis/hubmark/internal/logger"
	"github.com/bethropolis/hubmark/internal/surface"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// DefaultAddr binds to loopback on a free port.
const DefaultAddr = "127.0.0.1:0"

// BridgePath is where the page opens its websocket.
const BridgePath = "/bridge"

// Options configures the server.
type Options struct {
	Addr string
	// AllowOrigins lists extra origins allowed to load the page and open the
	// bridge, for pages embedded elsewhere. The server's own origin is always allowed.
	AllowOrigins []string
}

// Server serves one document to at most one page at a time. It implements
// surface.Surface and bridge.Channel.
type Server struct {
	addr     string
	engine   *gin.Engine
	upgrader websocket.Upgrader
	origins  map[string]struct{}

	mu        sync.Mutex
	document  string
	peer      *peer
	nextID    uint64
	objects   map[string]bridge.Handler
	onConnect []func(remote string)
	listener  net.Listener
	http      *http.Server
}

// New creates a server. Nothing listens until Start.
func New(opts Options) *Server {
	if opts.Addr == "" {
		opts.Addr = DefaultAddr
	}
	s := &Server{
		addr:    opts.Addr,
		objects: make(map[string]bridge.Handler),
		origins: make(map[string]struct{}),
	}
	for _, o := range opts.AllowOrigins {
		s.origins[o] = struct{}{}
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	if len(opts.AllowOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins: opts.AllowOrigins,
			AllowMethods: []string{"GET"},
			MaxAge:       12 * time.Hour,
		}))
	}
	r.GET("/", s.handleDocument)
	r.GET(BridgePath, s.handleBridge)
	s.engine = r
	return s
}

// requestLogger routes gin's access log through the package logger.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.DebugTagf("http", "%3d | %13v | %15s | %-7s %s",
			c.Writer.Status(), time.Since(start), c.ClientIP(), c.Request.Method, c.Request.URL.Path)
	}
}

// checkOrigin accepts same-host pages and configured origins.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if _, ok := s.origins[origin]; ok {
		return true
	}
	return origin == "http://"+r.Host || origin == "https://"+r.Host
}

// Handler exposes the HTTP routes, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start listens and serves until ctx is done or Close is called.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("webview: listen on %s: %w", s.addr, err)
	}
	srv := &http.Server{Handler: s.engine, ReadHeaderTimeout: 10 * time.Second}

	s.mu.Lock()
	s.listener = ln
	s.http = srv
	s.mu.Unlock()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("webview: serve: %v", err)
		}
	}()
	go func() {
		<-ctx.Done()
		s.Close()
	}()
	logger.Infof("webview: serving preview at %s", s.URL())
	return nil
}

// URL returns the page address, or "" before Start.
func (s *Server) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return "http://" + s.listener.Addr().String() + "/"
}

// Close disconnects the page and stops serving.
func (s *Server) Close() error {
	s.mu.Lock()
	p := s.peer
	s.peer = nil
	srv := s.http
	s.http = nil
	s.mu.Unlock()

	if p != nil {
		p.close()
	}
	if srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

// OnConnect registers fn to run, on the connection's goroutine, whenever a
// page attaches. Pages that reload start from an empty document.
func (s *Server) OnConnect(fn func(remote string)) {
	s.mu.Lock()
	s.onConnect = append(s.onConnect, fn)
	s.mu.Unlock()
}

// Connected reports whether a page is attached.
func (s *Server) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peer != nil
}

// Load implements surface.Surface. An attached page is told to reload.
func (s *Server) Load(document string) error {
	if document == "" {
		return errors.New("webview: empty document")
	}
	s.mu.Lock()
	s.document = document
	attached := s.peer != nil
	s.mu.Unlock()

	if attached {
		s.Execute("window.location.reload();", nil)
	}
	return nil
}

// Execute implements surface.Surface. Scripts are sent in call order over the
// single writer of the attached page.
func (s *Server) Execute(script string, onResult surface.ResultFunc) {
	if onResult == nil {
		onResult = func(_ any, err error) {
			if err != nil {
				logger.Warnf("webview: %v", err)
			}
		}
	}

	s.mu.Lock()
	p := s.peer
	if p == nil {
		s.mu.Unlock()
		onResult(nil, surface.ErrNoPeer)
		return
	}
	s.nextID++
	id := s.nextID
	msg, err := json.Marshal(frame{Kind: kindExec, ID: id, Script: script})
	if err != nil {
		s.mu.Unlock()
		onResult(nil, &surface.ScriptError{Script: script, Reason: err.Error()})
		return
	}
	if !p.expect(id, pendingExec{script: script, onResult: onResult}) {
		s.mu.Unlock()
		onResult(nil, surface.ErrPeerGone)
		return
	}
	// Enqueue under s.mu so frames leave in id order. A failed enqueue closes
	// the peer, which fails the callback registered above.
	p.enqueue(msg)
	s.mu.Unlock()
}

// Register implements bridge.Channel.
func (s *Server) Register(object string, h bridge.Handler) {
	s.mu.Lock()
	s.objects[object] = h
	s.mu.Unlock()
	logger.DebugTagf("webview", "registered bridge object %q", object)
}

// Invoke implements bridge.Channel.
func (s *Server) Invoke(method string, args ...any) error {
	raw, err := encodeArgs(args)
	if err != nil {
		return fmt.Errorf("webview: encode %s arguments: %w", method, err)
	}
	msg, err := json.Marshal(frame{Kind: kindCall, Method: method, Args: raw})
	if err != nil {
		return fmt.Errorf("webview: encode %s: %w", method, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.peer == nil {
		return surface.ErrNoPeer
	}
	if !s.peer.enqueue(msg) {
		return surface.ErrPeerGone
	}
	return nil
}

func (s *Server) handleDocument(c *gin.Context) {
	s.mu.Lock()
	doc := s.document
	s.mu.Unlock()
	if doc == "" {
		c.String(http.StatusServiceUnavailable, "no document loaded")
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(doc))
}

func (s *Server) handleBridge(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warnf("webview: upgrade from %s failed: %v", c.Request.RemoteAddr, err)
		return
	}
	p := newPeer(conn, c.Request.RemoteAddr)

	s.mu.Lock()
	old := s.peer
	s.peer = p
	hooks := append(([]func(string))(nil), s.onConnect...)
	s.mu.Unlock()

	if old != nil {
		logger.Infof("webview: page %s superseded by %s", old.remote, p.remote)
		old.supersede()
	} else {
		logger.Infof("webview: page connected from %s", p.remote)
	}

	go p.writePump()
	for _, fn := range hooks {
		fn(p.remote)
	}
	s.readPump(p)
}

// readPump handles frames from the page until the connection ends.
func (s *Server) readPump(p *peer) {
	defer func() {
		s.mu.Lock()
		if s.peer == p {
			s.peer = nil
		}
		s.mu.Unlock()
		p.close()
		logger.Infof("webview: page %s disconnected", p.remote)
	}()

	p.conn.SetReadLimit(maxMessageSize)
	p.conn.SetReadDeadline(time.Now().Add(pongWait))
	p.conn.SetPongHandler(func(string) error {
		return p.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := p.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.DebugTagf("webview", "read from %s: %v", p.remote, err)
			}
			return
		}
		p.conn.SetReadDeadline(time.Now().Add(pongWait))

		var f frame
		if err := json.Unmarshal(data, &f); err != nil {
			logger.Warnf("webview: malformed frame from %s: %v", p.remote, err)
			continue
		}
		s.handleFrame(p, f)
	}
}

func (s *Server) handleFrame(p *peer, f frame) {
	switch f.Kind {
	case kindResult:
		e, ok := p.resolve(f.ID)
		if !ok {
			logger.DebugTagf("webview", "result for unknown exec %d", f.ID)
			return
		}
		if f.Error != "" {
			e.onResult(nil, &surface.ScriptError{Script: e.script, Reason: f.Error})
			return
		}
		e.onResult(decodeValue(f.Value), nil)

	case kindCall:
		s.mu.Lock()
		h, ok := s.objects[f.Object]
		s.mu.Unlock()
		if !ok {
			logger.Warnf("webview: call to unregistered object %q", f.Object)
			return
		}
		if err := h.Call(f.Method, f.Args); err != nil {
			logger.Warnf("webview: %s.%s: %v", f.Object, f.Method, err)
		}

	default:
		logger.Warnf("webview: unknown frame kind %q", f.Kind)
	}
}
