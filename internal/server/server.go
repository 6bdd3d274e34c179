// Package server exposes the REST and websocket surfaces over the
// lobby and its game actors.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"buckeuchre/internal/ai"
	"buckeuchre/internal/auth"
	"buckeuchre/internal/deck"
	"buckeuchre/internal/engine"
	"buckeuchre/internal/game"
	"buckeuchre/internal/lobby"
	"buckeuchre/internal/statistics"
)

// Options wires the server's collaborators
type Options struct {
	Logger    *log.Logger
	Clock     quartz.Clock
	Validator auth.Validator
	Sink      statistics.Sink
}

// Server hosts the HTTP listener, the websocket sessions, and the
// lobby
type Server struct {
	log       *log.Logger
	cfg       *Config
	clock     quartz.Clock
	lobby     *lobby.Registry
	metrics   *Metrics
	validator auth.Validator
	upgrader  websocket.Upgrader
	router    *gin.Engine

	mu    sync.Mutex
	conns map[string]*Connection
}

// New builds a server from configuration
func New(cfg *Config, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Clock == nil {
		opts.Clock = quartz.NewReal()
	}
	if opts.Validator == nil {
		opts.Validator = auth.NewStaticValidator(nil)
	}
	if opts.Sink == nil {
		opts.Sink = statistics.NopSink{}
	}

	metrics := NewMetrics()
	registry := lobby.NewRegistry(lobby.Options{
		Logger:  opts.Logger,
		Clock:   opts.Clock,
		Timers:  game.Timers{
			TrickReveal:     cfg.Timers.TrickReveal(),
			RoundStart:      cfg.Timers.RoundStart(),
			DisconnectGrace: cfg.Timers.DisconnectGrace(),
		},
		Abandon: game.AbandonPolicy(cfg.Server.AbandonPolicy),
		Sink:    opts.Sink,
		Metrics: metrics,
		AIDelay: [2]time.Duration{
			time.Duration(cfg.AI.DelayMinMs) * time.Millisecond,
			time.Duration(cfg.AI.DelayMaxMs) * time.Millisecond,
		},
		Analysis: cfg.AI.AnalysisIterations,
		DevDeals: cfg.Server.DevEndpoints,
	})

	s := &Server{
		log:       opts.Logger.WithPrefix("server"),
		cfg:       cfg,
		clock:     opts.Clock,
		lobby:     registry,
		metrics:   metrics,
		validator: opts.Validator,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The opaque client may be served from anywhere in dev.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		conns: make(map[string]*Connection),
	}
	s.router = s.buildRouter()
	return s
}

// Lobby exposes the registry for wiring and tests
func (s *Server) Lobby() *lobby.Registry { return s.lobby }

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler { return s.router }

// Run serves until the context ends, then drains
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Address, s.cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: s.router}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.lobby.Shutdown()
	return err
}

func (s *Server) buildRouter() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "games": s.lobby.Count()})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{})))
	r.GET("/ws", s.handleWebsocket)

	api := r.Group("/api", s.authRequired)
	api.POST("/games", s.handleCreateGame)
	api.GET("/games", s.handleListGames)
	api.GET("/games/:id", s.handleGetGame)
	api.POST("/games/:id/ai", s.handleSeatAI)

	if s.cfg.Server.DevEndpoints {
		s.log.Warn("dev endpoints enabled; do not run this in production")
		api.POST("/test/games/:id/deck", s.handlePinDeck)
		api.POST("/test/games/:id/dealer", s.handlePinDealer)
	}
	return r
}

// --- websocket ---

func (s *Server) handleWebsocket(c *gin.Context) {
	// A token query parameter authenticates up front; otherwise the
	// client's first frame must be AUTH.
	var identity *auth.Identity
	if token := c.Query("token"); token != "" {
		var err error
		identity, err = s.validator.Validate(c.Request.Context(), token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   string(engine.CodeAuthentication),
				"message": "invalid token",
			})
			return
		}
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Error("websocket upgrade failed", "err", err)
		return
	}
	newConnection(conn, s).start(identity)
}

// register binds a player id to a connection; a newer connection for
// the same identity wins and the older one is closed
func (s *Server) register(playerID string, conn *Connection) {
	s.mu.Lock()
	old := s.conns[playerID]
	s.conns[playerID] = conn
	s.mu.Unlock()

	s.metrics.ConnectedClients.Inc()
	if old != nil && old != conn {
		s.log.Info("superseding connection", "player", playerID)
		old.close()
	}
}

func (s *Server) unregister(playerID string, conn *Connection) {
	s.mu.Lock()
	if s.conns[playerID] == conn {
		delete(s.conns, playerID)
	}
	s.mu.Unlock()
	s.metrics.ConnectedClients.Dec()
}

// --- REST ---

const identityKey = "identity"

// authRequired resolves the bearer token to an identity
func (s *Server) authRequired(c *gin.Context) {
	token := c.Query("token")
	if h := c.GetHeader("Authorization"); h != "" {
		const prefix = "Bearer "
		if len(h) > len(prefix) && h[:len(prefix)] == prefix {
			token = h[len(prefix):]
		}
	}
	identity, err := s.validator.Validate(c.Request.Context(), token)
	if err != nil {
		status := http.StatusUnauthorized
		if errors.Is(err, auth.ErrUnavailable) {
			status = http.StatusServiceUnavailable
		}
		c.AbortWithStatusJSON(status, gin.H{
			"error":   string(engine.CodeAuthentication),
			"message": "authentication required",
		})
		return
	}
	c.Set(identityKey, identity)
	c.Next()
}

func identityFrom(c *gin.Context) *auth.Identity {
	return c.MustGet(identityKey).(*auth.Identity)
}

func (s *Server) handleCreateGame(c *gin.Context) {
	identity := identityFrom(c)
	_, id, err := s.lobby.CreateGame(c.Request.Context(), identity.PlayerID, identity.DisplayName)
	if err != nil {
		s.httpError(c, err)
		return
	}
	s.metrics.GamesCreated.Inc()
	s.metrics.ActiveGames.Set(float64(s.lobby.Count()))
	c.JSON(http.StatusCreated, gin.H{"gameId": id, "position": 0})
}

func (s *Server) handleListGames(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"games": s.lobby.List(c.Request.Context())})
}

func (s *Server) handleGetGame(c *gin.Context) {
	entry, err := s.lobby.Get(c.Param("id"))
	if err != nil {
		s.httpError(c, err)
		return
	}
	snap, err := entry.Actor.Snapshot(c.Request.Context())
	if err != nil {
		s.httpError(c, err)
		return
	}
	// The REST surface only ever serves the spectator view; hands stay
	// on the websocket.
	c.JSON(http.StatusOK, game.Redact(snap, -1))
}

type seatAIRequest struct {
	Difficulty     string  `json:"difficulty"`
	Aggressiveness float64 `json:"aggressiveness"`
	Risk           float64 `json:"risk"`
}

func (s *Server) handleSeatAI(c *gin.Context) {
	var req seatAIRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   string(engine.CodeInvalidAction),
			"message": "malformed request body",
		})
		return
	}
	pos, err := s.lobby.SeatAI(c.Request.Context(), c.Param("id"), req.Difficulty, ai.Character{
		Aggressiveness: req.Aggressiveness,
		Risk:           req.Risk,
	})
	if err != nil {
		s.httpError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"position": pos})
}

// --- dev endpoints ---

type pinDeckRequest struct {
	Cards []string `json:"cards"`
}

func (s *Server) handlePinDeck(c *gin.Context) {
	entry, err := s.lobby.Get(c.Param("id"))
	if err != nil {
		s.httpError(c, err)
		return
	}
	var req pinDeckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   string(engine.CodeInvalidAction),
			"message": "malformed request body",
		})
		return
	}
	if len(req.Cards) != deck.Size {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   string(engine.CodeInvalidAction),
			"message": fmt.Sprintf("deck must list exactly %d cards", deck.Size),
		})
		return
	}
	cards := make([]deck.Card, len(req.Cards))
	for i, id := range req.Cards {
		card, err := deck.ParseCard(id)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   string(engine.CodeInvalidAction),
				"message": err.Error(),
			})
			return
		}
		cards[i] = card
	}
	entry.Deals.PinDeck(cards)
	c.JSON(http.StatusOK, gin.H{"pinned": true})
}

type pinDealerRequest struct {
	Position int `json:"position"`
}

func (s *Server) handlePinDealer(c *gin.Context) {
	entry, err := s.lobby.Get(c.Param("id"))
	if err != nil {
		s.httpError(c, err)
		return
	}
	var req pinDealerRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Position < 0 || req.Position >= engine.NumPlayers {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   string(engine.CodeInvalidAction),
			"message": "position must be 0..3",
		})
		return
	}
	entry.Deals.PinDealer(&req.Position)
	c.JSON(http.StatusOK, gin.H{"pinned": true})
}

// httpError maps engine error codes onto HTTP statuses
func (s *Server) httpError(c *gin.Context, err error) {
	code := engine.CodeOf(err)
	status := http.StatusInternalServerError
	switch code {
	case engine.CodeInvalidAction, engine.CodeNotYourTurn:
		status = http.StatusBadRequest
	case engine.CodeGameNotFound:
		status = http.StatusNotFound
	case engine.CodeSeatTaken:
		status = http.StatusConflict
	case engine.CodeNotSeated:
		status = http.StatusForbidden
	case engine.CodeAuthentication:
		status = http.StatusUnauthorized
	}
	c.JSON(status, gin.H{"error": string(code), "message": err.Error()})
}
