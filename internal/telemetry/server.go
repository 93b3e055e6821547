package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/appengine-ltd/reactor/internal/logging"
	"github.com/appengine-ltd/reactor/internal/reactor"
	"github.com/appengine-ltd/reactor/internal/scoreboard"
)

var errBadCommand = errors.New("bad command")

// ScoreLister reads finished sessions.
type ScoreLister interface {
	Top(ctx context.Context, limit int) ([]scoreboard.Entry, error)
	Recent(ctx context.Context, limit int) ([]scoreboard.Entry, error)
}

type Server struct {
	router *gin.Engine
	runner *Runner
	hub    *Hub
	scores ScoreLister
	log    *slog.Logger
}

// NewServer wires the HTTP API. scores may be nil when no scoreboard is
// configured.
func NewServer(runner *Runner, hub *Hub, scores ScoreLister, log *slog.Logger) *Server {
	if log == nil {
		log = logging.Discard()
	}
	s := &Server{
		router: gin.New(),
		runner: runner,
		hub:    hub,
		scores: scores,
		log:    log,
	}
	s.setupRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.requestLogger())

	s.router.GET("/health", s.healthCheck)

	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/snapshot", s.getSnapshot)
		v1.POST("/commands", s.postCommand)
		v1.POST("/console", s.postConsole)
		v1.POST("/pause", s.postPause)
		v1.POST("/abandon", s.postAbandon)
		v1.GET("/scores", s.getScores)
	}
	s.router.GET("/ws", s.handleWebSocket)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	_, over := s.runner.Over()
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "tick": s.runner.Tick(), "game_over": over})
}

func (s *Server) getSnapshot(c *gin.Context) {
	c.JSON(http.StatusOK, s.runner.Snapshot())
}

// CommandRequest is the JSON form of a reactor command. Ids are the
// zero-based ids used in snapshots.
type CommandRequest struct {
	Type    string  `json:"type" binding:"required"`
	Cell    *int    `json:"cell,omitempty"`
	Valve   *int    `json:"valve,omitempty"`
	Circuit *int    `json:"circuit,omitempty"`
	Delta   float64 `json:"delta,omitempty"`
	Open    *bool   `json:"open,omitempty"`
	Power   float64 `json:"power,omitempty"`
}

func (r CommandRequest) Command() (reactor.Command, error) {
	switch r.Type {
	case "move_rod":
		if r.Cell == nil {
			return nil, fmt.Errorf("%w: move_rod needs cell", errBadCommand)
		}
		return reactor.MoveControlRod{Cell: reactor.CellID(*r.Cell), Delta: r.Delta}, nil
	case "toggle_valve":
		if r.Valve == nil {
			return nil, fmt.Errorf("%w: toggle_valve needs valve", errBadCommand)
		}
		return reactor.ToggleValve{Valve: reactor.ValveID(*r.Valve)}, nil
	case "set_valve":
		if r.Valve == nil || r.Open == nil {
			return nil, fmt.Errorf("%w: set_valve needs valve and open", errBadCommand)
		}
		return reactor.SetValve{Valve: reactor.ValveID(*r.Valve), Open: *r.Open}, nil
	case "set_circuit_power":
		if r.Circuit == nil {
			return nil, fmt.Errorf("%w: set_circuit_power needs circuit", errBadCommand)
		}
		return reactor.SetCircuitPower{Circuit: reactor.CircuitID(*r.Circuit), Power: r.Power}, nil
	case "scram":
		return reactor.Scram{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown type %q", errBadCommand, r.Type)
	}
}

func (s *Server) postCommand(c *gin.Context) {
	var req CommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	cmd, err := req.Command()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, over := s.runner.Over(); over {
		c.JSON(http.StatusConflict, gin.H{"error": "session is over"})
		return
	}
	if !s.runner.Enqueue(cmd) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "command queue full"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"queued": true})
}

type consoleRequest struct {
	Line string `json:"line" binding:"required"`
}

type consoleResponse struct {
	Handled  bool   `json:"handled"`
	Message  string `json:"message"`
	Verb     string `json:"verb,omitempty"`
	Commands int    `json:"commands"`
	Action   string `json:"action"`
}

func (s *Server) postConsole(c *gin.Context) {
	var req consoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	res := s.runner.Console(req.Line)
	c.JSON(http.StatusOK, consoleResponse{
		Handled:  res.Handled,
		Message:  res.Message,
		Verb:     res.Intent.Verb,
		Commands: len(res.Commands),
		Action:   res.Action.String(),
	})
}

type pauseRequest struct {
	Paused bool `json:"paused"`
}

func (s *Server) postPause(c *gin.Context) {
	var req pauseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	s.runner.SetPaused(req.Paused)
	c.JSON(http.StatusOK, gin.H{"paused": req.Paused})
}

func (s *Server) postAbandon(c *gin.Context) {
	s.runner.Abandon()
	over, _ := s.runner.Over()
	c.JSON(http.StatusOK, over)
}

func (s *Server) getScores(c *gin.Context) {
	if s.scores == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "scoreboard disabled"})
		return
	}
	limit := 10
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be 1-100"})
			return
		}
		limit = n
	}
	var (
		entries []scoreboard.Entry
		err     error
	)
	if c.Query("order") == "recent" {
		entries, err = s.scores.Recent(c.Request.Context(), limit)
	} else {
		entries, err = s.scores.Top(c.Request.Context(), limit)
	}
	if err != nil {
		s.log.Error("list scores", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "scoreboard unavailable"})
		return
	}
	if entries == nil {
		entries = []scoreboard.Entry{}
	}
	c.JSON(http.StatusOK, gin.H{"scores": entries})
}

func (s *Server) handleWebSocket(c *gin.Context) {
	snap := s.runner.Snapshot()
	s.hub.Serve(c.Writer, c.Request, Message{Type: MessageSnapshot, Snapshot: &snap})
}
