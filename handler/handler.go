package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"scenario-bot/internal/domain"
	"scenario-bot/internal/integrations/slack"
	"scenario-bot/internal/logstore"
)

// CommandRunner processes one command to completion. *usecase.ScenarioService
// satisfies it.
type CommandRunner interface {
	Run(ctx context.Context, cmd domain.Command)
}

// CommandReader verifies and decodes an incoming slash command request.
type CommandReader interface {
	ReadCommand(r *http.Request) (domain.Command, error)
}

type LogStore interface {
	Append(e domain.LogEntry)
	List() []domain.LogEntry
	Clear()
	Len() int
}

type HistoryReader interface {
	Recent(ctx context.Context, userID string) ([]string, error)
}

type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type historyResponse struct {
	UserID  string   `json:"userId"`
	Entries []string `json:"entries"`
}

type logEntryRequest struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Message   string `json:"message"`
}

// Handler serves the slash command endpoint and the operational API. Slash
// commands are acknowledged before processing, which continues on a tracked
// goroutine.
type Handler struct {
	runner  CommandRunner
	reader  CommandReader
	logs    LogStore
	history HistoryReader
	command string
	logger  *zap.Logger

	inflight sync.WaitGroup
}

// NewHandler validates dependencies. command, when set, is the only slash
// command name accepted.
func NewHandler(runner CommandRunner, reader CommandReader, logs LogStore, history HistoryReader, command string, logger *zap.Logger) (*Handler, error) {
	if runner == nil {
		return nil, errors.New("handler: command runner must not be nil")
	}
	if reader == nil {
		return nil, errors.New("handler: command reader must not be nil")
	}
	if logs == nil {
		return nil, errors.New("handler: log store must not be nil")
	}
	if history == nil {
		return nil, errors.New("handler: history reader must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		runner:  runner,
		reader:  reader,
		logs:    logs,
		history: history,
		command: strings.TrimSpace(command),
		logger:  logger.Named("handler"),
	}, nil
}

// Wait blocks until every dispatched command has finished.
func (h *Handler) Wait() {
	h.inflight.Wait()
}

func (h *Handler) registerRoutes(r gin.IRouter) {
	r.GET("/slack/chat", h.slackStatus)
	r.POST("/slack/chat", h.slashCommand)

	api := r.Group("/api")
	api.GET("/logs", h.listLogs)
	api.POST("/logs", h.addLog)
	api.POST("/clear-logs", h.clearLogs)
	api.GET("/history/:userId", h.userHistory)
}

func (h *Handler) slackStatus(c *gin.Context) {
	c.JSON(http.StatusOK, statusResponse{Status: "Server is running"})
}

func (h *Handler) slashCommand(c *gin.Context) {
	cmd, err := h.reader.ReadCommand(c.Request)
	if err != nil {
		if errors.Is(err, slack.ErrUnauthorized) {
			h.logger.Warn("rejected slash command", zap.Error(err))
			c.JSON(http.StatusUnauthorized, errorResponse{Error: "invalid request signature"})
			return
		}
		h.logger.Error("failed to read slash command", zap.Error(err))
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if h.command != "" && cmd.Name != h.command {
		c.JSON(http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("unsupported command %q", cmd.Name)})
		return
	}

	c.Status(http.StatusOK)
	h.dispatch(context.WithoutCancel(c.Request.Context()), cmd)
}

// dispatch runs cmd on its own goroutine, detached from the request.
func (h *Handler) dispatch(ctx context.Context, cmd domain.Command) {
	h.inflight.Add(1)
	go func() {
		defer h.inflight.Done()
		defer func() {
			if r := recover(); r != nil {
				h.logger.Error("command runner panicked", zap.Any("panic", r), zap.String("user_id", cmd.UserID))
			}
		}()
		h.runner.Run(ctx, cmd)
	}()
}

func (h *Handler) listLogs(c *gin.Context) {
	c.JSON(http.StatusOK, h.logs.List())
}

func (h *Handler) addLog(c *gin.Context) {
	var req logEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, statusResponse{Status: "error", Message: "Invalid log entry"})
		return
	}
	level, ok := logstore.NormalizeLevel(req.Level)
	if !ok {
		c.JSON(http.StatusBadRequest, statusResponse{Status: "error", Message: "Invalid log entry"})
		return
	}
	h.logs.Append(domain.LogEntry{Timestamp: req.Timestamp, Level: level, Message: req.Message})
	c.JSON(http.StatusOK, statusResponse{Status: "success"})
}

func (h *Handler) clearLogs(c *gin.Context) {
	h.logger.Info("clearing logs", zap.Int("count", h.logs.Len()))
	h.logs.Clear()
	c.JSON(http.StatusOK, statusResponse{Status: "success"})
}

func (h *Handler) userHistory(c *gin.Context) {
	userID := c.Param("userId")
	entries, err := h.history.Recent(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("failed to read history", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "history unavailable"})
		return
	}
	c.JSON(http.StatusOK, historyResponse{UserID: userID, Entries: entries})
}
