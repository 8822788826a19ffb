package api

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/wuwenbin0122/flexchat/internal/conversation"
	"github.com/wuwenbin0122/flexchat/internal/gateway"
	"github.com/wuwenbin0122/flexchat/internal/models"
	"github.com/wuwenbin0122/flexchat/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

// Responder produces the next assistant turn for a history.
type Responder interface {
	Complete(ctx context.Context, history []models.Turn) gateway.Reply
}

type Options struct {
	Title        string
	CookieName   string
	SecureCookie bool
}

type Handler struct {
	registry  *session.Registry
	issuer    *session.Issuer
	responder Responder
	logger    *zap.SugaredLogger
	opts      Options

	runsMu  sync.Mutex
	running map[*conversation.Conversation]struct{}
}

func NewHandler(registry *session.Registry, issuer *session.Issuer, responder Responder, logger *zap.SugaredLogger, opts Options) *Handler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if strings.TrimSpace(opts.Title) == "" {
		opts.Title = "Flexible Chatbot Framework"
	}
	if strings.TrimSpace(opts.CookieName) == "" {
		opts.CookieName = "flexchat_session"
	}

	return &Handler{
		registry:  registry,
		issuer:    issuer,
		responder: responder,
		logger:    logger,
		opts:      opts,
		running:   make(map[*conversation.Conversation]struct{}),
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.SetHTMLTemplate(template.Must(template.ParseFS(templateFS, "templates/*.html")))

	page := router.Group("/")
	page.Use(h.bindSession)
	page.GET("/", h.handleIndex)
	page.POST("/chat", h.handleChatForm)
	page.POST("/chat/reset", h.handleResetForm)

	apiGroup := router.Group("/api")
	apiGroup.Use(h.bindSession)
	apiGroup.GET("/conversation", h.handleConversation)
	apiGroup.POST("/messages", h.handleMessage)
	apiGroup.DELETE("/conversation", h.handleReset)

	router.GET("/ws", h.handleWebsocket)
}

var (
	errEmptyMessage  = errors.New("message content is required")
	errRunInProgress = errors.New("run in progress")
)

// beginRun marks conv as busy. It reports false when another exchange on the
// same conversation has not finished yet.
func (h *Handler) beginRun(conv *conversation.Conversation) bool {
	h.runsMu.Lock()
	defer h.runsMu.Unlock()

	if _, busy := h.running[conv]; busy {
		return false
	}
	h.running[conv] = struct{}{}
	return true
}

func (h *Handler) endRun(conv *conversation.Conversation) {
	h.runsMu.Lock()
	delete(h.running, conv)
	h.runsMu.Unlock()
}

// exchange runs one interaction cycle: append the user turn, ask the
// responder for a reply based on the snapshot, then append the reply.
// Only one cycle runs per conversation at a time, so user and assistant
// turns alternate. onAppend, when set, receives the snapshot after each
// append.
func (h *Handler) exchange(ctx context.Context, conv *conversation.Conversation, content string, onAppend func([]models.Turn)) (gateway.Reply, error) {
	if strings.TrimSpace(content) == "" {
		return gateway.Reply{}, errEmptyMessage
	}
	if !h.beginRun(conv) {
		return gateway.Reply{}, errRunInProgress
	}
	defer h.endRun(conv)

	conv.Append(models.UserTurn(content))
	if onAppend != nil {
		onAppend(conv.Snapshot())
	}

	started := time.Now()
	reply := h.responder.Complete(ctx, conv.Snapshot())
	conv.Append(reply.Turn)
	if onAppend != nil {
		onAppend(conv.Snapshot())
	}

	if !reply.OK() {
		h.logger.Warnf("completion failed after %s: %v", time.Since(started), reply.Failure)
	} else {
		h.logger.Debugf("completion succeeded after %s (history %d turns)", time.Since(started), conv.Len())
	}

	return reply, nil
}

type messageRequest struct {
	Content string `json:"content"`
}

func (h *Handler) handleConversation(c *gin.Context) {
	id := sessionIDFrom(c)
	c.JSON(http.StatusOK, gin.H{
		"session_id": id,
		"turns":      h.registry.Get(id).Snapshot(),
	})
}

func (h *Handler) handleMessage(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid payload", err)
		return
	}

	conv := h.registry.Get(sessionIDFrom(c))
	reply, err := h.exchange(c.Request.Context(), conv, req.Content, nil)
	if errors.Is(err, errRunInProgress) {
		writeError(c, http.StatusConflict, "a reply is still being generated", err)
		return
	}
	if err != nil {
		writeError(c, http.StatusBadRequest, err.Error(), err)
		return
	}

	response := gin.H{
		"reply": reply.Turn,
		"turns": conv.Snapshot(),
	}
	if !reply.OK() {
		response["error"] = reply.Failure.Error()
	}

	c.JSON(http.StatusOK, response)
}

func (h *Handler) handleReset(c *gin.Context) {
	id := sessionIDFrom(c)
	h.registry.Reset(id)
	c.JSON(http.StatusOK, gin.H{
		"session_id": id,
		"turns":      h.registry.Get(id).Snapshot(),
	})
}

func writeError(c *gin.Context, status int, message string, err error) {
	c.JSON(status, gin.H{
		"error":   message,
		"details": err.Error(),
	})
}
