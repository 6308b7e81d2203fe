package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"agent-chat-relay/backend/internal/agent"
	"agent-chat-relay/backend/pkg/config"
	"agent-chat-relay/backend/pkg/errors"
	"agent-chat-relay/backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

// AgentClient is the slice of the agent client the controller depends on.
type AgentClient interface {
	SendMessage(ctx context.Context, content, threadID string) (*agent.TurnResult, error)
}

// ChatRequest is the inbound chat payload. ThreadID is a pointer so a
// supplied-but-blank identifier can be rejected while an absent one is
// simply a new conversation.
type ChatRequest struct {
	Message  string  `json:"message"`
	ThreadID *string `json:"threadId"`
}

// ChatController is the boundary between inbound chat requests and the
// remote agent client.
type ChatController struct {
	client AgentClient
	cfg    *config.Config
	log    *logger.Logger
}

// NewChatController creates a new chat controller. client may be nil when
// the agent credential group is unconfigured.
func NewChatController(client AgentClient, cfg *config.Config, log *logger.Logger) *ChatController {
	return &ChatController{
		client: client,
		cfg:    cfg,
		log:    log,
	}
}

// RegisterRoutes registers the relay HTTP surface.
func (c *ChatController) RegisterRoutes(router *gin.Engine) {
	router.GET("/", c.Describe)
	router.GET("/healthz", c.Health)
	router.POST("/api/chat", c.Chat)
}

// Chat handles one conversational turn. The configuration check runs
// before validation so an unconfigured relay never inspects payloads.
func (c *ChatController) Chat(ctx *gin.Context) {
	if !c.cfg.Agent.Configured() || c.client == nil {
		ctx.Error(errors.NewNotConfiguredError("Agent service is not configured"))
		return
	}

	var req ChatRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.Error(errors.NewValidationError("Invalid chat request", map[string]string{
			"body": "request body must be valid JSON",
		}))
		return
	}

	if fields := validateChatRequest(req); len(fields) > 0 {
		ctx.Error(errors.NewValidationError("Invalid chat request", fields))
		return
	}

	threadID := ""
	if req.ThreadID != nil {
		threadID = strings.TrimSpace(*req.ThreadID)
	}

	result, err := c.client.SendMessage(ctx.Request.Context(), strings.TrimSpace(req.Message), threadID)
	if err != nil {
		ctx.Error(err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"threadId": result.ThreadID,
		"messages": result.Messages,
	})
}

func validateChatRequest(req ChatRequest) map[string]string {
	fields := make(map[string]string)
	if strings.TrimSpace(req.Message) == "" {
		fields["message"] = "message is required and must be a non-empty string"
	}
	if req.ThreadID != nil && strings.TrimSpace(*req.ThreadID) == "" {
		fields["threadId"] = "threadId must be a non-empty string when provided"
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// Describe returns the service descriptor.
func (c *ChatController) Describe(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"name":            "agent-chat-relay",
		"status":          "ok",
		"agentConfigured": c.cfg.Agent.Configured(),
		"endpoints": gin.H{
			"chat":   "POST /api/chat",
			"health": "GET /healthz",
		},
	})
}

// Health returns the liveness descriptor.
func (c *ChatController) Health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"status":          "ok",
		"agentConfigured": c.cfg.Agent.Configured(),
		"timestamp":       time.Now().UTC().Format(time.RFC3339),
	})
}
