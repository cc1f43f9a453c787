package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/metalsbot/metals-chat/internal/agent"
	"github.com/metalsbot/metals-chat/internal/api"
)

// ChatHandler serves the chat endpoint on top of the orchestrator.
type ChatHandler struct {
	orchestrator *agent.Orchestrator
	log          *zap.SugaredLogger
}

// NewChatHandler creates the chat handler.
func NewChatHandler(orchestrator *agent.Orchestrator, log *zap.SugaredLogger) *ChatHandler {
	return &ChatHandler{orchestrator: orchestrator, log: log}
}

// HandleChat runs one chat turn. Transport-level problems (unparseable
// body, missing message) are 400s; a failed pipeline is a 500 whose body
// still carries an apology the UI can render as a normal assistant
// message. This handler never lets an error propagate past it.
func (h *ChatHandler) HandleChat(c *gin.Context) {
	start := time.Now()
	requestID := uuid.NewString()
	log := h.log.With("requestId", requestID)

	var req api.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request: " + err.Error()})
		return
	}

	log.Infow("chat request", "historyTurns", len(req.ConversationHistory))

	reply := h.orchestrator.Chat(c.Request.Context(), req.Message, req.ConversationHistory)
	resp := api.ChatResponse{
		Success:   reply.Success,
		Response:  reply.Response,
		UsedTool:  reply.UsedTool,
		ToolsUsed: reply.ToolsUsed,
		ChartData: reply.ChartData,
		Usage:     reply.Usage,
		Error:     reply.Err,
		Timestamp: time.Now().UTC(),
	}

	status := http.StatusOK
	if !reply.Success {
		status = http.StatusInternalServerError
	}
	log.Infow("chat response",
		"success", reply.Success,
		"toolsUsed", reply.ToolsUsed,
		"latencyMs", time.Since(start).Milliseconds(),
		"tokens", reply.Usage.TotalTokens)
	c.JSON(status, resp)
}
