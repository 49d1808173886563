package rest

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sojrpg/server/game/message"
	mw "github.com/sojrpg/server/middleware"
	"github.com/sojrpg/server/model"
)

// MessageHandler handles private message REST endpoints.
type MessageHandler struct {
	messages *message.Service
}

// NewMessageHandler creates a MessageHandler.
func NewMessageHandler(m *message.Service) *MessageHandler {
	return &MessageHandler{messages: m}
}

type sendMessageRequest struct {
	ToPenName string `json:"to_pen_name" binding:"required"`
	Text      string `json:"text"        binding:"required,min=1,max=5000"`
}

// Send handles POST /api/messages.
func (h *MessageHandler) Send(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()
	from, err := h.messages.ProfileByAccount(ctx, mw.GetAccountID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	to, err := h.messages.ProfileByPenName(ctx, req.ToPenName)
	if err != nil {
		abortWithError(c, err)
		return
	}
	_, sent, err := h.messages.SendMessage(ctx, from.ID, to.ID, req.Text)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sent)
}

// Threads handles GET /api/messages/threads: the caller's threads
// newest-activity first, with message counts.
func (h *MessageHandler) Threads(c *gin.Context) {
	ctx := c.Request.Context()
	profile, err := h.messages.ProfileByAccount(ctx, mw.GetAccountID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	threads, err := h.messages.Threads(ctx, profile.ID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"threads": threads})
}

// ThreadMessages handles GET /api/messages/threads/:id.
func (h *MessageHandler) ThreadMessages(c *gin.Context) {
	threadID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	ctx := c.Request.Context()
	profile, err := h.messages.ProfileByAccount(ctx, mw.GetAccountID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	msgs, err := h.messages.ThreadMessages(ctx, profile.ID, threadID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// Received handles GET /api/messages/received.
func (h *MessageHandler) Received(c *gin.Context) {
	h.listByDirection(c, h.messages.ReceivedMessages)
}

// Sent handles GET /api/messages/sent.
func (h *MessageHandler) Sent(c *gin.Context) {
	h.listByDirection(c, h.messages.SentMessages)
}

func (h *MessageHandler) listByDirection(c *gin.Context, list func(ctx context.Context, profileID int64) ([]model.PrivateMessage, error)) {
	ctx := c.Request.Context()
	profile, err := h.messages.ProfileByAccount(ctx, mw.GetAccountID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	msgs, err := list(ctx, profile.ID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}
