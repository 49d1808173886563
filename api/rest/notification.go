package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sojrpg/server/apperr"
	"github.com/sojrpg/server/game/notification"
	mw "github.com/sojrpg/server/middleware"
	"github.com/sojrpg/server/model"
	"go.uber.org/zap"
)

// NotificationHandler handles notification REST endpoints.
type NotificationHandler struct {
	notifications *notification.Service
	logger        *zap.Logger
}

// NewNotificationHandler creates a NotificationHandler.
func NewNotificationHandler(n *notification.Service, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{notifications: n, logger: logger}
}

type renderedNotification struct {
	model.Notification
	Rendered string `json:"rendered"`
}

// Unseen handles GET /api/notifications: the caller's unseen
// notifications, newest first, each with its rendered display text.
func (h *NotificationHandler) Unseen(c *gin.Context) {
	ctx := c.Request.Context()
	profile, err := h.notifications.ProfileByAccount(ctx, mw.GetAccountID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	unseen, err := h.notifications.Unseen(ctx, profile.ID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	out := make([]renderedNotification, 0, len(unseen))
	for i := range unseen {
		text, err := h.notifications.Render(ctx, &unseen[i])
		if err != nil {
			// An unrenderable kind should not hide the rest of the list.
			if apperr.CodeOf(err) != apperr.CodeUnimplemented {
				abortWithError(c, err)
				return
			}
			h.logger.Warn("skipping unrenderable notification",
				zap.Int64("notification_id", unseen[i].ID),
				zap.String("kind", string(unseen[i].Kind)))
			continue
		}
		out = append(out, renderedNotification{Notification: unseen[i], Rendered: text})
	}
	c.JSON(http.StatusOK, gin.H{"notifications": out})
}

// UnseenCount handles GET /api/notifications/count.
func (h *NotificationHandler) UnseenCount(c *gin.Context) {
	ctx := c.Request.Context()
	profile, err := h.notifications.ProfileByAccount(ctx, mw.GetAccountID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	count, err := h.notifications.UnseenCount(ctx, profile.ID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

// MarkSeen handles POST /api/notifications/:id/seen.
func (h *NotificationHandler) MarkSeen(c *gin.Context) {
	notificationID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	ctx := c.Request.Context()
	profile, err := h.notifications.ProfileByAccount(ctx, mw.GetAccountID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	if err := h.notifications.MarkSeen(ctx, profile.ID, notificationID); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"seen": true})
}
