package rest

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sojrpg/server/account"
	mw "github.com/sojrpg/server/middleware"
)

// AuthHandler handles registration, activation and session endpoints.
type AuthHandler struct {
	accounts *account.Service
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(accounts *account.Service) *AuthHandler {
	return &AuthHandler{accounts: accounts}
}

type registerRequest struct {
	PenName  string `json:"pen_name" binding:"required,min=2,max=50"`
	Email    string `json:"email"    binding:"required,email,max=128"`
	Password string `json:"password" binding:"required,min=8,max=64"`
}

// Register handles POST /api/auth/register.
// The activation token is returned in the response body; delivering it
// by email is the mailer's job, not this server's.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	acc, err := h.accounts.Register(c.Request.Context(), req.PenName, req.Email, req.Password)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"account_id":       acc.ID,
		"pen_name":         acc.PenName,
		"activation_token": acc.ActivationToken,
	})
}

type activateRequest struct {
	Token string `json:"token" binding:"required"`
}

// Activate handles POST /api/auth/activate.
func (h *AuthHandler) Activate(c *gin.Context) {
	var req activateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	acc, err := h.accounts.Activate(c.Request.Context(), req.Token)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"account_id": acc.ID, "is_active": acc.IsActive})
}

type loginRequest struct {
	PenName  string `json:"pen_name" binding:"required,min=2,max=50"`
	Password string `json:"password" binding:"required,min=8,max=64"`
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	token, acc, err := h.accounts.Login(c.Request.Context(), req.PenName, req.Password, c.ClientIP())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "account_id": acc.ID})
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(c *gin.Context) {
	header := c.GetHeader("Authorization")
	tokenStr := strings.TrimPrefix(header, "Bearer ")
	if tokenStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing token"})
		return
	}
	h.accounts.Logout(c.Request.Context(), tokenStr)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Refresh handles POST /api/auth/refresh.
func (h *AuthHandler) Refresh(c *gin.Context) {
	accountID := mw.GetAccountID(c)
	if accountID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	header := c.GetHeader("Authorization")
	oldToken := strings.TrimPrefix(header, "Bearer ")
	token, err := h.accounts.Refresh(c.Request.Context(), oldToken, accountID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}
