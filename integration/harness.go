package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sojrpg/server/account"
	apirest "github.com/sojrpg/server/api/rest"
	"github.com/sojrpg/server/api/sse"
	"github.com/sojrpg/server/audit"
	"github.com/sojrpg/server/cache"
	"github.com/sojrpg/server/config"
	"github.com/sojrpg/server/game/character"
	"github.com/sojrpg/server/game/message"
	"github.com/sojrpg/server/game/notification"
	"github.com/sojrpg/server/game/quest"
	"github.com/sojrpg/server/game/world"
	mw "github.com/sojrpg/server/middleware"
	"github.com/sojrpg/server/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// TestServer wraps a real HTTP server with the full platform wired
// together, mirroring main.go.
type TestServer struct {
	DB            *gorm.DB
	Cache         cache.Cache
	PubSub        cache.PubSub
	Audit         *audit.Service
	Accounts      *account.Service
	Notifications *notification.Service
	Server        *httptest.Server
	URL           string
	Sec           config.SecurityConfig
}

// NewTestServer creates a fully wired server for integration testing.
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.SetupTestDB(t)
	c, pubsub := testutil.SetupTestCache(t)
	logger := zap.NewNop()

	sec := config.SecurityConfig{
		JWTSecret:      "integration-test-secret",
		JWTTTL:         72 * time.Hour,
		RateLimitRPS:   1000,
		RateLimitBurst: 2000,
		BcryptCost:     4,
	}
	game := config.GameConfig{
		DefaultSlots:   3,
		UnseenCountTTL: time.Second,
	}

	require.NoError(t, world.Seed(context.Background(), db))

	auditSvc := audit.New(db, logger)
	t.Cleanup(func() { auditSvc.Stop(context.Background()) })

	accountSvc := account.NewService(db, c, sec, game, logger)
	worldSvc := world.NewService(db)
	characterSvc := character.NewService(db, logger)
	questSvc := quest.NewService(db, logger)
	notificationSvc := notification.NewService(db, c, pubsub, game.UnseenCountTTL, logger)
	messageSvc := message.NewService(db, notificationSvc, logger)

	r := gin.New()
	r.Use(mw.TraceID(), mw.Recovery(logger))
	r.Use(mw.RateLimit(rate.Limit(sec.RateLimitRPS), sec.RateLimitBurst))

	authH := apirest.NewAuthHandler(accountSvc)
	worldH := apirest.NewWorldHandler(worldSvc, questSvc)
	charH := apirest.NewCharacterHandler(characterSvc)
	questH := apirest.NewQuestHandler(questSvc, characterSvc, worldSvc, auditSvc)
	messageH := apirest.NewMessageHandler(messageSvc)
	notificationH := apirest.NewNotificationHandler(notificationSvc, logger)

	auth := mw.Auth(sec, c)

	api := r.Group("/api")
	{
		authG := api.Group("/auth")
		authG.POST("/register", authH.Register)
		authG.POST("/activate", authH.Activate)
		authG.POST("/login", authH.Login)
		authG.POST("/logout", auth, authH.Logout)
		authG.POST("/refresh", auth, authH.Refresh)

		worldG := api.Group("/world")
		worldG.GET("/continents", worldH.Continents)
		worldG.GET("/continents/:slug/locations", worldH.ContinentLocations)
		worldG.GET("/locations/:slug", worldH.Location)
		worldG.GET("/races", worldH.Races)

		charsG := api.Group("/characters")
		charsG.Use(auth)
		charsG.GET("", charH.List)
		charsG.GET("/available", charH.Available)
		charsG.POST("", charH.Create)
		charsG.GET("/:id", charH.Show)

		questsG := api.Group("/quests")
		questsG.Use(auth)
		questsG.POST("", questH.Create)
		questsG.GET("/following", questH.Following)
		questsG.GET("/:slug", questH.Show)
		questsG.GET("/:slug/timeline", questH.Timeline)
		questsG.POST("/:slug/move", questH.Move)
		questsG.POST("/:slug/characters", questH.AddCharacter)
		questsG.DELETE("/:slug/characters/:id", questH.RemoveCharacter)
		questsG.GET("/:slug/posts", questH.ListPosts)
		questsG.POST("/:slug/posts", questH.CreatePost)
		questsG.POST("/:slug/follow", questH.Follow)
		questsG.DELETE("/:slug/follow", questH.Unfollow)

		messagesG := api.Group("/messages")
		messagesG.Use(auth)
		messagesG.POST("", messageH.Send)
		messagesG.GET("/threads", messageH.Threads)
		messagesG.GET("/threads/:id", messageH.ThreadMessages)
		messagesG.GET("/received", messageH.Received)
		messagesG.GET("/sent", messageH.Sent)

		notificationsG := api.Group("/notifications")
		notificationsG.Use(auth)
		notificationsG.GET("", notificationH.Unseen)
		notificationsG.GET("/count", notificationH.UnseenCount)
		notificationsG.POST("/:id/seen", notificationH.MarkSeen)
	}

	sseH := sse.NewHandler(pubsub, c, notificationSvc, sec, logger)
	r.GET("/sse", sseH.ServeSSE)

	server := httptest.NewServer(r)

	ts := &TestServer{
		DB:            db,
		Cache:         c,
		PubSub:        pubsub,
		Audit:         auditSvc,
		Accounts:      accountSvc,
		Notifications: notificationSvc,
		Server:        server,
		URL:           server.URL,
		Sec:           sec,
	}
	t.Cleanup(server.Close)
	return ts
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }

// --- HTTP helpers ---

// PostJSON sends a POST request with a JSON body and optional Bearer token.
func (ts *TestServer) PostJSON(t *testing.T, path string, body interface{}, token string) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, ts.URL+path, bytes.NewReader(data))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

// Get sends a GET request with an optional Bearer token.
func (ts *TestServer) Get(t *testing.T, path string, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, ts.URL+path, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

// Delete sends a DELETE request with a Bearer token.
func (ts *TestServer) Delete(t *testing.T, path string, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodDelete, ts.URL+path, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

// ReadJSON decodes the response body into out and closes it.
func ReadJSON(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

// --- domain helpers ---

// SignUp registers, activates and logs in a fresh account, returning
// the session token.
func (ts *TestServer) SignUp(t *testing.T, penName string) string {
	t.Helper()
	resp := ts.PostJSON(t, "/api/auth/register", map[string]string{
		"pen_name": penName,
		"email":    penName + "@example.com",
		"password": "hunter2hunter2",
	}, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var reg struct {
		ActivationToken string `json:"activation_token"`
	}
	ReadJSON(t, resp, &reg)
	require.NotEmpty(t, reg.ActivationToken)

	resp = ts.PostJSON(t, "/api/auth/activate", map[string]string{"token": reg.ActivationToken}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = ts.PostJSON(t, "/api/auth/login", map[string]string{
		"pen_name": penName,
		"password": "hunter2hunter2",
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var login struct {
		Token string `json:"token"`
	}
	ReadJSON(t, resp, &login)
	require.NotEmpty(t, login.Token)
	return login.Token
}

// CreateCharacter creates a character for the session and returns its id.
func (ts *TestServer) CreateCharacter(t *testing.T, token, name string) int64 {
	t.Helper()
	resp := ts.PostJSON(t, "/api/characters", map[string]interface{}{
		"name":                 name,
		"home_town_id":         1,
		"race_id":              1,
		"physical_description": "Tall.",
		"personality":          "Quiet.",
		"skills":               "Tracking.",
	}, token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var char struct {
		ID int64 `json:"id"`
	}
	ReadJSON(t, resp, &char)
	require.Greater(t, char.ID, int64(0))
	return char.ID
}

// CreateQuest initialises a quest and returns its slug.
func (ts *TestServer) CreateQuest(t *testing.T, token, title, locationSlug string, characterID int64) string {
	t.Helper()
	resp := ts.PostJSON(t, "/api/quests", map[string]interface{}{
		"title":         title,
		"description":   "An integration quest.",
		"first_post":    "And so it begins.",
		"location_slug": locationSlug,
		"character_id":  characterID,
	}, token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var q struct {
		Slug string `json:"slug"`
	}
	ReadJSON(t, resp, &q)
	require.NotEmpty(t, q.Slug)
	return q.Slug
}
