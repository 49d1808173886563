package rest

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sojrpg/server/apperr"
	"github.com/sojrpg/server/audit"
	"github.com/sojrpg/server/game/character"
	"github.com/sojrpg/server/game/quest"
	"github.com/sojrpg/server/game/world"
	mw "github.com/sojrpg/server/middleware"
	"github.com/sojrpg/server/model"
)

// QuestHandler handles quest lifecycle REST endpoints. It resolves
// path entities once and passes ids into the services.
type QuestHandler struct {
	quests     *quest.Service
	characters *character.Service
	world      *world.Service
	audit      *audit.Service
}

// NewQuestHandler creates a QuestHandler.
func NewQuestHandler(q *quest.Service, ch *character.Service, w *world.Service, a *audit.Service) *QuestHandler {
	return &QuestHandler{quests: q, characters: ch, world: w, audit: a}
}

type createQuestRequest struct {
	Title        string `json:"title"         binding:"required,min=1,max=100"`
	Description  string `json:"description"   binding:"required"`
	FirstPost    string `json:"first_post"    binding:"required"`
	LocationSlug string `json:"location_slug" binding:"required"`
	CharacterID  int64  `json:"character_id"  binding:"required"`
}

// Create handles POST /api/quests.
func (h *QuestHandler) Create(c *gin.Context) {
	start := time.Now()
	accountID := mw.GetAccountID(c)

	var req createQuestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	gm, err := h.quests.ProfileByAccount(c.Request.Context(), accountID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	location, err := h.world.LocationBySlug(c.Request.Context(), req.LocationSlug)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if !h.ownsCharacter(c, accountID, req.CharacterID) {
		return
	}

	q, err := h.quests.Initialise(c.Request.Context(), quest.InitialiseParams{
		GMProfileID: gm.ID,
		Title:       req.Title,
		Description: req.Description,
		FirstPost:   req.FirstPost,
		LocationID:  location.ID,
		CharacterID: req.CharacterID,
	})
	h.logAction(c, "quest.initialise", questIDOf(q), accountID, req, err, start)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, q)
}

// Show handles GET /api/quests/:slug: the quest with its current
// location, active members and former members.
func (h *QuestHandler) Show(c *gin.Context) {
	q, ok := h.questFromPath(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	ledger := h.quests.Ledger()

	var location *model.Location
	current, err := ledger.CurrentLocation(ctx, q.ID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if current != nil {
		location, err = h.world.LocationByID(ctx, current.LocationID)
		if err != nil {
			abortWithError(c, err)
			return
		}
	}
	members, err := ledger.CurrentCharacters(ctx, q.ID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	former, err := ledger.FormerCharacters(ctx, q.ID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"quest":              q,
		"current_location":   location,
		"current_characters": members,
		"former_characters":  former,
	})
}

// Timeline handles GET /api/quests/:slug/timeline: the full ledger
// history for the timeline display.
func (h *QuestHandler) Timeline(c *gin.Context) {
	q, ok := h.questFromPath(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	locations, err := h.quests.Ledger().LocationHistory(ctx, q.ID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	memberships, err := h.quests.Ledger().MembershipHistory(ctx, q.ID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"locations":  locations,
		"characters": memberships,
	})
}

type moveRequest struct {
	LocationSlug string `json:"location_slug" binding:"required"`
}

// Move handles POST /api/quests/:slug/move. Game master only.
func (h *QuestHandler) Move(c *gin.Context) {
	start := time.Now()
	accountID := mw.GetAccountID(c)
	q, ok := h.questFromPath(c)
	if !ok {
		return
	}
	if !h.isGameMaster(c, accountID, q) {
		return
	}

	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	location, err := h.world.LocationBySlug(c.Request.Context(), req.LocationSlug)
	if err != nil {
		abortWithError(c, err)
		return
	}

	err = h.quests.MoveToLocation(c.Request.Context(), q.ID, location.ID)
	h.logAction(c, "quest.move", &q.ID, accountID, req, err, start)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quest_id": q.ID, "location_id": location.ID})
}

type questCharacterRequest struct {
	CharacterID int64 `json:"character_id" binding:"required"`
}

// AddCharacter handles POST /api/quests/:slug/characters.
func (h *QuestHandler) AddCharacter(c *gin.Context) {
	start := time.Now()
	accountID := mw.GetAccountID(c)
	q, ok := h.questFromPath(c)
	if !ok {
		return
	}
	var req questCharacterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !h.ownsCharacter(c, accountID, req.CharacterID) {
		return
	}

	err := h.quests.AddCharacter(c.Request.Context(), q.ID, req.CharacterID)
	h.logAction(c, "quest.add_character", &q.ID, accountID, req, err, start)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quest_id": q.ID, "character_id": req.CharacterID})
}

// RemoveCharacter handles DELETE /api/quests/:slug/characters/:id.
func (h *QuestHandler) RemoveCharacter(c *gin.Context) {
	start := time.Now()
	accountID := mw.GetAccountID(c)
	q, ok := h.questFromPath(c)
	if !ok {
		return
	}
	characterID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	if !h.ownsCharacter(c, accountID, characterID) {
		return
	}

	err = h.quests.RemoveCharacter(c.Request.Context(), q.ID, characterID)
	h.logAction(c, "quest.remove_character", &q.ID, accountID, gin.H{"character_id": characterID}, err, start)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quest_id": q.ID, "character_id": characterID})
}

type createPostRequest struct {
	CharacterID int64  `json:"character_id" binding:"required"`
	Content     string `json:"content"      binding:"required"`
}

// CreatePost handles POST /api/quests/:slug/posts.
func (h *QuestHandler) CreatePost(c *gin.Context) {
	start := time.Now()
	accountID := mw.GetAccountID(c)
	q, ok := h.questFromPath(c)
	if !ok {
		return
	}
	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !h.ownsCharacter(c, accountID, req.CharacterID) {
		return
	}

	post, err := h.quests.CreatePost(c.Request.Context(), q.ID, req.CharacterID, req.Content)
	h.logAction(c, "quest.post", &q.ID, accountID, gin.H{"character_id": req.CharacterID}, err, start)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

// ListPosts handles GET /api/quests/:slug/posts.
func (h *QuestHandler) ListPosts(c *gin.Context) {
	q, ok := h.questFromPath(c)
	if !ok {
		return
	}
	posts, err := h.quests.Posts(c.Request.Context(), q.ID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

// Follow handles POST /api/quests/:slug/follow.
func (h *QuestHandler) Follow(c *gin.Context) {
	accountID := mw.GetAccountID(c)
	q, ok := h.questFromPath(c)
	if !ok {
		return
	}
	profile, err := h.quests.ProfileByAccount(c.Request.Context(), accountID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if err := h.quests.Follow(c.Request.Context(), profile.ID, q.ID); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"following": true})
}

// Unfollow handles DELETE /api/quests/:slug/follow.
func (h *QuestHandler) Unfollow(c *gin.Context) {
	accountID := mw.GetAccountID(c)
	q, ok := h.questFromPath(c)
	if !ok {
		return
	}
	profile, err := h.quests.ProfileByAccount(c.Request.Context(), accountID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if err := h.quests.Unfollow(c.Request.Context(), profile.ID, q.ID); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"following": false})
}

// Following handles GET /api/quests/following.
func (h *QuestHandler) Following(c *gin.Context) {
	profile, err := h.quests.ProfileByAccount(c.Request.Context(), mw.GetAccountID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	quests, err := h.quests.Following(c.Request.Context(), profile.ID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quests": quests})
}

// ---- helpers ----

func (h *QuestHandler) questFromPath(c *gin.Context) (*model.Quest, bool) {
	q, err := h.quests.QuestBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		abortWithError(c, err)
		return nil, false
	}
	return q, true
}

// ownsCharacter aborts with 403 unless the character belongs to the
// calling account's character profile.
func (h *QuestHandler) ownsCharacter(c *gin.Context, accountID, characterID int64) bool {
	profile, err := h.characters.ProfileByAccount(c.Request.Context(), accountID)
	if err != nil {
		abortWithError(c, err)
		return false
	}
	char, err := h.characters.CharacterByID(c.Request.Context(), characterID)
	if err != nil {
		abortWithError(c, err)
		return false
	}
	if char.CharacterProfileID != profile.ID {
		abortWithError(c, apperr.Forbidden("character belongs to another account"))
		return false
	}
	return true
}

func (h *QuestHandler) isGameMaster(c *gin.Context, accountID int64, q *model.Quest) bool {
	profile, err := h.quests.ProfileByAccount(c.Request.Context(), accountID)
	if err != nil {
		abortWithError(c, err)
		return false
	}
	if profile.ID != q.GMProfileID {
		abortWithError(c, apperr.Forbidden("only the game master may move the quest"))
		return false
	}
	return true
}

func (h *QuestHandler) logAction(c *gin.Context, action string, questID *int64, accountID int64, req interface{}, err error, start time.Time) {
	if h.audit == nil {
		return
	}
	entry := audit.Entry{
		TraceID:    mw.GetTraceID(c),
		AccountID:  &accountID,
		QuestID:    questID,
		Action:     action,
		Request:    req,
		IP:         c.ClientIP(),
		DurationMs: int(time.Since(start).Milliseconds()),
	}
	if err != nil {
		entry.Error = err.Error()
	}
	h.audit.Log(entry)
}

func questIDOf(q *model.Quest) *int64 {
	if q == nil {
		return nil
	}
	return &q.ID
}
