package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sojrpg/server/game/character"
	mw "github.com/sojrpg/server/middleware"
)

// CharacterHandler handles character REST endpoints.
type CharacterHandler struct {
	characters *character.Service
}

// NewCharacterHandler creates a CharacterHandler.
func NewCharacterHandler(characters *character.Service) *CharacterHandler {
	return &CharacterHandler{characters: characters}
}

// List handles GET /api/characters.
func (h *CharacterHandler) List(c *gin.Context) {
	profile, err := h.characters.ProfileByAccount(c.Request.Context(), mw.GetAccountID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	chars, err := h.characters.Characters(c.Request.Context(), profile.ID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	free, err := h.characters.HasFreeSlot(c.Request.Context(), profile.ID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"characters":    chars,
		"slots":         profile.Slots,
		"has_free_slot": free,
	})
}

// Available handles GET /api/characters/available: characters not on an
// active quest, the pool quest creation and joining draw from.
func (h *CharacterHandler) Available(c *gin.Context) {
	profile, err := h.characters.ProfileByAccount(c.Request.Context(), mw.GetAccountID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	chars, err := h.characters.AvailableCharacters(c.Request.Context(), profile.ID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"characters": chars})
}

type createCharacterRequest struct {
	Name                string `json:"name"                 binding:"required,min=1,max=50"`
	HomeTownID          int64  `json:"home_town_id"         binding:"required"`
	RaceID              int64  `json:"race_id"              binding:"required"`
	PhysicalDescription string `json:"physical_description" binding:"required,max=500"`
	Personality         string `json:"personality"          binding:"required,max=500"`
	Skills              string `json:"skills"               binding:"required,max=500"`
	FullBiography       string `json:"full_biography"`
}

// Create handles POST /api/characters.
func (h *CharacterHandler) Create(c *gin.Context) {
	var req createCharacterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	profile, err := h.characters.ProfileByAccount(c.Request.Context(), mw.GetAccountID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	char, err := h.characters.CreateCharacter(c.Request.Context(), profile.ID, character.CreateParams{
		Name:                req.Name,
		HomeTownID:          req.HomeTownID,
		RaceID:              req.RaceID,
		PhysicalDescription: req.PhysicalDescription,
		Personality:         req.Personality,
		Skills:              req.Skills,
		FullBiography:       req.FullBiography,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, char)
}

// Show handles GET /api/characters/:id, including the character's
// current quest if any.
func (h *CharacterHandler) Show(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	char, err := h.characters.CharacterByID(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	quest, err := h.characters.CurrentQuest(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"character": char, "current_quest": quest})
}
