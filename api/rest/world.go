package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sojrpg/server/game/quest"
	"github.com/sojrpg/server/game/world"
)

// WorldHandler serves the read-only world catalog.
type WorldHandler struct {
	world  *world.Service
	quests *quest.Service
}

// NewWorldHandler creates a WorldHandler.
func NewWorldHandler(w *world.Service, q *quest.Service) *WorldHandler {
	return &WorldHandler{world: w, quests: q}
}

// Continents handles GET /api/world/continents.
func (h *WorldHandler) Continents(c *gin.Context) {
	continents, err := h.world.Continents(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"continents": continents})
}

// ContinentLocations handles GET /api/world/continents/:slug/locations.
func (h *WorldHandler) ContinentLocations(c *gin.Context) {
	continent, err := h.world.ContinentBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	locations, err := h.world.LocationsByContinent(c.Request.Context(), continent.ID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"continent": continent, "locations": locations})
}

// Location handles GET /api/world/locations/:slug: the catalog row plus
// the quests currently here and the quests that have passed through.
func (h *WorldHandler) Location(c *gin.Context) {
	ctx := c.Request.Context()
	location, err := h.world.LocationBySlug(ctx, c.Param("slug"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	ledger := h.quests.Ledger()
	current, err := ledger.CurrentQuests(ctx, location.ID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	former, err := ledger.FormerQuests(ctx, location.ID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"location":       location,
		"current_quests": current,
		"former_quests":  former,
	})
}

// Races handles GET /api/world/races.
func (h *WorldHandler) Races(c *gin.Context) {
	races, err := h.world.Races(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"races": races})
}
