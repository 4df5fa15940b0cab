package api

import (
	"net/http"

	"sales-inbox/internal/database"
	"sales-inbox/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm/clause"
)

var insightKinds = map[string]bool{
	"qualification":        true,
	"summary":              true,
	"company_intelligence": true,
}

type InsightHandler struct {
	log zerolog.Logger
}

func NewInsightHandler(log zerolog.Logger) *InsightHandler {
	return &InsightHandler{log: log.With().Str("component", "api").Logger()}
}

// List returns all stored insights for a conversation, keyed by kind.
func (h *InsightHandler) List(c *gin.Context) {
	waID := c.Param("waId")

	var insights []models.Insight
	if err := database.DB.Where("wa_id = ?", waID).Find(&insights).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	byKind := make(map[string]models.Insight, len(insights))
	for _, insight := range insights {
		byKind[insight.Kind] = insight
	}
	c.JSON(http.StatusOK, byKind)
}

type upsertInsightRequest struct {
	Kind    string `json:"kind" binding:"required"`
	Payload string `json:"payload" binding:"required"`
}

// Upsert stores or replaces one insight blob. One row per (wa_id, kind).
func (h *InsightHandler) Upsert(c *gin.Context) {
	waID := c.Param("waId")

	var req upsertInsightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !insightKinds[req.Kind] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown insight kind: " + req.Kind})
		return
	}

	insight := models.Insight{WaID: waID, Kind: req.Kind, Payload: req.Payload}
	err := database.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "wa_id"}, {Name: "kind"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&insight).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store insight"})
		return
	}

	h.log.Info().Str("wa_id", waID).Str("kind", req.Kind).Msg("insight stored")
	c.JSON(http.StatusOK, insight)
}
