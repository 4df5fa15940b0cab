package api

import (
	"encoding/json"
	"net/http"

	"sales-inbox/internal/database"
	"sales-inbox/internal/messaging"
	"sales-inbox/internal/models"
	"sales-inbox/internal/whatsapp"
	"sales-inbox/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm/clause"
)

type MessageHandler struct {
	Client    *whatsapp.Client
	Evaluator *messaging.Evaluator
	Hub       *ws.Hub
	log       zerolog.Logger
}

func NewMessageHandler(client *whatsapp.Client, evaluator *messaging.Evaluator, hub *ws.Hub, log zerolog.Logger) *MessageHandler {
	return &MessageHandler{
		Client:    client,
		Evaluator: evaluator,
		Hub:       hub,
		log:       log.With().Str("component", "api").Logger(),
	}
}

type sendFreeformRequest struct {
	To      string `json:"to" binding:"required"`
	Content string `json:"content" binding:"required"`
}

// SendFreeform sends a plain text message. Blocked with 422 when the 24h
// messaging window is closed; the caller must fall back to a template.
func (h *MessageHandler) SendFreeform(c *gin.Context) {
	var req sendFreeformRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var history []models.Message
	database.DB.Where("wa_id = ?", req.To).Order("created_at ASC").Find(&history)

	window := windowMessages(history)
	if !h.Evaluator.CanSendFreeform(window) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":  h.Evaluator.DisabledReason(window),
			"window": h.Evaluator.Status(window),
		})
		return
	}

	resp, err := h.Client.SendText(c.Request.Context(), req.To, req.Content)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to send message: " + err.Error()})
		return
	}

	stored := h.storeOutbound(req.To, req.Content, "text", resp)
	c.JSON(http.StatusOK, gin.H{"status": "Message sent", "message": stored})
}

func (h *MessageHandler) storeOutbound(to, content, msgType string, resp *whatsapp.SendResponse) models.Message {
	metadata := ""
	if resp != nil && len(resp.Messages) > 0 {
		raw, _ := json.Marshal(map[string]string{"wamid": resp.Messages[0].ID})
		metadata = string(raw)
	}

	stored := models.Message{
		WaID:      to,
		Direction: models.DirectionOutbound,
		Role:      "agent",
		Content:   content,
		Type:      msgType,
		Status:    "sent",
		Metadata:  metadata,
	}
	if err := database.DB.Create(&stored).Error; err != nil {
		h.log.Error().Err(err).Str("to", to).Msg("store outbound message")
	}

	// An agent-initiated send can be first contact, so the conversation must
	// exist for the inbox list even before the customer ever replies.
	conv := models.Conversation{WaID: to}
	database.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "wa_id"}},
		DoNothing: true,
	}).Create(&conv)
	database.DB.Where("wa_id = ?", to).First(&conv)

	if h.Hub != nil {
		h.Hub.NotifyMessage(stored)
		h.Hub.NotifyConversation(conv)
	}
	return stored
}

// MediaProxy streams WhatsApp media bytes to the dashboard, which cannot
// call the Graph CDN directly (the download URL needs our bearer token).
func (h *MessageHandler) MediaProxy(c *gin.Context) {
	mediaID := c.Param("id")
	if mediaID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Media ID required"})
		return
	}

	data, contentType, err := h.Client.DownloadMedia(c.Request.Context(), mediaID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Data(http.StatusOK, contentType, data)
}
