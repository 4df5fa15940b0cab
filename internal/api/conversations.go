package api

import (
	"net/http"

	"sales-inbox/internal/database"
	"sales-inbox/internal/messaging"
	"sales-inbox/internal/models"
	"sales-inbox/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type ConversationHandler struct {
	Evaluator *messaging.Evaluator
	Hub       *ws.Hub
	log       zerolog.Logger
}

func NewConversationHandler(evaluator *messaging.Evaluator, hub *ws.Hub, log zerolog.Logger) *ConversationHandler {
	return &ConversationHandler{
		Evaluator: evaluator,
		Hub:       hub,
		log:       log.With().Str("component", "api").Logger(),
	}
}

func windowMessages(msgs []models.Message) []messaging.WindowMessage {
	out := make([]messaging.WindowMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, messaging.WindowMessage{Direction: m.Direction, CreatedAt: m.CreatedAt})
	}
	return out
}

type conversationView struct {
	models.Conversation
	Contact      *models.Contact        `json:"contact,omitempty"`
	LastMessage  *models.Message        `json:"last_message,omitempty"`
	WindowStatus messaging.WindowStatus `json:"window_status"`
}

// List returns every conversation with its contact, last message and the
// current 24h window status.
func (h *ConversationHandler) List(c *gin.Context) {
	var conversations []models.Conversation
	if err := database.DB.Order("updated_at DESC").Find(&conversations).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	views := make([]conversationView, 0, len(conversations))
	for _, conv := range conversations {
		view := conversationView{Conversation: conv}

		var contact models.Contact
		if err := database.DB.Where("wa_id = ?", conv.WaID).First(&contact).Error; err == nil {
			view.Contact = &contact
		}

		var msgs []models.Message
		database.DB.Where("wa_id = ?", conv.WaID).Order("created_at ASC").Find(&msgs)
		if len(msgs) > 0 {
			view.LastMessage = &msgs[len(msgs)-1]
		}
		view.WindowStatus = h.Evaluator.Status(windowMessages(msgs))

		views = append(views, view)
	}

	c.JSON(http.StatusOK, views)
}

// Get returns the full message history for one conversation.
func (h *ConversationHandler) Get(c *gin.Context) {
	waID := c.Param("waId")

	var conv models.Conversation
	if err := database.DB.Where("wa_id = ?", waID).First(&conv).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
		return
	}

	var msgs []models.Message
	if err := database.DB.Where("wa_id = ?", waID).Order("created_at ASC").Find(&msgs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if msgs == nil {
		msgs = []models.Message{}
	}

	c.JSON(http.StatusOK, gin.H{
		"conversation":  conv,
		"messages":      msgs,
		"window_status": h.Evaluator.Status(windowMessages(msgs)),
	})
}

type toggleAgentRequest struct {
	State *int `json:"state" binding:"required"`
}

// ToggleAgent flips the AI agent for a conversation. 0 = agent replies,
// 1 = agent muted so a human takes over.
func (h *ConversationHandler) ToggleAgent(c *gin.Context) {
	waID := c.Param("waId")

	var req toggleAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if *req.State != models.AgentActive && *req.State != models.AgentInactive {
		c.JSON(http.StatusBadRequest, gin.H{"error": "state must be 0 or 1"})
		return
	}

	var conv models.Conversation
	if err := database.DB.Where("wa_id = ?", waID).First(&conv).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
		return
	}

	conv.AgentState = *req.State
	if err := database.DB.Save(&conv).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update conversation"})
		return
	}

	h.log.Info().Str("wa_id", waID).Int("state", conv.AgentState).Msg("agent toggled")
	if h.Hub != nil {
		h.Hub.NotifyConversation(conv)
	}
	c.JSON(http.StatusOK, conv)
}
