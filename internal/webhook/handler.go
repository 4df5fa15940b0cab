package webhook

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"sales-inbox/internal/config"
	"sales-inbox/internal/database"
	"sales-inbox/internal/models"
	"sales-inbox/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm/clause"
)

// Payload is the incoming JSON from the WhatsApp Cloud API.
type Payload struct {
	Object string `json:"object"`
	Entry  []struct {
		ID      string `json:"id"`
		Changes []struct {
			Value struct {
				MessagingProduct string `json:"messaging_product"`
				Metadata         struct {
					DisplayPhoneNumber string `json:"display_phone_number"`
					PhoneNumberID      string `json:"phone_number_id"`
				} `json:"metadata"`
				Contacts []struct {
					Profile struct {
						Name string `json:"name"`
					} `json:"profile"`
					WaID string `json:"wa_id"`
				} `json:"contacts,omitempty"`
				Messages []IncomingMessage `json:"messages,omitempty"`
				Statuses []struct {
					ID          string `json:"id"`
					Status      string `json:"status"`
					Timestamp   string `json:"timestamp"`
					RecipientID string `json:"recipient_id"`
				} `json:"statuses,omitempty"`
			} `json:"value"`
			Field string `json:"field"`
		} `json:"changes"`
	} `json:"entry"`
}

type IncomingMessage struct {
	From      string `json:"from"`
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	Text      *struct {
		Body string `json:"body"`
	} `json:"text,omitempty"`
	Image    *MediaRef `json:"image,omitempty"`
	Video    *MediaRef `json:"video,omitempty"`
	Audio    *MediaRef `json:"audio,omitempty"`
	Document *MediaRef `json:"document,omitempty"`
}

type MediaRef struct {
	ID       string `json:"id"`
	MimeType string `json:"mime_type"`
	Caption  string `json:"caption,omitempty"`
	Filename string `json:"filename,omitempty"`
}

type Handler struct {
	Config *config.Config
	Hub    *ws.Hub
	log    zerolog.Logger
}

func NewHandler(cfg *config.Config, hub *ws.Hub, log zerolog.Logger) *Handler {
	return &Handler{
		Config: cfg,
		Hub:    hub,
		log:    log.With().Str("component", "webhook").Logger(),
	}
}

func (h *Handler) Verify(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode == "" || token == "" {
		c.Status(http.StatusBadRequest)
		return
	}
	if mode == "subscribe" && token == h.Config.VerifyToken {
		h.log.Info().Msg("webhook verified")
		c.String(http.StatusOK, challenge)
		return
	}
	c.Status(http.StatusForbidden)
}

func (h *Handler) Receive(c *gin.Context) {
	var payload Payload
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.log.Error().Err(err).Msg("bind webhook payload")
		c.Status(http.StatusBadRequest)
		return
	}

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			if change.Field != "messages" {
				continue
			}
			profileNames := make(map[string]string)
			for _, contact := range change.Value.Contacts {
				profileNames[contact.WaID] = contact.Profile.Name
			}
			for _, msg := range change.Value.Messages {
				h.storeInbound(msg, profileNames[msg.From])
			}
			for _, status := range change.Value.Statuses {
				database.DB.Model(&models.Message{}).
					Where("metadata LIKE ?", "%"+status.ID+"%").
					Update("status", status.Status)
			}
		}
	}

	c.Status(http.StatusOK)
}

func (h *Handler) storeInbound(msg IncomingMessage, profileName string) {
	content, msgType := flatten(msg)

	createdAt := time.Now()
	if secs, err := strconv.ParseInt(msg.Timestamp, 10, 64); err == nil {
		createdAt = time.Unix(secs, 0)
	}

	metadata, _ := json.Marshal(map[string]string{"wamid": msg.ID})

	stored := models.Message{
		WaID:      msg.From,
		Direction: models.DirectionInbound,
		Role:      "lead",
		Content:   content,
		Type:      msgType,
		Status:    "received",
		Metadata:  string(metadata),
		CreatedAt: createdAt,
	}
	if err := database.DB.Create(&stored).Error; err != nil {
		h.log.Error().Err(err).Str("from", msg.From).Msg("store inbound message")
		return
	}

	// A new inbound message reopens the 24h window; make sure the
	// conversation exists and surface the update to the dashboard.
	conv := models.Conversation{WaID: msg.From}
	database.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "wa_id"}},
		DoNothing: true,
	}).Create(&conv)
	database.DB.Where("wa_id = ?", msg.From).First(&conv)

	contact := models.Contact{WaID: msg.From, Name: profileName, Phone: msg.From}
	database.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "wa_id"}},
		DoNothing: true,
	}).Create(&contact)

	h.log.Info().Str("from", msg.From).Str("type", msgType).Msg("inbound message")
	if h.Hub != nil {
		h.Hub.NotifyMessage(stored)
		h.Hub.NotifyConversation(conv)
	}
}

func flatten(msg IncomingMessage) (content, msgType string) {
	msgType = msg.Type
	switch msg.Type {
	case "text":
		if msg.Text != nil {
			content = msg.Text.Body
		}
	case "image":
		if msg.Image != nil {
			content = "[image]:" + msg.Image.ID
			if msg.Image.Caption != "" {
				content += ":" + msg.Image.Caption
			}
		}
	case "video":
		if msg.Video != nil {
			content = "[video]:" + msg.Video.ID
			if msg.Video.Caption != "" {
				content += ":" + msg.Video.Caption
			}
		}
	case "audio":
		if msg.Audio != nil {
			content = "[audio]:" + msg.Audio.ID
		}
	case "document":
		if msg.Document != nil {
			content = "[document]:" + msg.Document.ID
			if msg.Document.Filename != "" {
				content += ":" + msg.Document.Filename
			}
		}
	default:
		content = "[" + msg.Type + "]"
	}
	return content, msgType
}
