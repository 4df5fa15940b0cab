package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"sales-inbox/internal/database"
	"sales-inbox/internal/models"
	"sales-inbox/internal/template"
	"sales-inbox/internal/whatsapp"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type TemplateHandler struct {
	Client  *whatsapp.Client
	Message *MessageHandler
	log     zerolog.Logger
}

func NewTemplateHandler(client *whatsapp.Client, message *MessageHandler, log zerolog.Logger) *TemplateHandler {
	return &TemplateHandler{
		Client:  client,
		Message: message,
		log:     log.With().Str("component", "api").Logger(),
	}
}

// List returns the locally stored templates.
func (h *TemplateHandler) List(c *gin.Context) {
	var templates []models.Template
	if err := database.DB.Find(&templates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if templates == nil {
		templates = []models.Template{}
	}
	c.JSON(http.StatusOK, templates)
}

// Sync fetches templates from the provider and upserts them locally.
// Approved templates are immutable upstream, so a plain save is safe.
func (h *TemplateHandler) Sync(c *gin.Context) {
	metaTemplates, err := h.Client.GetTemplates(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch templates: " + err.Error()})
		return
	}

	synced := 0
	for _, mt := range metaTemplates {
		componentsJSON := "[]"
		if raw, err := json.Marshal(mt.Components); err == nil {
			componentsJSON = string(raw)
		}

		record := models.Template{
			ID:         mt.ID,
			Name:       mt.Name,
			Language:   mt.Language,
			Category:   mt.Category,
			Status:     mt.Status,
			Components: componentsJSON,
		}
		if err := database.DB.Save(&record).Error; err != nil {
			h.log.Error().Err(err).Str("template", mt.Name).Msg("save template")
			continue
		}
		synced++
	}

	c.JSON(http.StatusOK, gin.H{"status": "Templates synced", "count": synced})
}

// Create submits a new template for provider approval.
func (h *TemplateHandler) Create(c *gin.Context) {
	var templateData map[string]interface{}
	if err := c.ShouldBindJSON(&templateData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.Client.CreateTemplate(c.Request.Context(), templateData)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Delete removes a template both upstream and locally.
func (h *TemplateHandler) Delete(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Template name required (query param 'name')"})
		return
	}

	if err := h.Client.DeleteTemplate(c.Request.Context(), name); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	if err := database.DB.Where("name = ?", name).Delete(&models.Template{}).Error; err != nil {
		h.log.Error().Err(err).Str("template", name).Msg("delete local template")
	}

	c.JSON(http.StatusOK, gin.H{"status": "Template deleted"})
}

func (h *TemplateHandler) loadTemplate(name string) (models.Template, []template.Component, error) {
	var record models.Template
	if err := database.DB.Where("name = ?", name).First(&record).Error; err != nil {
		return record, nil, err
	}
	comps, err := template.ParseComponents(record.Components)
	if err != nil {
		// Lenient policy: a template with unparseable components simply has
		// no resolvable parameters.
		return record, nil, nil
	}
	return record, comps, nil
}

type previewRequest struct {
	WaID   string            `json:"wa_id"`
	Values map[string]string `json:"values"`
}

// Preview resolves a template's parameters for a contact: auto-filled where
// possible, overridable by the caller, and rendered for display.
func (h *TemplateHandler) Preview(c *gin.Context) {
	name := c.Param("name")

	var req previewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record, comps, err := h.loadTemplate(name)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Template not found"})
		return
	}

	params := template.ExtractParameters(comps)

	values := map[string]string{}
	if req.WaID != "" {
		var contact models.Contact
		if err := database.DB.Where("wa_id = ?", req.WaID).First(&contact).Error; err == nil {
			values = template.AutoFillAll(params, template.ContactData{
				Name:      contact.Name,
				FirstName: contact.FirstName,
				LastName:  contact.LastName,
				Email:     contact.Email,
				Phone:     contact.Phone,
				Company:   contact.Company,
				Position:  contact.Position,
			})
		}
	}
	for k, v := range req.Values {
		values[k] = v
	}

	c.JSON(http.StatusOK, gin.H{
		"template":   record,
		"parameters": params,
		"values":     values,
		"preview":    template.RenderPreview(comps, params, values),
		"all_filled": template.AllFilled(params, values),
	})
}

type sendTemplateRequest struct {
	To     string            `json:"to" binding:"required"`
	Values map[string]string `json:"values"`
}

// Send sends a template message. Rejected with 422 while any parameter is
// missing a value; a template is never sent with blanks.
func (h *TemplateHandler) Send(c *gin.Context) {
	name := c.Param("name")

	var req sendTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record, comps, err := h.loadTemplate(name)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Template not found"})
		return
	}
	if record.Status != "" && record.Status != "APPROVED" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Template is not approved"})
		return
	}

	params := template.ExtractParameters(comps)
	components, err := template.FormatForSend(params, req.Values)
	if err != nil {
		if errors.Is(err, template.ErrMissingParameter) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.Client.SendTemplate(c.Request.Context(), req.To, record.Name, record.Language, components)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to send template: " + err.Error()})
		return
	}

	preview := template.RenderPreview(comps, params, req.Values)
	stored := h.Message.storeOutbound(req.To, preview.Body, "template", resp)
	c.JSON(http.StatusOK, gin.H{"status": "Template sent", "message": stored})
}
