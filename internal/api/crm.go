package api

import (
	"errors"
	"net/http"

	"sales-inbox/internal/crm"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// CRMHandler exposes HubSpot data keyed by the contact's phone number.
// Responses are served from a short-lived cache unless ?refresh=1 is set.
type CRMHandler struct {
	Client *crm.Client
	log    zerolog.Logger
}

func NewCRMHandler(client *crm.Client, log zerolog.Logger) *CRMHandler {
	return &CRMHandler{
		Client: client,
		log:    log.With().Str("component", "api").Logger(),
	}
}

func refreshRequested(c *gin.Context) bool {
	v := c.Query("refresh")
	return v == "1" || v == "true"
}

func (h *CRMHandler) GetContact(c *gin.Context) {
	phone := c.Param("phone")

	contact, err := h.Client.GetContactByPhone(c.Request.Context(), phone, refreshRequested(c))
	if err != nil {
		if errors.Is(err, crm.ErrContactNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Contact not found in CRM"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, contact)
}

func (h *CRMHandler) GetDeals(c *gin.Context) {
	phone := c.Param("phone")

	deals, err := h.Client.GetDeals(c.Request.Context(), phone, refreshRequested(c))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	if deals == nil {
		deals = []crm.Deal{}
	}
	c.JSON(http.StatusOK, deals)
}

func (h *CRMHandler) GetTasks(c *gin.Context) {
	phone := c.Param("phone")

	tasks, err := h.Client.GetTasks(c.Request.Context(), phone, refreshRequested(c))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	if tasks == nil {
		tasks = []crm.Task{}
	}
	c.JSON(http.StatusOK, tasks)
}

type createTaskRequest struct {
	Subject string `json:"subject" binding:"required"`
	DueDate string `json:"due_date"`
}

func (h *CRMHandler) CreateTask(c *gin.Context) {
	phone := c.Param("phone")

	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.Client.CreateTask(c.Request.Context(), phone, req.Subject, req.DueDate); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to create task: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "Task created"})
}

func (h *CRMHandler) GetActivity(c *gin.Context) {
	phone := c.Param("phone")

	events, err := h.Client.GetActivity(c.Request.Context(), phone, refreshRequested(c))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	if events == nil {
		events = []crm.ActivityEvent{}
	}
	c.JSON(http.StatusOK, events)
}
