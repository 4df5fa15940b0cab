package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"sales-inbox/internal/config"
	"sales-inbox/internal/database"
	"sales-inbox/internal/models"
	"sales-inbox/internal/whatsapp"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func TestDeleteRemovesLocalTemplate(t *testing.T) {
	setupTestDB(t)

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true}`))
	}))
	defer upstream.Close()

	client := whatsapp.NewClient(&config.Config{
		WhatsAppToken:             "test-token",
		WhatsAppBusinessAccountID: "123",
	}, zerolog.Nop())
	client.BaseURL = upstream.URL

	h := NewTemplateHandler(client, nil, zerolog.Nop())
	database.DB.Create(&models.Template{ID: "t1", Name: "promo", Language: "es", Status: "APPROVED"})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("DELETE", "/api/templates?name=promo", nil)

	h.Delete(c)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var count int64
	database.DB.Model(&models.Template{}).Where("name = ?", "promo").Count(&count)
	if count != 0 {
		t.Fatalf("expected local template gone, found %d", count)
	}
}
