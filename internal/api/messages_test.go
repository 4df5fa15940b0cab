package api

import (
	"path/filepath"
	"testing"

	"sales-inbox/internal/database"
	"sales-inbox/internal/models"

	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Conversation{},
		&models.Message{},
		&models.Contact{},
		&models.Template{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	database.DB = db
}

func TestStoreOutboundCreatesConversation(t *testing.T) {
	setupTestDB(t)
	h := &MessageHandler{log: zerolog.Nop()}

	stored := h.storeOutbound("5215550001", "Hola", "template", nil)
	if stored.Direction != models.DirectionOutbound {
		t.Fatalf("expected outbound direction, got %s", stored.Direction)
	}

	// A first-contact template send must surface in the inbox immediately,
	// before the customer has ever replied.
	var conv models.Conversation
	if err := database.DB.Where("wa_id = ?", "5215550001").First(&conv).Error; err != nil {
		t.Fatalf("expected conversation row for first-contact send: %v", err)
	}

	var msg models.Message
	if err := database.DB.Where("wa_id = ?", "5215550001").First(&msg).Error; err != nil {
		t.Fatalf("expected stored message: %v", err)
	}
}

func TestStoreOutboundKeepsExistingConversation(t *testing.T) {
	setupTestDB(t)
	database.DB.Create(&models.Conversation{WaID: "5215550002", AgentState: models.AgentInactive})

	h := &MessageHandler{log: zerolog.Nop()}
	h.storeOutbound("5215550002", "Hola de nuevo", "text", nil)

	var convs []models.Conversation
	database.DB.Where("wa_id = ?", "5215550002").Find(&convs)
	if len(convs) != 1 {
		t.Fatalf("expected a single conversation, got %d", len(convs))
	}
	if convs[0].AgentState != models.AgentInactive {
		t.Fatalf("agent state must survive an outbound send, got %d", convs[0].AgentState)
	}
}
