package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Port                      string
	Env                       string
	LogLevel                  string
	VerifyToken               string
	WhatsAppToken             string
	PhoneNumberID             string
	WhatsAppBusinessAccountID string
	HubSpotToken              string
	HubSpotBaseURL            string
	JWTSecret                 string
	DBDriver                  string
	DBPath                    string
	DBDSN                     string
}

func LoadConfig() *Config {
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: Error loading .env file")
	}

	return &Config{
		Port:                      getEnv("PORT", "8080"),
		Env:                       getEnv("APP_ENV", "development"),
		LogLevel:                  getEnv("LOG_LEVEL", "info"),
		VerifyToken:               getEnv("VERIFY_TOKEN", ""),
		WhatsAppToken:             getEnv("WHATSAPP_TOKEN", ""),
		PhoneNumberID:             getEnv("PHONE_NUMBER_ID", ""),
		WhatsAppBusinessAccountID: getEnv("WABA_ID", ""),
		HubSpotToken:              getEnv("HUBSPOT_TOKEN", ""),
		HubSpotBaseURL:            getEnv("HUBSPOT_BASE_URL", "https://api.hubapi.com"),
		JWTSecret:                 getEnv("JWT_SECRET", ""),
		DBDriver:                  getEnv("DB_DRIVER", "sqlite"),
		DBPath:                    getEnv("DB_PATH", "./salesinbox.db"),
		DBDSN:                     getEnv("DB_DSN", ""),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
