package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string
	JWTSecret  string

	OpenRouterAPIKey string
	AppURL           string
	ChatModel        string
	TitleModel       string

	// Number of persisted user messages after which the next successful
	// reply triggers title generation.
	TitleTriggerUserMessages int

	// Optional YAML file overriding the built-in onboarding script.
	TutorialScriptFile string

	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOBucket    string
	MinIOUseSSL    bool
}

func LoadConfig() Config {
	if err := godotenv.Load(); err != nil {
		// No .env file; system environment variables only.
	}

	return Config{
		DBUser:     getEnv("DB_USER", ""),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBHost:     getEnv("DB_HOST", ""),
		DBPort:     getEnv("DB_PORT", ""),
		DBName:     getEnv("DB_NAME", ""),
		JWTSecret:  getEnv("JWT_SECRET", ""),

		OpenRouterAPIKey: getEnv("OPENROUTER_API_KEY", ""),
		AppURL:           getEnv("APP_URL", "http://localhost:3000"),
		ChatModel:        getEnv("CHAT_MODEL", "google/gemini-2.5-pro"),
		TitleModel:       getEnv("TITLE_MODEL", "google/gemini-2.5-flash"),

		TitleTriggerUserMessages: getEnvInt("TITLE_TRIGGER_USER_MESSAGES", 2),

		TutorialScriptFile: getEnv("TUTORIAL_SCRIPT_FILE", ""),

		MinIOEndpoint:  getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinIOBucket:    getEnv("MINIO_BUCKET", "theia-attachments"),
		MinIOUseSSL:    getEnv("MINIO_USE_SSL", "false") == "true",
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}
