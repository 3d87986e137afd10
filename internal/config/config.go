package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	SMTP       SMTPConfig
	Ai         AIConfig
	Safety     SafetyConfig
	Publish    PublishConfig
	Transcribe TranscribeConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	ClientURL          string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	ArtifactTopic      string // watermill topic for published artifacts
}

type DatabaseConfig struct {
	Connection string
}

type SMTPConfig struct {
	Host       string
	Port       int
	Email      string
	Password   string
	SenderName string
}

type AIConfig struct {
	LLMProvider   string // "ollama" or "huggingface"
	LLMModel      string // e.g. "llama3", "qwen2.5"
	OllamaBaseURL string
	HuggingFace   string // API key
}

type SafetyConfig struct {
	ClassifierBaseURL string // empty disables the remote classifier
	ClassifierModel   string
	ClassifierAPIKey  string
}

type PublishConfig struct {
	TelegraphBaseURL string
	AuthorName       string
}

type TranscribeConfig struct {
	WhisperBaseURL string // empty disables voice input
	WhisperModel   string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			ClientURL:          getEnv("CLIENT_URL", "http://localhost:5173"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log.csv"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			ArtifactTopic:      getEnv("ARTIFACT_PUBLISHED_TOPIC_NAME", "ARTIFACT_PUBLISHED"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", ""),
			Port:       getEnvAsInt("SMTP_PORT", 587),
			Email:      getEnv("SMTP_EMAIL", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			SenderName: getEnv("SMTP_SENDER_NAME", "CoParenting"),
		},
		Ai: AIConfig{
			LLMProvider:   getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:      getEnv("LLM_MODEL", "llama3"),
			OllamaBaseURL: getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			HuggingFace:   getEnv("HUGGINGFACE_API_KEY", ""),
		},
		Safety: SafetyConfig{
			ClassifierBaseURL: getEnv("SAFETY_CLASSIFIER_BASE_URL", ""),
			ClassifierModel:   getEnv("SAFETY_CLASSIFIER_MODEL", "cointegrated/rubert-tiny-toxicity"),
			ClassifierAPIKey:  getEnv("SAFETY_CLASSIFIER_API_KEY", ""),
		},
		Publish: PublishConfig{
			TelegraphBaseURL: getEnv("TELEGRAPH_BASE_URL", "https://api.telegra.ph"),
			AuthorName:       getEnv("TELEGRAPH_AUTHOR_NAME", "CoParenting"),
		},
		Transcribe: TranscribeConfig{
			WhisperBaseURL: getEnv("WHISPER_BASE_URL", ""),
			WhisperModel:   getEnv("WHISPER_MODEL", "whisper-1"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}
