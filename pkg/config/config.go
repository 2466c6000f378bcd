package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	AzureOpenAI AzureOpenAIConfig
	RAG         RAGConfig
	Logger      LoggerConfig
}

type LoggerConfig struct {
	Level string
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type JWTConfig struct {
	SecretKey  string
	Expiration time.Duration
	RefreshExp time.Duration
}

type AzureOpenAIConfig struct {
	Endpoint            string
	APIKey              string
	APIVersion          string
	ChatDeployment      string
	EmbeddingDeployment string
	Temperature         float64
	MaxTokens           int
	RequestTimeout      time.Duration
}

// DomainConfig holds per-domain retrieval and ingestion settings.
type DomainConfig struct {
	TopK         int
	ChunkSize    int
	ChunkOverlap int
	DocumentsDir string
}

type RAGConfig struct {
	IndexBackend string // "postgres" or "memory"
	SOP          DomainConfig
	HC           DomainConfig
	UploadDir    string
	PersonaDir   string // optional prompt template overrides
	HistoryTurns int    // prior turns included in the prompt
}

func Load() (*Config, error) {
	// Try to load .env file from current directory or project root
	envFiles := []string{".env", "../.env", "../../.env"}
	for _, envFile := range envFiles {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}
	// No .env is fine: plain environment variables work for Docker/K8s.

	readTimeout, _ := strconv.Atoi(getEnv("SERVER_READ_TIMEOUT", "30"))
	writeTimeout, _ := strconv.Atoi(getEnv("SERVER_WRITE_TIMEOUT", "30"))
	jwtExp, _ := strconv.Atoi(getEnv("JWT_EXPIRATION_HOURS", "24"))
	refreshExp, _ := strconv.Atoi(getEnv("JWT_REFRESH_EXPIRATION_HOURS", "168"))
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	temperature, _ := strconv.ParseFloat(getEnv("LLM_TEMPERATURE", "0.0"), 64)
	maxTokens, _ := strconv.Atoi(getEnv("LLM_MAX_TOKENS", "1000"))
	llmTimeout, _ := strconv.Atoi(getEnv("LLM_REQUEST_TIMEOUT", "60"))
	historyTurns, _ := strconv.Atoi(getEnv("RAG_HISTORY_TURNS", "6"))

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  time.Duration(readTimeout) * time.Second,
			WriteTimeout: time.Duration(writeTimeout) * time.Second,
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "unified_assistant"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		JWT: JWTConfig{
			SecretKey:  getEnv("JWT_SECRET_KEY", "your-secret-key-change-in-production"),
			Expiration: time.Duration(jwtExp) * time.Hour,
			RefreshExp: time.Duration(refreshExp) * time.Hour,
		},
		AzureOpenAI: AzureOpenAIConfig{
			Endpoint:            getEnv("AZURE_OPENAI_ENDPOINT", ""),
			APIKey:              getEnv("AZURE_OPENAI_KEY", ""),
			APIVersion:          getEnv("AZURE_OPENAI_API_VERSION", "2024-02-01"),
			ChatDeployment:      getEnv("AZURE_CHAT_DEPLOYMENT", "gpt-4.1-mini"),
			EmbeddingDeployment: getEnv("AZURE_EMBEDDING_DEPLOYMENT", "text-embedding-ada-002"),
			Temperature:         temperature,
			MaxTokens:           maxTokens,
			RequestTimeout:      time.Duration(llmTimeout) * time.Second,
		},
		RAG: RAGConfig{
			IndexBackend: getEnv("INDEX_BACKEND", "postgres"),
			SOP:          loadDomainConfig("SOP", "data/sop"),
			HC:           loadDomainConfig("HC", "data/hr"),
			UploadDir:    getEnv("UPLOAD_DIR", "uploads/hc"),
			PersonaDir:   getEnv("PERSONA_DIR", ""),
			HistoryTurns: historyTurns,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}, nil
}

func loadDomainConfig(prefix, defaultDir string) DomainConfig {
	topK, _ := strconv.Atoi(getEnv(prefix+"_TOP_K", "4"))
	chunkSize, _ := strconv.Atoi(getEnv(prefix+"_CHUNK_SIZE", "800"))
	chunkOverlap, _ := strconv.Atoi(getEnv(prefix+"_CHUNK_OVERLAP", "120"))
	return DomainConfig{
		TopK:         topK,
		ChunkSize:    chunkSize,
		ChunkOverlap: chunkOverlap,
		DocumentsDir: getEnv(prefix+"_DOCUMENTS_DIR", defaultDir),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
