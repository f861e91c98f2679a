package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	Port            string
	CORSAllowOrigin []string
	Env             string
	ObjectStoreType string
	LocalStoreDir   string
	AWSRegion       string
	S3Bucket        string
	S3Prefix        string
	SSEKMSKeyID     string
	InputFormat     string
	VerifyBaseURL   string
	AnalysisDelay   time.Duration
	AnalysisTimeout time.Duration
	AnalysisSeed    int64
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	return Config{
		Port:            getEnv("PORT", "8080"),
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		Env:             normalizeEnv(getEnv("ENV", "dev")),
		ObjectStoreType: normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:   getEnv("LOCAL_STORE_DIR", "./data"),
		AWSRegion:       getEnv("AWS_REGION", ""),
		S3Bucket:        getEnv("S3_BUCKET", ""),
		S3Prefix:        getEnv("S3_PREFIX", ""),
		SSEKMSKeyID:     getEnv("SSE_KMS_KEY_ID", ""),
		InputFormat:     normalizeInputFormat(getEnv("INPUT_FORMAT", "csv")),
		VerifyBaseURL:   getEnv("VERIFY_BASE_URL", "https://sales-audit.example.com"),
		AnalysisDelay:   millisEnv("ANALYSIS_DELAY_MS", 2000),
		AnalysisTimeout: millisEnv("ANALYSIS_TIMEOUT_MS", 30000),
		AnalysisSeed:    int64Env("ANALYSIS_SEED", 0),
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func millisEnv(key string, def int64) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return time.Duration(def) * time.Millisecond
	}
	parsed, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || parsed < 0 {
		return time.Duration(def) * time.Millisecond
	}
	return time.Duration(parsed) * time.Millisecond
}

func int64Env(key string, def int64) int64 {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	parsed, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return def
	}
	return parsed
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}

func normalizeInputFormat(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "xlsx", "excel":
		return "xlsx"
	default:
		return "csv"
	}
}
