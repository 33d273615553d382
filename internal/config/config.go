package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	DatabaseURL string // SBC_DATABASE_URL (required)
	HTTPAddr    string // SBC_HTTP_ADDR (default ":8080")
	NATSURL     string // SBC_NATS_URL (optional, empty = no events)
	AuthToken   string // SBC_AUTH_TOKEN (optional, empty = auth disabled)
	APIBase     string // SBC_API_BASE (default "http://127.0.0.1:8080"; survey scripts post responses here)

	// Engine settings
	EngineBaseDir      string        // SBC_ENGINE_FS_BASE_DIR (default "/usr/local/freeswitch/conf")
	EngineAudioDir     string        // SBC_ENGINE_AUDIO_DIR (default "/var/lib/freeswitch/storage/tenant")
	EngineCLIHost      string        // SBC_ENGINE_CLI_HOST (default "127.0.0.1")
	EngineCLIPort      int           // SBC_ENGINE_CLI_PORT (default 8021)
	EngineCLIPassword  string        // SBC_ENGINE_CLI_PASSWORD (default "ClueCon")
	EngineCLITimeout   time.Duration // SBC_ENGINE_CLI_TIMEOUT (default 5s)
	EngineReload       bool          // SBC_ENGINE_RELOAD (default true; false = write artifacts only)
	EngineReloadStrict bool          // SBC_ENGINE_RELOAD_STRICT (default false; true = reload failure fails the request)

	// Audio object storage (optional, enabled when bucket is set)
	AudioS3Bucket   string // SBC_AUDIO_S3_BUCKET
	AudioS3Region   string // SBC_AUDIO_S3_REGION (default "us-east-1")
	AudioS3Endpoint string // SBC_AUDIO_S3_ENDPOINT (custom endpoint for MinIO)
}

func Load() (*Config, error) {
	c := &Config{
		DatabaseURL:       os.Getenv("SBC_DATABASE_URL"),
		HTTPAddr:          envOrDefault("SBC_HTTP_ADDR", ":8080"),
		NATSURL:           os.Getenv("SBC_NATS_URL"),
		AuthToken:         os.Getenv("SBC_AUTH_TOKEN"),
		APIBase:           envOrDefault("SBC_API_BASE", "http://127.0.0.1:8080"),
		EngineBaseDir:     envOrDefault("SBC_ENGINE_FS_BASE_DIR", "/usr/local/freeswitch/conf"),
		EngineAudioDir:    envOrDefault("SBC_ENGINE_AUDIO_DIR", "/var/lib/freeswitch/storage/tenant"),
		EngineCLIHost:     envOrDefault("SBC_ENGINE_CLI_HOST", "127.0.0.1"),
		EngineCLIPassword: envOrDefault("SBC_ENGINE_CLI_PASSWORD", "ClueCon"),
		AudioS3Bucket:     os.Getenv("SBC_AUDIO_S3_BUCKET"),
		AudioS3Region:     envOrDefault("SBC_AUDIO_S3_REGION", "us-east-1"),
		AudioS3Endpoint:   os.Getenv("SBC_AUDIO_S3_ENDPOINT"),
	}
	if c.DatabaseURL == "" {
		return nil, fmt.Errorf("SBC_DATABASE_URL is required")
	}

	port, err := strconv.Atoi(envOrDefault("SBC_ENGINE_CLI_PORT", "8021"))
	if err != nil {
		return nil, fmt.Errorf("SBC_ENGINE_CLI_PORT: %w", err)
	}
	c.EngineCLIPort = port

	timeout, err := time.ParseDuration(envOrDefault("SBC_ENGINE_CLI_TIMEOUT", "5s"))
	if err != nil {
		return nil, fmt.Errorf("SBC_ENGINE_CLI_TIMEOUT: %w", err)
	}
	c.EngineCLITimeout = timeout

	reload, err := strconv.ParseBool(envOrDefault("SBC_ENGINE_RELOAD", "true"))
	if err != nil {
		return nil, fmt.Errorf("SBC_ENGINE_RELOAD: %w", err)
	}
	c.EngineReload = reload

	strict, err := strconv.ParseBool(envOrDefault("SBC_ENGINE_RELOAD_STRICT", "false"))
	if err != nil {
		return nil, fmt.Errorf("SBC_ENGINE_RELOAD_STRICT: %w", err)
	}
	c.EngineReloadStrict = strict

	return c, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
