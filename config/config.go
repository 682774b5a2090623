// Package config loads the environment the server runs with.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config is the fully resolved server configuration. Constructed once
// at startup and injected where needed; nothing reads the environment
// after Load returns.
type Config struct {
	Port            string
	MongoURI        string
	MongoDatabase   string
	JWTSecret       string
	RedisAddr       string
	CloudinaryURL   string
	VapidPublicKey  string
	VapidPrivateKey string
	VapidSubscriber string
	AllowedOrigins  []string
	ReleaseMode     bool
}

// Load reads .env (when present) and the process environment.
// JWT_SECRET and MONGODB_URI are required; everything else has a
// default or disables its feature when empty.
func Load() (*Config, error) {
	// Missing .env is fine in production; env vars come from the host.
	_ = godotenv.Load()

	cfg := &Config{
		Port:            envOr("PORT", "8080"),
		MongoURI:        os.Getenv("MONGODB_URI"),
		MongoDatabase:   envOr("MONGO_DB", "kindred"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		CloudinaryURL:   os.Getenv("CLOUDINARY_URL"),
		VapidPublicKey:  os.Getenv("VAPID_PUBLIC_KEY"),
		VapidPrivateKey: os.Getenv("VAPID_PRIVATE_KEY"),
		VapidSubscriber: envOr("VAPID_SUBSCRIBER", "mailto:admin@kindred.app"),
		ReleaseMode:     os.Getenv("GIN_MODE") == "release",
	}

	origins := envOr("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5500,http://127.0.0.1:5500")
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
		}
	}

	if cfg.JWTSecret == "" || cfg.MongoURI == "" {
		return nil, fmt.Errorf("JWT_SECRET and MONGODB_URI must be set")
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
