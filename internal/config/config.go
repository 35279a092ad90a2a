// config.go
package config

import (
	"os"
	"strconv"
)

type Config struct {
	MongoURI          string
	MongoDBName       string
	AuthURL           string
	CatalogURL        string
	RabbitURL         string
	Port              string
	MaxUploadBytes    int64
	WindowDefaultOpen bool
}

func Load() *Config {
	return &Config{
		MongoURI:          getEnv("MONGO_URI", "mongodb://host.docker.internal:27017"),
		MongoDBName:       getEnv("MONGO_DB_NAME", "order_workflow_db"),
		AuthURL:           getEnv("AUTH_URL", "http://host.docker.internal:3000"),
		CatalogURL:        getEnv("CATALOG_URL", "http://host.docker.internal:3002"),
		RabbitURL:         getEnv("RABBIT_URL", "amqp://host.docker.internal"),
		Port:              getEnv("PORT", "8080"),
		MaxUploadBytes:    getEnvInt64("MAX_UPLOAD_BYTES", 10<<20), // 10 MB
		WindowDefaultOpen: getEnvBool("WINDOW_DEFAULT_OPEN", true),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}
