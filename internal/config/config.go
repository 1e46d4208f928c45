package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string
	Env  string

	MongoURI  string
	MongoDB   string
	RedisURL  string
	JWTSecret string

	CartTTL time.Duration

	// AllowUncataloguedItems lets checkout accept order lines whose
	// product is absent from the catalog, using the client-supplied
	// snapshot verbatim. Off by default: such lines carry a
	// client-controlled price.
	AllowUncataloguedItems bool

	AllowedOrigins string
	EventsChannel  string
}

func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:                   getEnv("PORT", "8080"),
		Env:                    getEnv("ENV", "development"),
		MongoURI:               getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:                getEnv("MONGO_DB", "cartz"),
		RedisURL:               getEnv("REDIS_URL", "redis://localhost:6379"),
		JWTSecret:              getEnv("JWT_SECRET", ""),
		CartTTL:                time.Hour * time.Duration(getEnvInt("CART_TTL_HOURS", 24*7)),
		AllowUncataloguedItems: getEnvBool("ALLOW_UNCATALOGUED_ITEMS", false),
		AllowedOrigins:         getEnv("ALLOWED_ORIGINS", "http://localhost:3000"),
		EventsChannel:          getEnv("EVENTS_CHANNEL", "cartz.order.events"),
	}
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}
