// Package config provides configuration management for the bot.
// It loads environment variables and makes them available throughout the application.
package config

import (
	"os"
	"strconv"
	"sync"

	"github.com/joho/godotenv"
)

// Storage drivers accepted by STORAGE_DRIVER.
const (
	StorageMongo  = "mongo"
	StorageSQLite = "sqlite"
)

// Config holds all configuration values for the bot
type Config struct {
	// Discord
	BotToken   string
	DevGuildID string

	// Storage
	StorageDriver string
	MongoDBURL    string
	DBName        string
	SQLitePath    string

	// MQTT
	MQTTHost     string
	MQTTPort     string
	MQTTUser     string
	MQTTPassword string

	// Web Server
	Port            string
	WebLogWebhook   string
	WebAllowedHosts string

	// Environment
	Environment string
	LogsDir     string

	// Guild configuration file
	GuildConfigPath string

	// Tuning
	CooldownCacheSize    int
	PurgeSingleDeleteRPS float64
}

var (
	Version   = "Dev-Local"
	BuildTime = "Hoy"
)

var (
	cfg     *Config
	cfgOnce sync.Once
)

// resetForTesting resets the configuration for testing purposes.
// This function should only be called from test code.
func resetForTesting() {
	cfg = nil
	cfgOnce = sync.Once{}
}

func loadConfig() {
	_ = godotenv.Load()

	cfg = &Config{
		BotToken:   getEnv("botToken", ""),
		DevGuildID: getEnv("devGuildId", ""),

		StorageDriver: getEnv("STORAGE_DRIVER", StorageMongo),
		MongoDBURL:    getEnv("mongodbUrl", "mongodb://localhost:27017"),
		DBName:        getEnv("dbName", "PancyMod"),
		SQLitePath:    getEnv("SQLITE_PATH", "data/pancymod.db"),

		MQTTHost:     getEnv("MQTT_Host", "localhost"),
		MQTTPort:     getEnv("MQTT_Port", "1883"),
		MQTTUser:     getEnv("MQTT_User", ""),
		MQTTPassword: getEnv("MQTT_Password", ""),

		Port:            getEnv("PORT", "3000"),
		WebLogWebhook:   getEnv("WEB_LOG_WEBHOOK", ""),
		WebAllowedHosts: getEnv("WEB_ALLOWED_HOSTS", ""),

		Environment: getEnv("enviroment", "dev"),
		LogsDir:     getEnv("LOGS_DIR", "logs"),

		GuildConfigPath: getEnv("GUILD_CONFIG_PATH", "config/guilds.json"),

		CooldownCacheSize:    getEnvInt("COOLDOWN_CACHE_SIZE", 4096),
		PurgeSingleDeleteRPS: getEnvFloat("PURGE_SINGLE_DELETE_RPS", 2),
	}
}

// Load initializes the configuration from environment variables
func Load() (*Config, error) {
	cfgOnce.Do(loadConfig)
	return cfg, nil
}

// Get returns the current configuration
func Get() *Config {
	cfgOnce.Do(loadConfig)
	return cfg
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return defaultValue
	}
	return v
}

func getEnvFloat(key string, defaultValue float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil || v <= 0 {
		return defaultValue
	}
	return v
}

// IsProd returns true if the environment is production
func (c *Config) IsProd() bool {
	return c.Environment == "prod"
}

// UsesSQLite reports whether grants and infractions live in the embedded database.
func (c *Config) UsesSQLite() bool {
	return c.StorageDriver == StorageSQLite
}
