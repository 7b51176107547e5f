// internal/config/config.go
package config

import (
	"log"
	"os"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	App      AppConfig
	Cache    CacheConfig
	Storage  StorageConfig
	Planning PlanningConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type AppConfig struct {
	DataDir   string
	ExportDir string
}

type CacheConfig struct {
	Enabled           bool
	RedisURL          string
	RedisHost         string
	RedisPort         string
	RedisPassword     string
	RedisDB           int
	SummaryTTLSeconds int
}

type StorageConfig struct {
	Endpoint            string
	AccessKey           string
	SecretKey           string
	Bucket              string
	Region              string
	UseSSL              bool
	CatalogPrefix       string
	ExportPrefix        string
	SyncIntervalMinutes int
}

// PlanningConfig carries the default invocation parameters for runs that do
// not specify them explicitly.
type PlanningConfig struct {
	ServiceLevel     float64
	ReviewPeriodDays int
	NumMonths        int
	IncludeInTransit bool
	Workers          int
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		// Set default values
		viper.SetDefault("SERVER_PORT", "8080")
		viper.SetDefault("SERVER_MODE", "debug")
		viper.SetDefault("DB_HOST", "localhost")
		viper.SetDefault("DB_PORT", "5432")
		viper.SetDefault("DB_USER", "postgres")
		viper.SetDefault("DB_PASSWORD", "postgres")
		viper.SetDefault("DB_NAME", "purchase_planner")
		viper.SetDefault("DB_SSLMODE", "disable")
		viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
		viper.SetDefault("APP_DATA_DIR", "./data/catalog")
		viper.SetDefault("APP_EXPORT_DIR", "./data/exports")
		viper.SetDefault("CACHE_ENABLED", false)
		viper.SetDefault("REDIS_URL", "")
		viper.SetDefault("REDIS_HOST", "127.0.0.1")
		viper.SetDefault("REDIS_PORT", "6379")
		viper.SetDefault("REDIS_PASSWORD", "")
		viper.SetDefault("REDIS_DB", 0)
		viper.SetDefault("CACHE_SUMMARY_TTL_SECONDS", 60)
		viper.SetDefault("STORAGE_ENDPOINT", "")
		viper.SetDefault("STORAGE_ACCESS_KEY", "")
		viper.SetDefault("STORAGE_SECRET_KEY", "")
		viper.SetDefault("STORAGE_BUCKET", "")
		viper.SetDefault("STORAGE_REGION", "us-east-1")
		viper.SetDefault("STORAGE_USE_SSL", true)
		viper.SetDefault("STORAGE_CATALOG_PREFIX", "catalog/")
		viper.SetDefault("STORAGE_EXPORT_PREFIX", "exports/")
		viper.SetDefault("STORAGE_SYNC_INTERVAL_MINUTES", 15)
		viper.SetDefault("PLAN_SERVICE_LEVEL", 0.95)
		viper.SetDefault("PLAN_REVIEW_PERIOD_DAYS", 30)
		viper.SetDefault("PLAN_NUM_MONTHS", 6)
		viper.SetDefault("PLAN_INCLUDE_IN_TRANSIT", true)
		viper.SetDefault("PLAN_WORKERS", 4)

		// Read from environment variables
		viper.AutomaticEnv()

		// Ensure data and export directories exist
		ensureDir(viper.GetString("APP_DATA_DIR"))
		ensureDir(viper.GetString("APP_EXPORT_DIR"))

		instance = &Config{
			Server: ServerConfig{
				Port:           viper.GetString("SERVER_PORT"),
				Mode:           viper.GetString("SERVER_MODE"),
				ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
				WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
				AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
			},
			Database: DatabaseConfig{
				Host:     viper.GetString("DB_HOST"),
				Port:     viper.GetString("DB_PORT"),
				User:     viper.GetString("DB_USER"),
				Password: viper.GetString("DB_PASSWORD"),
				DBName:   viper.GetString("DB_NAME"),
				SSLMode:  viper.GetString("DB_SSLMODE"),
			},
			App: AppConfig{
				DataDir:   viper.GetString("APP_DATA_DIR"),
				ExportDir: viper.GetString("APP_EXPORT_DIR"),
			},
			Cache: CacheConfig{
				Enabled:           viper.GetBool("CACHE_ENABLED"),
				RedisURL:          viper.GetString("REDIS_URL"),
				RedisHost:         viper.GetString("REDIS_HOST"),
				RedisPort:         viper.GetString("REDIS_PORT"),
				RedisPassword:     viper.GetString("REDIS_PASSWORD"),
				RedisDB:           viper.GetInt("REDIS_DB"),
				SummaryTTLSeconds: viper.GetInt("CACHE_SUMMARY_TTL_SECONDS"),
			},
			Storage: StorageConfig{
				Endpoint:            viper.GetString("STORAGE_ENDPOINT"),
				AccessKey:           viper.GetString("STORAGE_ACCESS_KEY"),
				SecretKey:           viper.GetString("STORAGE_SECRET_KEY"),
				Bucket:              viper.GetString("STORAGE_BUCKET"),
				Region:              viper.GetString("STORAGE_REGION"),
				UseSSL:              viper.GetBool("STORAGE_USE_SSL"),
				CatalogPrefix:       viper.GetString("STORAGE_CATALOG_PREFIX"),
				ExportPrefix:        viper.GetString("STORAGE_EXPORT_PREFIX"),
				SyncIntervalMinutes: viper.GetInt("STORAGE_SYNC_INTERVAL_MINUTES"),
			},
			Planning: PlanningConfig{
				ServiceLevel:     viper.GetFloat64("PLAN_SERVICE_LEVEL"),
				ReviewPeriodDays: viper.GetInt("PLAN_REVIEW_PERIOD_DAYS"),
				NumMonths:        viper.GetInt("PLAN_NUM_MONTHS"),
				IncludeInTransit: viper.GetBool("PLAN_INCLUDE_IN_TRANSIT"),
				Workers:          viper.GetInt("PLAN_WORKERS"),
			},
		}
	})

	return instance
}

func ensureDir(dir string) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}
}
