package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Pricing   PricingConfig   `mapstructure:"pricing"`
	Warehouse WarehouseConfig `mapstructure:"warehouse"`
	Media     MediaConfig     `mapstructure:"media"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Database  DatabaseConfig  `mapstructure:"database"`
}

type CatalogConfig struct {
	Path               string `mapstructure:"path"`
	BackupDir          string `mapstructure:"backup_dir"`
	PlaceholderImage   string `mapstructure:"placeholder_image"`
	DeepVariantCompare bool   `mapstructure:"deep_variant_compare"`
}

type PricingConfig struct {
	CompareAtFactor float64 `mapstructure:"compare_at_factor"`
	Floor           float64 `mapstructure:"floor"`
	Ceiling         float64 `mapstructure:"ceiling"`
	DefaultCost     float64 `mapstructure:"default_cost"`
}

type WarehouseConfig struct {
	SlowShippingDays int `mapstructure:"slow_shipping_days"`
}

type MediaConfig struct {
	Dir             string        `mapstructure:"dir"`
	MinBytes        int           `mapstructure:"min_bytes"`
	MaxImages       int           `mapstructure:"max_images"`
	FetchTimeout    time.Duration `mapstructure:"fetch_timeout"`
	PlaceholderPath string        `mapstructure:"placeholder_path"`
}

type StorageConfig struct {
	Type      string `mapstructure:"type"` // local, s3, r2
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	PublicURL string `mapstructure:"public_url"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // sqlite, postgres
	Path            string        `mapstructure:"path"`   // sqlite file path
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// DSN builds the connection string for the configured driver.
func (c *DatabaseConfig) DSN() string {
	if c.Driver == "postgres" {
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
	}
	return c.Path
}

func Load(configPath string) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// Enable environment variable override
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set defaults
	v.SetDefault("catalog.path", "./data/products.json")
	v.SetDefault("catalog.backup_dir", "./data/backups")
	v.SetDefault("catalog.placeholder_image", "/images/placeholder.png")
	v.SetDefault("catalog.deep_variant_compare", false)

	v.SetDefault("pricing.compare_at_factor", 1.3)
	v.SetDefault("pricing.floor", 9.99)
	v.SetDefault("pricing.ceiling", 999.99)
	v.SetDefault("pricing.default_cost", 5.0)

	v.SetDefault("warehouse.slow_shipping_days", 10)

	v.SetDefault("media.dir", "./public/products")
	v.SetDefault("media.min_bytes", 500)
	v.SetDefault("media.max_images", 5)
	v.SetDefault("media.fetch_timeout", "30s")
	v.SetDefault("media.placeholder_path", "/images/placeholder.png")

	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.use_ssl", false)
	v.SetDefault("storage.bucket", "pawsy-media")
	v.SetDefault("storage.region", "us-east-1")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/curation.db")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.auto_migrate", true)

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Bind environment variables explicitly for sensitive data
	v.BindEnv("storage.endpoint", "STORAGE_ENDPOINT")
	v.BindEnv("storage.access_key", "STORAGE_ACCESS_KEY")
	v.BindEnv("storage.secret_key", "STORAGE_SECRET_KEY")
	v.BindEnv("storage.bucket", "STORAGE_BUCKET")
	v.BindEnv("database.host", "DATABASE_HOST")
	v.BindEnv("database.user", "DATABASE_USER")
	v.BindEnv("database.password", "DATABASE_PASSWORD")
	v.BindEnv("database.name", "DATABASE_NAME")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
