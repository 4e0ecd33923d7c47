// Package config loads the worker's configuration: a JSON file overlaid
// by environment variables, one env var per dotted config group field.
package config

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"
)

// BrokerConfig is the BROKER.* config group.
type BrokerConfig struct {
	Host              string `json:"host"`
	Port              int    `json:"port"`
	Username          string `json:"username"`
	Password          string `json:"password"`
	SourceQueueName   string `json:"source_queue_name"`
	ResponseQueueName string `json:"response_queue_name"`
	CredsFilePath     string `json:"creds_file_path"`
}

// CatalogConfig is the CATALOG.* config group.
type CatalogConfig struct {
	Driver   string `json:"driver"` // "sqlite3" or "mysql"
	Host     string `json:"host"`
	DB       string `json:"db"`
	User     string `json:"user"`
	Password string `json:"password"`
	Table    string `json:"table"`
}

// WeightsStoreConfig is the WEIGHTS_STORE.* config group.
type WeightsStoreConfig struct {
	Token        string `json:"token"`
	Project      string `json:"project"`
	Endpoint     string `json:"endpoint"`
	Bucket       string `json:"bucket"`
	Region       string `json:"region"`
	UsePathStyle bool   `json:"use_path_style"`
	CacheDir     string `json:"cache_dir"`
}

// Config is the complete worker configuration.
type Config struct {
	Broker       BrokerConfig       `json:"broker"`
	Catalog      CatalogConfig      `json:"catalog"`
	WeightsStore WeightsStoreConfig `json:"weights_store"`
	LogLevel     string             `json:"log-level"`
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		Broker: BrokerConfig{
			Host:              "localhost",
			Port:              4222,
			SourceQueueName:   "compute.requests",
			ResponseQueueName: "compute.responses",
		},
		Catalog: CatalogConfig{
			Driver: "sqlite3",
			DB:     "./var/detectors.db",
			Table:  "detectors",
		},
		WeightsStore: WeightsStoreConfig{
			Bucket:   "detector-weights",
			CacheDir: "./cache",
		},
		LogLevel: "info",
	}
}

// Load reads path as JSON over Default(), then applies an environment
// variable overlay (every option is overridable by an env var of the
// same dotted name with '.' replaced by '_', e.g.
// BROKER.SOURCE_QUEUE_NAME -> BROKER_SOURCE_QUEUE_NAME). A missing file
// at path is not an error; Load then proceeds with Default() plus the
// environment overlay only.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return Config{}, err
			}
		} else {
			dec := json.NewDecoder(strings.NewReader(string(data)))
			if err := dec.Decode(&cfg); err != nil {
				return Config{}, err
			}
		}
	}

	applyEnvOverlay(&cfg)
	return cfg, nil
}

func applyEnvOverlay(cfg *Config) {
	overlayString(&cfg.Broker.Host, "BROKER_HOST")
	overlayInt(&cfg.Broker.Port, "BROKER_PORT")
	overlayString(&cfg.Broker.Username, "BROKER_USERNAME")
	overlayString(&cfg.Broker.Password, "BROKER_PASSWORD")
	overlayString(&cfg.Broker.SourceQueueName, "BROKER_SOURCE_QUEUE_NAME")
	overlayString(&cfg.Broker.ResponseQueueName, "BROKER_RESPONSE_QUEUE_NAME")
	overlayString(&cfg.Broker.CredsFilePath, "BROKER_CREDS_FILE_PATH")

	overlayString(&cfg.Catalog.Driver, "CATALOG_DRIVER")
	overlayString(&cfg.Catalog.Host, "CATALOG_HOST")
	overlayString(&cfg.Catalog.DB, "CATALOG_DB")
	overlayString(&cfg.Catalog.User, "CATALOG_USER")
	overlayString(&cfg.Catalog.Password, "CATALOG_PASSWORD")
	overlayString(&cfg.Catalog.Table, "CATALOG_TABLE")

	overlayString(&cfg.WeightsStore.Token, "WEIGHTS_STORE_TOKEN")
	overlayString(&cfg.WeightsStore.Project, "WEIGHTS_STORE_PROJECT")
	overlayString(&cfg.WeightsStore.Endpoint, "WEIGHTS_STORE_ENDPOINT")
	overlayString(&cfg.WeightsStore.Bucket, "WEIGHTS_STORE_BUCKET")
	overlayString(&cfg.WeightsStore.Region, "WEIGHTS_STORE_REGION")
	overlayString(&cfg.WeightsStore.CacheDir, "WEIGHTS_STORE_CACHE_DIR")
	if v, ok := os.LookupEnv("WEIGHTS_STORE_USE_PATH_STYLE"); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.WeightsStore.UsePathStyle = b
		}
	}

	overlayString(&cfg.LogLevel, "LOG_LEVEL")
}

func overlayString(field *string, envVar string) {
	if v, ok := os.LookupEnv(envVar); ok && v != "" {
		*field = v
	}
}

func overlayInt(field *int, envVar string) {
	if v, ok := os.LookupEnv(envVar); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*field = n
		}
	}
}
