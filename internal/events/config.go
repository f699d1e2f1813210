package events

import (
	"fmt"
	"os"

	"scribe/internal/config"
)

// Config holds Kafka producer configuration.
type Config struct {
	Brokers           string
	AssetEventsTopic  string
	EnableIdempotence bool
	Acks              string
}

// LoadConfig reads Kafka configuration from the environment.
func LoadConfig() (*Config, error) {
	brokers := os.Getenv("KAFKA_BROKERS")
	if brokers == "" {
		return nil, fmt.Errorf("KAFKA_BROKERS environment variable is required")
	}

	return &Config{
		Brokers:           brokers,
		AssetEventsTopic:  config.GetEnvOrDefault("KAFKA_TOPIC_ASSET_EVENTS", "asset-events"),
		EnableIdempotence: true,
		Acks:              "all",
	}, nil
}
