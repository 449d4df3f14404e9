package kafka

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	cKafka "github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

// Default values for the Kafka source and publisher
const (
	DefaultPollInterval = 100 * time.Millisecond
	DefaultFlushTimeout = 15 * time.Second
)

// SASLConfig holds optional SASL authentication settings. Authentication is
// enabled only when a username is set.
type SASLConfig struct {
	Username         string `env:"KAFKA_SASL_USERNAME"`
	Password         string `env:"KAFKA_SASL_PASSWORD"`
	Mechanism        string `env:"KAFKA_SASL_MECHANISM"     envDefault:"SCRAM-SHA-512"` // SCRAM-SHA-256, SCRAM-SHA-512, or PLAIN
	SecurityProtocol string `env:"KAFKA_SECURITY_PROTOCOL"  envDefault:"SASL_SSL"`      // SASL_SSL or SASL_PLAINTEXT
}

// Enabled reports whether SASL settings should be applied.
func (s SASLConfig) Enabled() bool {
	return s.Username != ""
}

// ApplyToConfigMap adds the SASL settings to cm when enabled.
func (s SASLConfig) ApplyToConfigMap(cm *cKafka.ConfigMap) {
	if !s.Enabled() {
		return
	}
	(*cm)["security.protocol"] = s.SecurityProtocol
	(*cm)["sasl.mechanisms"] = s.Mechanism
	(*cm)["sasl.username"] = s.Username
	(*cm)["sasl.password"] = s.Password
}

// SourceConfig holds the configuration for reading event records from a topic
type SourceConfig struct {
	BootstrapServers string         `env:"KAFKA_BOOTSTRAP_SERVERS" envDefault:"localhost:9092"`  // Kafka broker addresses
	Topic            string         `env:"KAFKA_TOPIC"             envDefault:"utxo-events"`     // Topic holding the event records
	GroupID          string         `env:"KAFKA_GROUP_ID"          envDefault:"utxo-turnover"`   // Consumer group ID
	AutoOffsetReset  string         `env:"KAFKA_AUTO_OFFSET_RESET" envDefault:"earliest"`        // Offset reset strategy: "earliest" or "latest"
	PollInterval     *time.Duration `env:"KAFKA_POLL_INTERVAL"     envDefault:"100ms"`           // Poll timeout per iteration
	EnableLogs       bool           `env:"KAFKA_ENABLE_LOGS"       envDefault:"false"`           // Enable librdkafka client logs
	SASL             SASLConfig
}

// LoadSourceConfig loads the source configuration from environment variables.
func LoadSourceConfig() (SourceConfig, error) {
	var cfg SourceConfig
	if err := env.Parse(&cfg); err != nil {
		return SourceConfig{}, fmt.Errorf("failed to parse kafka source config: %w", err)
	}
	return cfg, nil
}

// WithDefaults returns a copy of the config with default values filled in for any nil pointer fields.
// This method does not mutate the original config.
func (c SourceConfig) WithDefaults() SourceConfig {
	if c.PollInterval == nil {
		interval := DefaultPollInterval
		c.PollInterval = &interval
	}
	if c.AutoOffsetReset == "" {
		c.AutoOffsetReset = "earliest"
	}
	return c
}

// Validate checks the fields required to connect.
func (c SourceConfig) Validate() error {
	var errs []error
	if c.BootstrapServers == "" {
		errs = append(errs, errors.New("bootstrap servers are required"))
	}
	if c.Topic == "" {
		errs = append(errs, errors.New("topic is required"))
	}
	if c.GroupID == "" {
		errs = append(errs, errors.New("group id is required"))
	}
	return errors.Join(errs...)
}

// ConfigMap builds the librdkafka consumer configuration.
func (c SourceConfig) ConfigMap() *cKafka.ConfigMap {
	cm := cKafka.ConfigMap{
		"bootstrap.servers":      c.BootstrapServers,
		"group.id":               c.GroupID,
		"auto.offset.reset":      c.AutoOffsetReset,
		"enable.auto.commit":     false,
		"enable.partition.eof":   true,
		"go.logs.channel.enable": c.EnableLogs,
	}
	c.SASL.ApplyToConfigMap(&cm)
	return &cm
}

// PublisherConfig holds the configuration for producing event records
type PublisherConfig struct {
	BootstrapServers  string         `env:"KAFKA_BOOTSTRAP_SERVERS"        envDefault:"localhost:9092"`
	Topic             string         `env:"KAFKA_TOPIC"                    envDefault:"utxo-events"`
	ClientID          string         `env:"KAFKA_CLIENT_ID"                envDefault:"utxo-turnover-publisher"`
	ReplicationFactor int            `env:"KAFKA_TOPIC_REPLICATION_FACTOR" envDefault:"1"`
	FlushTimeout      *time.Duration `env:"KAFKA_FLUSH_TIMEOUT"            envDefault:"15s"`
	SASL              SASLConfig
}

// WithDefaults returns a copy of the config with default values filled in for any nil pointer fields.
func (c PublisherConfig) WithDefaults() PublisherConfig {
	if c.FlushTimeout == nil {
		timeout := DefaultFlushTimeout
		c.FlushTimeout = &timeout
	}
	if c.ReplicationFactor <= 0 {
		c.ReplicationFactor = 1
	}
	return c
}

// ConfigMap builds the librdkafka producer configuration. Idempotence keeps
// retried records in order on the single partition.
func (c PublisherConfig) ConfigMap() *cKafka.ConfigMap {
	cm := cKafka.ConfigMap{
		"bootstrap.servers":  c.BootstrapServers,
		"client.id":          c.ClientID,
		"acks":               "all",
		"linger.ms":          5,
		"batch.size":         16384,
		"compression.type":   "zstd",
		"enable.idempotence": true,
	}
	c.SASL.ApplyToConfigMap(&cm)
	return &cm
}

// AdminConfigMap builds the configuration for the admin client.
func (c PublisherConfig) AdminConfigMap() *cKafka.ConfigMap {
	cm := cKafka.ConfigMap{"bootstrap.servers": c.BootstrapServers}
	c.SASL.ApplyToConfigMap(&cm)
	return &cm
}
