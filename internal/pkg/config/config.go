package config

import (
	"flag"
	"os"
	"regexp"

	"github.com/sebastienferry/mongo-batch/internal/pkg/log"
	"gopkg.in/yaml.v2"
)

var configFileArg = flag.String("c", "", "configuration file path")

type BatchConfig struct {
	// Max items per backend call for insert, delete and upsert
	ChunkSize int `yaml:"chunk_size"`
	// Max items per chunk for update (rows are addressed individually)
	UpdateChunkSize int `yaml:"update_chunk_size"`
	// Bound on per-chunk or per-item retries
	RetryAttempts int `yaml:"retry_attempts"`
	// Base unit for the linear backoff, in milliseconds
	RetryDelayMs int `yaml:"retry_delay_ms"`
	// Bounded wait for in-flight operations during shutdown, in seconds
	DrainTimeoutSec int `yaml:"drain_timeout_sec"`
	// Interval between registry polls while draining, in milliseconds
	DrainPollMs int `yaml:"drain_poll_ms"`
}

type AppConfig struct {
	// Application logging configuration
	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`

	// The address of the MongoDB server
	Target string `yaml:"target"`
	// The database the engine operates on
	Database string `yaml:"database"`
	// The address the HTTP API listens on
	Listen string `yaml:"listen"`

	// The batching defaults
	Batch BatchConfig `yaml:"batch"`
}

// NewConfig returns a new Config struct
func NewConfig() *AppConfig {
	return &AppConfig{}
}

var Current *AppConfig = NewConfig()

// LoadConfig loads the configuration from a file
func (c *AppConfig) LoadConfig() error {

	if !flag.Parsed() {
		flag.Parse()
	}

	// Fetch the environment variable
	configFilePath := os.Getenv("CONFIG_FILE_PATH")
	log.Info("configuration file path: ", configFilePath)
	if configFilePath == "" {
		configFilePath = *configFileArg
	}

	// Open the configuration file
	f, err := os.Open(configFilePath)
	if err != nil {
		log.Fatal("error opening configuration file: ", err)
	}
	defer f.Close()

	// Decode the configuration file
	decoder := yaml.NewDecoder(f)
	err = decoder.Decode(c)
	if err != nil {
		log.Fatal("error decoding configuration file: ", err)
	}

	// Override the log level if set in the environment
	if os.Getenv("LOG_LEVEL") != "" {
		c.Logging.Level = os.Getenv("LOG_LEVEL")
	}

	// Override the target if set in the environment
	if os.Getenv("TARGET") != "" {
		c.Target = os.Getenv("TARGET")
	}
	if os.Getenv("DATABASE") != "" {
		c.Database = os.Getenv("DATABASE")
	}

	c.ApplyDefaults()
	return nil
}

// ApplyDefaults fills in the zero-valued batching knobs
func (c *AppConfig) ApplyDefaults() {
	if c.Listen == "" {
		c.Listen = ":3000"
	}
	if c.Batch.ChunkSize <= 0 {
		c.Batch.ChunkSize = 500
	}
	if c.Batch.UpdateChunkSize <= 0 {
		c.Batch.UpdateChunkSize = 50
	}
	if c.Batch.RetryAttempts <= 0 {
		c.Batch.RetryAttempts = 3
	}
	if c.Batch.RetryDelayMs <= 0 {
		c.Batch.RetryDelayMs = 1000
	}
	if c.Batch.DrainTimeoutSec <= 0 {
		c.Batch.DrainTimeoutSec = 30
	}
	if c.Batch.DrainPollMs <= 0 {
		c.Batch.DrainPollMs = 500
	}
}

func (c *AppConfig) LogConfig() {
	log.Info("mongo configuration:")
	log.Info("- target: ", ObfuscateCrendentials(c.Target))
	log.Info("- database: ", c.Database)
	log.InfoWithFields("batch defaults", log.Fields{
		"chunk_size":        c.Batch.ChunkSize,
		"update_chunk_size": c.Batch.UpdateChunkSize,
		"retry_attempts":    c.Batch.RetryAttempts,
		"retry_delay_ms":    c.Batch.RetryDelayMs,
	})
}

// Considering the following structure for MongoDB connection string:
// "mongodb://<username>:<password>@<host>:<port>"
// The following function will replaces the username and password with "****"
func ObfuscateCrendentials(mongoConnectionString string) string {
	// Find the username and password
	regexp := regexp.MustCompile(`mongodb:\/\/(.*):(.*)@`)
	matches := regexp.FindStringSubmatch(mongoConnectionString)
	if len(matches) == 3 {
		// Replace the username and password with "****"
		return regexp.ReplaceAllString(mongoConnectionString, "mongodb://****:****@")
	}
	return mongoConnectionString
}
