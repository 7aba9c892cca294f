/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package config

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/suparena/tableops/batch"
	"github.com/suparena/tableops/storagemodels"
	"gopkg.in/yaml.v3"
)

// Config is the process configuration for tools built on tableops.
type Config struct {
	AWS   AWS   `yaml:"aws"`
	Table Table `yaml:"table"`
	Batch Batch `yaml:"batch"`
	Log   Log   `yaml:"log"`
}

// AWS configures the provider client.
type AWS struct {
	Region       string `yaml:"region" validate:"required"`
	Endpoint     string `yaml:"endpoint" validate:"omitempty,url"`
	AccessKey    string `yaml:"access_key" validate:"required_with=SecretKey"`
	SecretKey    string `yaml:"secret_key" validate:"required_with=AccessKey"`
	SessionToken string `yaml:"session_token"`
}

// Table names the default table and its key schema.
type Table struct {
	Name         string `yaml:"name" validate:"required"`
	PartitionKey string `yaml:"partition_key" validate:"required"`
	SortKey      string `yaml:"sort_key" validate:"omitempty,nefield=PartitionKey"`
}

// Batch tunes the chunking and retry engine.
type Batch struct {
	MaxAttempts    int           `yaml:"max_attempts" validate:"gte=1,lte=50"`
	InitialBackoff time.Duration `yaml:"initial_backoff" validate:"gt=0"`
	MaxBackoff     time.Duration `yaml:"max_backoff" validate:"gtefield=InitialBackoff"`
	FanOut         int           `yaml:"fan_out" validate:"gte=1,lte=64"`
}

// Log configures the zerolog logger.
type Log struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=trace debug info warn error disabled"`
	Format string `yaml:"format" validate:"omitempty,oneof=json console"`
}

// Ref returns the table reference described by the section.
func (t Table) Ref() storagemodels.TableRef {
	return storagemodels.NewTableRef(t.Name, storagemodels.KeySchema{
		PartitionKey: t.PartitionKey,
		SortKey:      t.SortKey,
	})
}

// RetryPolicy projects the section onto the engine's retry policy.
func (b Batch) RetryPolicy() batch.RetryPolicy {
	p := batch.DefaultRetryPolicy()
	p.MaxAttempts = b.MaxAttempts
	p.InitialInterval = b.InitialBackoff
	p.MaxInterval = b.MaxBackoff
	return p
}

// Default returns a configuration with every optional field set.
func Default() Config {
	return Config{
		Batch: Batch{
			MaxAttempts:    8,
			InitialBackoff: 50 * time.Millisecond,
			MaxBackoff:     2 * time.Second,
			FanOut:         4,
		},
		Log: Log{Level: "info", Format: "json"},
	}
}

// Load reads the YAML file at path (optional when empty), loads a .env file
// from the working directory if present, applies environment overrides and
// validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"TABLEOPS_REGION":        &c.AWS.Region,
		"AWS_REGION":             &c.AWS.Region,
		"TABLEOPS_ENDPOINT":      &c.AWS.Endpoint,
		"AWS_ACCESS_KEY_ID":      &c.AWS.AccessKey,
		"AWS_SECRET_ACCESS_KEY":  &c.AWS.SecretKey,
		"AWS_SESSION_TOKEN":      &c.AWS.SessionToken,
		"TABLEOPS_TABLE":         &c.Table.Name,
		"TABLEOPS_PARTITION_KEY": &c.Table.PartitionKey,
		"TABLEOPS_SORT_KEY":      &c.Table.SortKey,
		"TABLEOPS_LOG_LEVEL":     &c.Log.Level,
		"TABLEOPS_LOG_FORMAT":    &c.Log.Format,
	}
	// AWS_REGION is only a fallback for TABLEOPS_REGION
	if _, ok := lookup("TABLEOPS_REGION"); ok {
		delete(strs, "AWS_REGION")
	}
	for name, dst := range strs {
		if v, ok := lookup(name); ok {
			*dst = v
		}
	}

	if v, ok := lookup("TABLEOPS_BATCH_MAX_ATTEMPTS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("TABLEOPS_BATCH_MAX_ATTEMPTS: %w", err)
		}
		c.Batch.MaxAttempts = n
	}
	if v, ok := lookup("TABLEOPS_BATCH_FAN_OUT"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("TABLEOPS_BATCH_FAN_OUT: %w", err)
		}
		c.Batch.FanOut = n
	}
	return nil
}

var validate = validator.New()

// Validate checks the configuration against its struct tags.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var validationErrors validator.ValidationErrors
		if stderrors.As(err, &validationErrors) {
			msgs := make([]string, 0, len(validationErrors))
			for _, e := range validationErrors {
				msgs = append(msgs, fmt.Sprintf("field '%s' failed rule '%s'", e.Namespace(), e.Tag()))
			}
			return fmt.Errorf("invalid configuration:\n- %s", strings.Join(msgs, "\n- "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
