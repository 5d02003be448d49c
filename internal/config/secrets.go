package config

import (
	"fmt"
	"os"
	"strings"
)

// Environment variables holding credentials. Each also accepts a _FILE
// variant naming a file with the value.
const (
	EnvPostgresPassword = "PGPASSWORD"
	EnvMQTTPassword     = "MQTT_PASSWORD"
	EnvAPIPassword      = "BLINDENGINE_API_PASSWORD"
)

// ResolveSecret reads a secret value using the *_FILE convention.
// envName+"_FILE" takes precedence over envName. Returns empty string if
// neither is set and an error if the file cannot be read.
func ResolveSecret(envName string) (string, error) {
	fileEnv := envName + "_FILE"
	if filePath := os.Getenv(fileEnv); filePath != "" {
		content, err := os.ReadFile(filePath)
		if err != nil {
			return "", fmt.Errorf("failed to read secret from %s=%s: %w", fileEnv, filePath, err)
		}
		return strings.TrimSpace(string(content)), nil
	}
	return os.Getenv(envName), nil
}

// Credentials are the resolved secrets of an engine config.
type Credentials struct {
	PostgresPassword string
	MQTTPassword     string
}

// ResolveCredentials resolves every credential the enabled integrations
// need. Values never appear in errors.
func (c *EngineConfig) ResolveCredentials() (Credentials, error) {
	var creds Credentials
	var err error
	if c.Postgres.Enabled {
		if creds.PostgresPassword, err = ResolveSecret(EnvPostgresPassword); err != nil {
			return Credentials{}, err
		}
	}
	if c.MQTT.Enabled {
		if creds.MQTTPassword, err = ResolveSecret(EnvMQTTPassword); err != nil {
			return Credentials{}, err
		}
	}
	return creds, nil
}
