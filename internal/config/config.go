// Package config persists provider credentials under ~/.parley.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const credentialsFile = "credentials.yaml"

// Credentials holds the provider identity needed for session operations.
// All three fields are opaque strings issued by the provider dashboard.
type Credentials struct {
	ReplicaID string `yaml:"replica_id"`
	PersonaID string `yaml:"persona_id"`
	APIKey    string `yaml:"api_key"`
}

// Complete reports whether every field required for a session call is set.
func (c *Credentials) Complete() bool {
	return c.APIKey != "" && c.ReplicaID != "" && c.PersonaID != ""
}

// Load reads credentials.yaml from dir. A missing file returns a zero-value
// Credentials (no error) so first-run flows can prompt for setup. Environment
// variables PARLEY_API_KEY, PARLEY_REPLICA_ID and PARLEY_PERSONA_ID override
// whatever the file holds.
func Load(dir string) (*Credentials, error) {
	creds := &Credentials{}
	path := filepath.Join(dir, credentialsFile)

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read credentials: %w", err)
		}
	} else if err := yaml.Unmarshal(data, creds); err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}

	if v := os.Getenv("PARLEY_API_KEY"); v != "" {
		creds.APIKey = v
	}
	if v := os.Getenv("PARLEY_REPLICA_ID"); v != "" {
		creds.ReplicaID = v
	}
	if v := os.Getenv("PARLEY_PERSONA_ID"); v != "" {
		creds.PersonaID = v
	}

	return creds, nil
}

// Save writes credentials.yaml to dir, creating the directory if needed.
// The file is written 0600 since it carries the API key.
func Save(dir string, creds *Credentials) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(creds)
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, credentialsFile), data, 0600)
}
