// Package google is a thin REST client for the Google APIs the
// translation pipeline consumes: OAuth2 service-account tokens, Drive
// file management and Sheets values. Only the calls the pipeline needs
// are implemented.
package google

import (
	"encoding/json"
	"fmt"
	"os"
)

// ServiceAccountKey is the JSON credential downloaded from Google
// Cloud for server-to-server authentication.
type ServiceAccountKey struct {
	Type        string `json:"type"`
	ProjectID   string `json:"project_id"`
	PrivateKey  string `json:"private_key"`
	ClientEmail string `json:"client_email"`
	TokenURI    string `json:"token_uri"`
}

// LoadKey reads a service account key file.
func LoadKey(path string) (*ServiceAccountKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	return ParseKey(data)
}

// ParseKey parses service account key JSON.
func ParseKey(data []byte) (*ServiceAccountKey, error) {
	var key ServiceAccountKey
	if err := json.Unmarshal(data, &key); err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	if key.Type != "service_account" {
		return nil, fmt.Errorf("unexpected credential type %q", key.Type)
	}
	if key.ClientEmail == "" || key.PrivateKey == "" {
		return nil, fmt.Errorf("credentials missing client_email or private_key")
	}
	if key.TokenURI == "" {
		key.TokenURI = "https://oauth2.googleapis.com/token"
	}
	return &key, nil
}
