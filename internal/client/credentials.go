package client

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// name of the file which stores the bearer credential between invocations
const CredentialsFile = "credentials.json"

type Credentials struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
	TenantId    string `json:"tenant_id,omitempty"`
}

// DefaultCredentialsPath returns the default path to the stored credential.
func DefaultCredentialsPath() string {
	return filepath.Join(filepath.Dir(DefaultConfigPath()), CredentialsFile)
}

func LoadCredentials(path string) (*Credentials, error) {
	contents, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Credentials{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading credentials: %w", err)
	}
	creds := &Credentials{}
	if err := json.Unmarshal(contents, creds); err != nil {
		return nil, fmt.Errorf("decoding credentials: %w", err)
	}
	return creds, nil
}

func SaveCredentials(path string, creds *Credentials) error {
	contents, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("encoding credentials: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating credentials dir: %w", err)
	}
	if err := os.WriteFile(path, contents, 0o600); err != nil {
		return fmt.Errorf("writing credentials: %w", err)
	}
	return nil
}

func RemoveCredentials(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing credentials: %w", err)
	}
	return nil
}
