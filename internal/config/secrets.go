package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultSecretsFile is read for !secret lookups when SECRETS_FILE is not set
const DefaultSecretsFile = "secrets.yaml"

const secretTag = "!secret"

// Secrets maps the keys of secrets.yaml to their values
type Secrets map[string]string

// LoadSecrets reads a flat YAML mapping. A missing file yields no secrets.
func LoadSecrets(path string) (Secrets, error) {
	data, err := osReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Secrets{}, nil
		}
		return nil, fmt.Errorf("read secrets %s: %w", path, err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse secrets %s: %w", path, err)
	}

	secrets := make(Secrets, len(raw))
	for k, v := range raw {
		secrets[k] = fmt.Sprint(v)
	}
	return secrets, nil
}

// resolveSecrets replaces every `!secret key` scalar below n with the secret value
func resolveSecrets(n *yaml.Node, secrets Secrets) error {
	if n.Kind == yaml.ScalarNode && n.Tag == secretTag {
		key := strings.TrimSpace(n.Value)
		value, ok := secrets[key]
		if !ok {
			return fmt.Errorf("secret %q not found", key)
		}
		n.Value = value
		n.Tag = "!!str"
		n.Style = 0
		return nil
	}
	for _, child := range n.Content {
		if err := resolveSecrets(child, secrets); err != nil {
			return err
		}
	}
	return nil
}
