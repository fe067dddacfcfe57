// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets resolves provider credentials from a directory of key
// files, one secret per file named after its key, and from the conventional
// environment variables of each provider.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

// Key file names recognized by the CLI.
const (
	OpenAIKey          = "openai-api-key"
	AnthropicKey       = "anthropic-api-key"
	SerpAPIKey         = "serpapi-key"
	CourtListenerToken = "courtlistener-token"
	GovInfoKey         = "govinfo-api-key"
)

// EnvVars maps each key file to the environment variable its provider
// documents.
var EnvVars = map[string]string{
	OpenAIKey:          "OPENAI_API_KEY",
	AnthropicKey:       "ANTHROPIC_API_KEY",
	SerpAPIKey:         "SERPAPI_KEY",
	CourtListenerToken: "COURTLISTENER_TOKEN",
	GovInfoKey:         "GOVINFO_API_KEY",
}

// lookupEnv is replaced in tests.
var lookupEnv = os.LookupEnv

// Secrets maps key file names to their trimmed contents.
type Secrets map[string]string

// Get returns the secret for key, or the empty string.
func (s Secrets) Get(key string) string {
	return s[key]
}

// Keys returns the loaded key names in sorted order. Values are never exposed.
func (s Secrets) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Resolve returns configured when it is set, then the key file's value, then
// the provider's environment variable from EnvVars. A nil Secrets skips the
// key file step.
func (s Secrets) Resolve(configured, key string) string {
	if configured != "" {
		return configured
	}
	if v := s.Get(key); v != "" {
		return v
	}
	if name, ok := EnvVars[key]; ok {
		if v, ok := lookupEnv(name); ok {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// Load reads every regular file in dir. A missing directory yields an empty
// set. Unreadable files are skipped and files other users can read are
// loaded; both are logged at warn level.
func Load(dir string, logger *zerolog.Logger) (Secrets, error) {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Secrets{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(Secrets)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			logger.Warn().Err(err).Str("secret", name).Msg("could not read secret")
			continue
		}
		if info, err := entry.Info(); err == nil && info.Mode().Perm()&0o077 != 0 {
			logger.Warn().Str("secret", name).Str("mode", info.Mode().Perm().String()).
				Msg("secret file is accessible to other users")
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}
