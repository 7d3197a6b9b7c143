package leadapi

import (
	"fmt"
	"os"
	"strings"
)

// Env is the runtime configuration needed to run in remote-sink mode.
type Env struct {
	BaseURL string
	Token   string
	// DefaultCAPath is the path to a PEM bundle that should be trusted for
	// TLS, usually set in locked-down deployments.
	DefaultCAPath string
}

// LoadEnv reads the remote-sink env vars. LEADAPI_URL and LEADAPI_TOKEN are
// required; LEADAPI_TOKEN_FILE may replace the latter for file-mounted
// secrets.
func LoadEnv() (Env, error) {
	baseURL := strings.TrimSpace(os.Getenv("LEADAPI_URL"))
	if baseURL == "" {
		return Env{}, fmt.Errorf("LEADAPI_URL is required")
	}

	token := strings.TrimSpace(os.Getenv("LEADAPI_TOKEN"))
	if token == "" {
		if path := strings.TrimSpace(os.Getenv("LEADAPI_TOKEN_FILE")); path != "" {
			b, err := os.ReadFile(path)
			if err != nil {
				return Env{}, fmt.Errorf("read LEADAPI_TOKEN_FILE: %w", err)
			}
			token = strings.TrimSpace(string(b))
		}
	}
	if token == "" {
		return Env{}, fmt.Errorf("LEADAPI_TOKEN or LEADAPI_TOKEN_FILE is required")
	}

	return Env{
		BaseURL:       baseURL,
		Token:         token,
		DefaultCAPath: strings.TrimSpace(os.Getenv("DEFAULT_CA_PATH")),
	}, nil
}
