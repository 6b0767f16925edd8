package cli

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Config holds CLI configuration
type Config struct {
	ServerURL string
	// Token overrides the saved token for every town
	Token     string
	TokenFile string
	Output    string
	Verbose   bool
}

// DefaultConfig returns a Config with defaults taken from TOWNCTL_* variables
func DefaultConfig() *Config {
	return &Config{
		ServerURL: envOr("TOWNCTL_SERVER", "http://localhost:8080"),
		Token:     os.Getenv("TOWNCTL_TOKEN"),
		TokenFile: envOr("TOWNCTL_TOKEN_FILE", defaultTokenFile()),
		Output:    envOr("TOWNCTL_OUTPUT", "text"),
	}
}

// TokenFor returns the session token to use in a town. A session only
// exists in the town that issued it, so the token file keeps one line
// per town: "<town id> <token>".
func (c *Config) TokenFor(townID string) (string, error) {
	if c.Token != "" {
		return c.Token, nil
	}
	tokens, err := c.readTokens()
	if err != nil {
		return "", err
	}
	return tokens[townID], nil
}

// SaveToken records the session token for a town, replacing any older one
func (c *Config) SaveToken(townID, token string) error {
	tokens, err := c.readTokens()
	if err != nil {
		return err
	}
	tokens[townID] = token

	if err := os.MkdirAll(filepath.Dir(c.TokenFile), 0700); err != nil {
		return err
	}

	var buf bytes.Buffer
	for id, t := range tokens {
		fmt.Fprintf(&buf, "%s %s\n", id, t)
	}
	return os.WriteFile(c.TokenFile, buf.Bytes(), 0600)
}

func (c *Config) readTokens() (map[string]string, error) {
	tokens := make(map[string]string)

	data, err := os.ReadFile(c.TokenFile)
	if err != nil {
		if os.IsNotExist(err) {
			return tokens, nil
		}
		return nil, err
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		id, token, ok := strings.Cut(strings.TrimSpace(scanner.Text()), " ")
		if ok && id != "" {
			tokens[id] = strings.TrimSpace(token)
		}
	}
	return tokens, scanner.Err()
}

func defaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".townctl/tokens"
	}
	return filepath.Join(home, ".townctl", "tokens")
}

func envOr(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
