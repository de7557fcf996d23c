package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/terraincognita07/tukicale/internal/api"
	"github.com/terraincognita07/tukicale/internal/config"
)

// RunIssueToken prints a bearer token for the HTTP API signed with the
// configured secret key.
func RunIssueToken(configPath string, subject string, ttl time.Duration, out io.Writer) error {
	cfg, err := config.Load(config.ResolvePath(configPath))
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	token, err := api.IssueToken(cfg.SecretKey, subject, ttl, time.Now())
	if err != nil {
		return err
	}
	fmt.Fprintln(out, token)
	return nil
}
