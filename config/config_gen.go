//go:generate app-config -input ./app.json -output ./config_structs.go -pkg config --struct BaseConfig -extension overrides.yml
//go:generate config-getters -input ./config_structs.go -output config_getters.go
package config

import (
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

func (b BaseConfig) Validate() error {
	if err := b.API.Validate(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := b.Auth.Validate(); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if err := b.Storage.Validate(); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := b.CLI.Validate(); err != nil {
		return fmt.Errorf("cli: %w", err)
	}
	if err := b.Server.Validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

func (a API) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.BaseURL, validation.Required, is.URL),
		validation.Field(&a.TimeoutExpression, validation.By(validDuration)),
	)
}

func (a Auth) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.LoginPath, validation.By(validPath)),
		validation.Field(&a.ForbiddenPath, validation.By(validPath)),
		validation.Field(&a.LogoutPolicy, validation.In("purge_all", "purge_session_keys")),
	)
}

func (s Storage) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.DSN, validation.Required),
		validation.Field(&s.PruneAfterExpression, validation.By(validDuration)),
	)
}

func (s Server) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.CSRFSecret, validation.Length(32, 0)),
		validation.Field(&s.SessionIdleExpression, validation.By(validDuration)),
	)
}

func (c CLI) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Output, validation.In("yaml", "json")),
	)
}

// GetTimeout returns the API request timeout, zero when unset
func (a API) GetTimeout() time.Duration {
	return mustDuration(a.TimeoutExpression)
}

// GetPruneAfter returns how long idle durable entries are kept, zero
// keeps them forever
func (s Storage) GetPruneAfter() time.Duration {
	return mustDuration(s.PruneAfterExpression)
}

// GetSessionIdle returns how long an unused browser session stays cached
// in memory, zero keeps it until restart
func (s Server) GetSessionIdle() time.Duration {
	return mustDuration(s.SessionIdleExpression)
}

func mustDuration(expr string) time.Duration {
	if strings.TrimSpace(expr) == "" {
		return 0
	}
	dur, err := time.ParseDuration(expr)
	if err != nil {
		panic(
			fmt.Sprintf("unable to parse time: expr %s", expr),
		)
	}
	return dur
}

func validDuration(value any) error {
	s, _ := value.(string)
	if strings.TrimSpace(s) == "" {
		return nil
	}
	if _, err := time.ParseDuration(s); err != nil {
		return fmt.Errorf("invalid duration %q", s)
	}
	return nil
}

func validPath(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if !strings.HasPrefix(s, "/") {
		return fmt.Errorf("path must start with /")
	}
	return nil
}
