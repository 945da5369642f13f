package spreedly

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// DefaultBaseURL is used whenever Options.BaseURL is empty or not an absolute URL.
const DefaultBaseURL = "https://core.spreedly.com/"

const defaultTimeout = 30 * time.Second

// Options configures a Client. Key and Secret are the environment key and
// access secret used for basic authentication.
type Options struct {
	Key     string `validate:"required"`
	Secret  string `validate:"required"`
	BaseURL string
	Timeout time.Duration
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate reports a *ConfigurationError when the key or secret is missing.
func (o Options) Validate() error {
	trimmed := o
	trimmed.Key = strings.TrimSpace(o.Key)
	trimmed.Secret = strings.TrimSpace(o.Secret)

	err := validate.Struct(trimmed)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &ConfigurationError{Err: err}
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, strings.ToLower(fe.Field()))
	}
	return &ConfigurationError{Fields: fields, Err: err}
}

// normalizeBaseURL returns raw with exactly one trailing slash, or DefaultBaseURL
// when raw is not an absolute http(s) URL.
func normalizeBaseURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultBaseURL
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return DefaultBaseURL
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return DefaultBaseURL
	}
	return strings.TrimRight(raw, "/") + "/"
}
