package provider

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

const (
	// DefaultTimeoutMs applies when a provider config has no timeout
	DefaultTimeoutMs = 10000
	// MaxTimeoutMs is the upper bound accepted for a provider timeout
	MaxTimeoutMs = 60000
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared validator with the decimal type and field naming registered
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterCustomTypeFunc(func(field reflect.Value) any {
			if d, ok := field.Interface().(decimal.Decimal); ok {
				f, _ := d.Float64()
				return f
			}
			return nil
		}, decimal.Decimal{})
		validate.RegisterTagNameFunc(func(field reflect.StructField) string {
			for _, tag := range []string{"config", "json"} {
				name := strings.SplitN(field.Tag.Get(tag), ",", 2)[0]
				if name == "-" {
					return ""
				}
				if name != "" {
					return name
				}
			}
			return field.Name
		})
	})
	return validate
}

// ValidatePayload validates a per-call payload and reports failures as PayloadInvalid
func ValidatePayload(id ProviderID, op string, payload any) error {
	if err := Validator().Struct(payload); err != nil {
		return PayloadError(id, op, describeValidation(err), err)
	}
	return nil
}

// ValidateConfig validates a built provider config and reports failures as ConfigurationInvalid
func ValidateConfig(id ProviderID, cfg any) error {
	if err := Validator().Struct(cfg); err != nil {
		return ConfigError(id, "invalid "+string(id)+" configuration: "+describeValidation(err), err)
	}
	return nil
}

// describeValidation turns validator output into a short readable message
func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "url":
			msgs = append(msgs, field+" must be a valid URL")
		case "email":
			msgs = append(msgs, field+" must be a valid email")
		case "gt":
			msgs = append(msgs, fmt.Sprintf("%s must be greater than %s", field, fe.Param()))
		case "gte":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s", field, fe.Param()))
		case "lte", "max":
			msgs = append(msgs, fmt.Sprintf("%s must not exceed %s", field, fe.Param()))
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s characters", field, fe.Param()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", field, fe.Param()))
		case "eq":
			msgs = append(msgs, fmt.Sprintf("%s must be %s", field, fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s validation", field, fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}

// RawConfig is the untyped configuration of one provider, as read from env or storage
type RawConfig map[string]string

// Get returns the trimmed value of the first present key
func (r RawConfig) Get(keys ...string) string {
	for _, key := range keys {
		if v := strings.TrimSpace(r[key]); v != "" {
			return v
		}
	}
	return ""
}

// GetOr returns the value for key or def when absent
func (r RawConfig) GetOr(key, def string) string {
	if v := r.Get(key); v != "" {
		return v
	}
	return def
}

// BaseConfig holds the settings shared by every provider config
type BaseConfig struct {
	Environment Environment `config:"env" validate:"oneof=sandbox production"`
	Currency    string      `config:"currency" validate:"eq=NPR"`
	TimeoutMs   int         `config:"timeout" validate:"gt=0,lte=60000"`
}

// Timeout returns the configured timeout as a duration
func (b BaseConfig) Timeout() time.Duration {
	return time.Duration(b.TimeoutMs) * time.Millisecond
}

// IsProduction reports whether the production environment is selected
func (b BaseConfig) IsProduction() bool {
	return b.Environment == EnvironmentProduction
}

// ResolveBaseConfig reads env, currency and timeout with their defaults applied
func ResolveBaseConfig(id ProviderID, raw RawConfig) (BaseConfig, error) {
	base := BaseConfig{
		Environment: Environment(strings.ToLower(raw.GetOr("env", raw.GetOr("environment", string(EnvironmentSandbox))))),
		Currency:    raw.GetOr("currency", CurrencyNPR),
		TimeoutMs:   DefaultTimeoutMs,
	}

	if v := raw.Get("timeout"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return base, ConfigError(id, "invalid "+string(id)+" configuration: timeout must be an integer", err)
		}
		base.TimeoutMs = ms
	}
	return base, nil
}

// TrimTrailingSlash removes a single trailing slash from a URL
func TrimTrailingSlash(value string) string {
	return strings.TrimSuffix(value, "/")
}
