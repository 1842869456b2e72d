package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Environment constants
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks cfg against its struct tags and returns the first violation as a *ConfigError.
func Validate(cfg *Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	return toConfigError(fieldErrs[0])
}

// toConfigError maps a validator failure on Config.Gateway.URL to "gateway.url" and friends.
func toConfigError(fe validator.FieldError) *ConfigError {
	path := configPath(fe.Namespace())
	envVar := strings.ToUpper(strings.ReplaceAll(path, ".", "_"))

	switch fe.Tag() {
	case "required", "required_unless":
		return NewMissingFieldError(path, envVar, path)
	case "oneof":
		return NewInvalidFieldError(path, fmt.Sprintf("invalid value %v", fe.Value()), strings.Fields(fe.Param()))
	case "url":
		return NewInvalidFieldError(path, fmt.Sprintf("invalid url %q", fe.Value()), nil)
	default:
		return NewInvalidFieldError(path, fmt.Sprintf("must satisfy %s=%s (got %v)", fe.Tag(), fe.Param(), fe.Value()), nil)
	}
}

// configPath turns "Config.FakeGateway.Port" into "fakegateway.port".
func configPath(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	return strings.ToLower(strings.Join(parts, "."))
}
