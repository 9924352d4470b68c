// Package config provides configuration management for the win-probability service.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
)

// CustomValidator wraps the validator with custom validation rules
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new validator with custom validation functions
func NewValidator() (*CustomValidator, error) {
	v := validator.New()

	rules := map[string]validator.Func{
		"environment":  validateEnvironment,
		"loglevel":     validateLogLevel,
		"modelbackend": validateModelBackend,
		"cachebackend": validateCacheBackend,
		"cronspec":     validateCronSpec,
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return nil, fmt.Errorf("failed to register %s validation: %w", tag, err)
		}
	}

	return &CustomValidator{validator: v}, nil
}

// Validate validates the entire configuration
func Validate(cfg *Config) error {
	cv, err := NewValidator()
	if err != nil {
		return err
	}
	return cv.Validate(cfg)
}

// Validate validates the configuration using registered validation rules
func (cv *CustomValidator) Validate(cfg *Config) error {
	err := cv.validator.Struct(cfg)
	if err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return formatValidationErrors(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}

	return validateCrossField(cfg)
}

func validateEnvironment(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "development", "staging", "production":
		return true
	default:
		return false
	}
}

func validateLogLevel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

func validateModelBackend(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case ModelBackendLocal, ModelBackendRemoteHTTP, ModelBackendRemoteGRPC:
		return true
	default:
		return false
	}
}

func validateCacheBackend(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case CacheBackendMemory, CacheBackendRedis:
		return true
	default:
		return false
	}
}

// validateCronSpec accepts five-field cron expressions and descriptors such as @every 5m
func validateCronSpec(fl validator.FieldLevel) bool {
	_, err := cron.ParseStandard(fl.Field().String())
	return err == nil
}

// validateCrossField performs cross-field validations
func validateCrossField(cfg *Config) error {
	switch cfg.Model.Backend {
	case ModelBackendLocal:
		if cfg.Model.ArtifactPath == "" {
			return fmt.Errorf("model.artifact_path is required for the %s backend", ModelBackendLocal)
		}
	case ModelBackendRemoteHTTP:
		if cfg.Model.RemoteURL == "" {
			return fmt.Errorf("model.remote_url is required for the %s backend", ModelBackendRemoteHTTP)
		}
	case ModelBackendRemoteGRPC:
		if cfg.Model.RemoteGRPCAddress == "" {
			return fmt.Errorf("model.remote_grpc_address is required for the %s backend", ModelBackendRemoteGRPC)
		}
	}

	if cfg.Cache.Enabled && cfg.Cache.Backend == CacheBackendRedis && cfg.Cache.RedisAddr == "" {
		return fmt.Errorf("cache.redis_addr is required for the %s cache backend", CacheBackendRedis)
	}

	if cfg.Server.GRPCPort != 0 && cfg.Server.GRPCPort == cfg.Server.Port {
		return fmt.Errorf("server.grpc_port must differ from server.port")
	}

	if cfg.IsProduction() && cfg.Database.Enabled && cfg.Database.SSLMode == "disable" {
		return fmt.Errorf("production environment requires SSL mode to be 'require' or 'verify-full'")
	}

	return nil
}

// formatValidationErrors formats validation errors into a readable string
func formatValidationErrors(validationErrors validator.ValidationErrors) error {
	var b strings.Builder
	for _, fieldError := range validationErrors {
		field := fieldError.StructField()
		value := fieldError.Value()

		switch tag := fieldError.Tag(); tag {
		case "required", "required_if":
			fmt.Fprintf(&b, "- Field '%s' is required\n", field)
		case "url":
			fmt.Fprintf(&b, "- Field '%s' must be a valid URL, got '%v'\n", field, value)
		case "min", "max":
			fmt.Fprintf(&b, "- Field '%s' validation failed: %s constraint violated\n", field, tag)
		case "gt", "gte", "lt", "lte":
			fmt.Fprintf(&b, "- Field '%s' validation failed: numeric constraint %s violated\n", field, tag)
		case "environment":
			fmt.Fprintf(&b, "- Field '%s' must be one of: development, staging, production\n", field)
		case "loglevel":
			fmt.Fprintf(&b, "- Field '%s' must be one of: debug, info, warn, error\n", field)
		case "modelbackend":
			fmt.Fprintf(&b, "- Field '%s' must be one of: local, remote_http, remote_grpc\n", field)
		case "cachebackend":
			fmt.Fprintf(&b, "- Field '%s' must be one of: memory, redis\n", field)
		case "cronspec":
			fmt.Fprintf(&b, "- Field '%s' must be a valid cron expression, got '%v'\n", field, value)
		case "oneof":
			fmt.Fprintf(&b, "- Field '%s' has invalid value '%v'\n", field, value)
		default:
			fmt.Fprintf(&b, "- Field '%s' failed validation: %s\n", field, tag)
		}
	}
	return fmt.Errorf("configuration validation failed:\n%s", b.String())
}
