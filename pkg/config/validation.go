package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validate is the singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate validates the configuration using struct tags and custom rules.
//
// Log level normalization is handled in ApplyDefaults, not here. Validation
// accepts both uppercase and lowercase log levels.
//
// Returns an error describing validation failures.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	if err := validateCustomRules(cfg); err != nil {
		return err
	}

	return nil
}

// validateCustomRules checks the driver section selected by driver.type.
func validateCustomRules(cfg *Config) error {
	switch cfg.Driver.Type {
	case "badger":
		var opts badgerOptions
		if err := decodeOptions(cfg.Driver.Badger, &opts); err != nil {
			return fmt.Errorf("driver.badger: %w", err)
		}
		if opts.DBPath == "" && !opts.InMemory {
			return fmt.Errorf("driver.badger: db_path is required unless in_memory is set")
		}

	case "s3":
		var opts s3Options
		if err := decodeOptions(cfg.Driver.S3, &opts); err != nil {
			return fmt.Errorf("driver.s3: %w", err)
		}
		if opts.Bucket == "" {
			return fmt.Errorf("driver.s3: bucket is required")
		}
		if opts.Region == "" {
			return fmt.Errorf("driver.s3: region is required")
		}
		if (opts.AccessKeyID == "") != (opts.SecretAccessKey == "") {
			return fmt.Errorf("driver.s3: access_key_id and secret_access_key must be set together")
		}
	}

	if cfg.Metrics.Enabled && cfg.Metrics.Port == 0 {
		return fmt.Errorf("metrics: port is required when metrics are enabled")
	}

	return nil
}

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) error {
	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		if len(validationErrs) > 0 {
			e := validationErrs[0]
			return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
				e.Namespace(), e.Tag(), e.Value())
		}
	}
	return err
}
