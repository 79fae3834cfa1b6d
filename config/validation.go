package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks structural constraints via validator tags, then the
// cross-field rules tags cannot express.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return fmt.Errorf("field %s failed rule %q", fe.Namespace(), fe.Tag())
		}
		return err
	}

	if cfg.Client.RetryMaxDelay > 0 && cfg.Client.RetryBaseDelay > cfg.Client.RetryMaxDelay {
		return fmt.Errorf("client: retry_base_delay (%s) exceeds retry_max_delay (%s)",
			cfg.Client.RetryBaseDelay, cfg.Client.RetryMaxDelay)
	}

	for sub, ttl := range cfg.Cache.PathTTLs {
		if ttl <= 0 {
			return fmt.Errorf("cache: path_ttls[%q] must be positive", sub)
		}
	}
	return nil
}
