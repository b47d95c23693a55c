package utils

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/vitwit/zizza/types"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Environment variables that override secrets from the config file.
const (
	EnvNearPrivateKey = "ZIZZA_NEAR_PRIVATE_KEY"
	EnvZcashMnemonic  = "ZIZZA_ZEC_MNEMONIC"
)

// ValidateStruct runs the struct tag validators on v.
func ValidateStruct(v interface{}) error {
	return validate.Struct(v)
}

// ParseConfig parses and validates a Config from JSON.
func ParseConfig(data []byte) (*types.Config, error) {
	var config types.Config

	if err := json.Unmarshal(data, &config); err != nil {
		return nil, &types.Error{
			Code:    types.ErrConfigError,
			Message: fmt.Sprintf("failed to parse config: %v", err),
		}
	}

	return finishConfig(&config)
}

// LoadConfig reads a JSON config file and applies environment overrides.
func LoadConfig(path string) (*types.Config, error) {
	var config types.Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, &types.Error{
				Code:    types.ErrConfigError,
				Message: fmt.Sprintf("failed to read config %s: %v", path, err),
			}
		}
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, &types.Error{
				Code:    types.ErrConfigError,
				Message: fmt.Sprintf("failed to parse config %s: %v", path, err),
			}
		}
	}

	if v := os.Getenv(EnvNearPrivateKey); v != "" {
		config.Near.PrivateKey = v
	}
	if v := os.Getenv(EnvZcashMnemonic); v != "" {
		config.Zcash.Mnemonic = v
	}

	return finishConfig(&config)
}

func finishConfig(config *types.Config) (*types.Config, error) {
	config.ApplyDefaults()

	if err := validate.Struct(config); err != nil {
		return nil, &types.Error{
			Code:    types.ErrConfigError,
			Message: fmt.Sprintf("validation failed: %v", err),
		}
	}

	if err := ValidateNearAccountID(config.Near.AccountID); err != nil {
		return nil, &types.Error{
			Code:    types.ErrConfigError,
			Message: err.Error(),
		}
	}

	return config, nil
}
