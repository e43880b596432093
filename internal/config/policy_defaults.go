package config

import (
	"fmt"
	"os"

	"github.com/Freeeeeet/trainer_scheduler/internal/policy"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// LoadPolicyDefaults читает значения по умолчанию для новых политик из YAML.
// Поля, которых нет в файле, берутся из встроенных значений.
func LoadPolicyDefaults(path string) (policy.Defaults, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return policy.Defaults{}, fmt.Errorf("read policy defaults file: %w", err)
	}

	defaults := policy.BuiltinDefaults()
	if err := yaml.Unmarshal(data, &defaults); err != nil {
		return policy.Defaults{}, fmt.Errorf("unmarshal policy defaults: %w", err)
	}

	if err := validator.New().Struct(defaults); err != nil {
		return policy.Defaults{}, fmt.Errorf("policy defaults validation failed: %w", err)
	}

	return defaults, nil
}
