package main

import (
	"fmt"

	"github.com/dalemusser/bloodconnect/internal/app/system/inputval"
	"github.com/ilyakaznacheev/cleanenv"
)

// cliConfig is read from the same BLOODCONNECT_* variables the server uses.
type cliConfig struct {
	MongoURI      string `yaml:"mongo_uri" env:"BLOODCONNECT_MONGO_URI" env-default:"mongodb://localhost:27017" validate:"required,uri" label:"BLOODCONNECT_MONGO_URI"`
	MongoDatabase string `yaml:"mongo_database" env:"BLOODCONNECT_MONGO_DATABASE" env-default:"bloodconnect" validate:"required" label:"BLOODCONNECT_MONGO_DATABASE"`

	// AdminPassword seeds create-admin. Empty means read it from stdin.
	AdminPassword string `yaml:"-" env:"BLOODCONNECT_ADMIN_PASSWORD"`
}

// loadConfig reads the environment, or path when set (YAML, then env on top).
func loadConfig(path string) (cliConfig, error) {
	var cfg cliConfig
	var err error
	if path != "" {
		err = cleanenv.ReadConfig(path, &cfg)
	} else {
		err = cleanenv.ReadEnv(&cfg)
	}
	if err != nil {
		return cliConfig{}, fmt.Errorf("read config: %w", err)
	}
	if res := inputval.Validate(cfg); res.HasErrors() {
		return cliConfig{}, fmt.Errorf("invalid config: %s", res.All())
	}
	return cfg, nil
}
