// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package server

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/caarlos0/env/v11"
)

var (
	ErrEnvVariablesNotValid = errors.New("environment variables not valid")
)

type Config struct {
	DisableStartupMessage bool   `env:"DISABLE_STARTUP_MESSAGE" envDefault:"true"`
	HTTPHost              string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	HTTPPort              string `env:"HTTP_PORT" envDefault:"3000"`
	CollectorPath         string `env:"COLLECTOR_PATH" envDefault:"/logs"`
	BodyLimit             int    `env:"BODY_LIMIT" envDefault:"4194304"`
}

func LoadServerConfig() (*Config, error) {
	var envVars Config
	if err := env.Parse(&envVars); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrEnvVariablesNotValid, err.Error())
	}

	if err := validateEnvironmentVariables(&envVars); err != nil {
		return nil, err
	}
	return &envVars, nil
}

func validateEnvironmentVariables(envVars *Config) error {
	envError := make([]string, 0)

	serverPortNumber, err := strconv.Atoi(envVars.HTTPPort)
	switch {
	case err != nil:
		envError = append(envError, "HTTP_PORT is not a valid number")
	case serverPortNumber < 1 || serverPortNumber > 65535:
		envError = append(envError, "HTTP_PORT is out of valid range (1-65535)")
	}

	if !strings.HasPrefix(envVars.CollectorPath, "/") || strings.HasPrefix(envVars.CollectorPath, statusPrefix) {
		envError = append(envError, "COLLECTOR_PATH must be an absolute path outside "+statusPrefix)
	}

	if envVars.BodyLimit < 1 {
		envError = append(envError, "BODY_LIMIT must be a positive number of bytes")
	}

	if len(envError) > 0 {
		return fmt.Errorf("%w: %s", ErrEnvVariablesNotValid, strings.Join(envError, ", "))
	}
	return nil
}
