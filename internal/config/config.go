// Copyright 2024 The jadwalsholat Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package config loads the configuration shared by the commands: a YAML
// file, then a .env file, then environment variables, in increasing order
// of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "JADWALSHOLAT_"

type Config struct {
	Table   TableConfig   `yaml:"table"`
	Pack    PackConfig    `yaml:"pack"`
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
}

type TableConfig struct {
	// Path is the binary table.  Its metadata lives next to it.
	Path string `yaml:"path" validate:"required"`
	// Mmap maps the table instead of reading it into memory.
	Mmap bool `yaml:"mmap"`
	// VerifyMetadata checks the metadata companion against the table on
	// load.
	VerifyMetadata bool `yaml:"verify_metadata"`
}

type PackConfig struct {
	// Input is the scraped source JSON.
	Input         string `yaml:"input"`
	FormatVersion uint16 `yaml:"format_version" validate:"oneof=1 2"`
}

type ServerConfig struct {
	Address      string   `yaml:"address" validate:"required,hostname_port"`
	Mode         string   `yaml:"mode" validate:"oneof=debug release test"`
	AllowOrigins []string `yaml:"allow_origins" validate:"dive,url"`
}

type LoggingConfig struct {
	Level      string `yaml:"level" validate:"oneof=trace debug info warn error"`
	Console    bool   `yaml:"console"`
	FilePath   string `yaml:"file_path"`
	MaxSizeMB  int    `yaml:"max_size_mb" validate:"min=1"`
	MaxBackups int    `yaml:"max_backups" validate:"min=0"`
	MaxAgeDays int    `yaml:"max_age_days" validate:"min=0"`
	Compress   bool   `yaml:"compress"`
}

// Default is the configuration used for anything the file and the
// environment leave unset.
func Default() Config {
	return Config{
		Table: TableConfig{
			Path:           "data/jadwal-sholat.ajs",
			Mmap:           true,
			VerifyMetadata: true,
		},
		Pack: PackConfig{
			FormatVersion: 1,
		},
		Server: ServerConfig{
			Address: "127.0.0.1:8080",
			Mode:    "release",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Console:    true,
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 30,
			Compress:   true,
		},
	}
}

var validate = validator.New()

// Override adjusts a loaded configuration before it is validated, for
// values a command takes from its flags.
type Override func(cfg *Config) error

// Load reads the YAML file at path, if path isn't empty, applies
// overrides from the environment (after loading .env from the working
// directory, if there is one), then overrides, and validates the result.
func Load(path string, overrides ...Override) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("os.ReadFile: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("yaml.Unmarshal(%s): %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("godotenv.Load: %w", err)
	}
	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	for _, override := range overrides {
		if err := override(&cfg); err != nil {
			return nil, err
		}
	}

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}
	boolean := func(name string, dst *bool) error {
		if v, ok := lookup(EnvPrefix + name); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
			}
			*dst = b
		}
		return nil
	}

	str("TABLE_PATH", &cfg.Table.Path)
	if err := boolean("TABLE_MMAP", &cfg.Table.Mmap); err != nil {
		return err
	}
	if err := boolean("TABLE_VERIFY_METADATA", &cfg.Table.VerifyMetadata); err != nil {
		return err
	}
	str("PACK_INPUT", &cfg.Pack.Input)
	if v, ok := lookup(EnvPrefix + "PACK_FORMAT_VERSION"); ok {
		n, err := strconv.ParseUint(v, 10, 16)
		if err != nil {
			return fmt.Errorf("%sPACK_FORMAT_VERSION: %w", EnvPrefix, err)
		}
		cfg.Pack.FormatVersion = uint16(n)
	}
	str("SERVER_ADDRESS", &cfg.Server.Address)
	str("SERVER_MODE", &cfg.Server.Mode)
	if v, ok := lookup(EnvPrefix + "SERVER_ALLOW_ORIGINS"); ok {
		cfg.Server.AllowOrigins = nil
		for _, origin := range strings.Split(v, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				cfg.Server.AllowOrigins = append(cfg.Server.AllowOrigins, origin)
			}
		}
	}
	str("LOG_LEVEL", &cfg.Logging.Level)
	str("LOG_FILE", &cfg.Logging.FilePath)
	return boolean("LOG_CONSOLE", &cfg.Logging.Console)
}
