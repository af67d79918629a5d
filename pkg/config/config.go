// Package config loads typed configuration from the environment. Every
// external client in this repo owns an envconfig-tagged struct; New fills one
// after optionally exporting a dotenv file (the -env flag, or ./.env when
// present) into the process environment via viper.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

var (
	envFile  string
	flagOnce sync.Once
)

func MustNew[T any](prefix string) *T {
	conf, err := New[T](prefix)
	if err != nil {
		panic(err)
	}
	return conf
}

// New populates a fresh T from PREFIX_* environment variables.
func New[T any](prefix string) (*T, error) {
	if err := loadDotenv(); err != nil {
		return nil, err
	}

	var conf T
	if err := envconfig.Process(prefix, &conf); err != nil {
		return nil, fmt.Errorf("process %s config: %w", strings.ToUpper(prefix), err)
	}
	return &conf, nil
}

// loadDotenv exports a dotenv file into the environment so envconfig sees it.
// An explicitly flagged file must exist; the ./.env fallback is best effort.
func loadDotenv() error {
	flagOnce.Do(func() {
		if flag.Lookup("env") == nil {
			flag.StringVar(&envFile, "env", "", "path to a dotenv file")
		}
		if !flag.Parsed() {
			flag.Parse()
		}
	})

	path := strings.TrimSpace(envFile)
	explicit := path != ""
	if !explicit {
		path = ".env"
	}

	info, err := os.Stat(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("env file %s: %w", path, err)
	}
	if info.IsDir() {
		if explicit {
			return fmt.Errorf("env file %s is a directory", path)
		}
		return nil
	}

	viper.SetConfigFile(path)
	viper.SetConfigType("env")
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("read env file %s: %w", path, err)
	}
	for key, value := range viper.AllSettings() {
		if err := os.Setenv(strings.ToUpper(key), fmt.Sprint(value)); err != nil {
			return err
		}
	}
	return nil
}
