package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/viper"
)

const defaultGraphQLURL = "https://api.github.com/graphql"

// Config holds all configuration for the application
type Config struct {
	GitHubToken      string
	DatabasePath     string
	GraphQLURL       string
	MinLanguageStars int64
	LogLevel         string
}

// NewConfig creates a new Config instance
func NewConfig() *Config {
	return &Config{}
}

// Load loads configuration from environment variables and an optional .env file
func (c *Config) Load() error {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	// Read .env file if it exists
	if err := viper.ReadInConfig(); err != nil {
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !notFound && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Required fields
	c.GitHubToken = viper.GetString("GITHUB_TOKEN")
	if c.GitHubToken == "" {
		return fmt.Errorf("GITHUB_TOKEN is required")
	}

	c.DatabasePath = viper.GetString("STARHISTORY_DATABASE")
	if c.DatabasePath == "" {
		return fmt.Errorf("STARHISTORY_DATABASE is required")
	}

	// Optional fields with defaults
	c.GraphQLURL = viper.GetString("GITHUB_GRAPHQL_URL")
	if c.GraphQLURL == "" {
		c.GraphQLURL = defaultGraphQLURL
	}

	c.MinLanguageStars = viper.GetInt64("MIN_LANGUAGE_STARS")
	if c.MinLanguageStars == 0 {
		c.MinLanguageStars = 10
	}

	c.LogLevel = viper.GetString("LOG_LEVEL")
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}

	return nil
}
