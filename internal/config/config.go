// Package config loads runtime settings from the environment.
//
// A .env file in the working directory is read first (if present) and
// never overrides variables that are already set. Several settings accept
// more than one environment name so deployments of the older stack keep
// working; the first non-empty name wins.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DefaultLLMBaseURL      = "https://generativelanguage.googleapis.com/v1beta/openai/"
	DefaultRazorpayBaseURL = "https://api.razorpay.com/v1"
)

type Config struct {
	Port        int
	DatabaseURL string
	LogLevel    string
	Env         string

	LLMAPIKey   string
	LLMBaseURL  string
	LLMModel    string
	LLMMaxWords int

	GitHubToken    string
	ContentBudget  int
	ExplainTimeout time.Duration

	SessionSecret      string
	GoogleClientID     string
	GoogleClientSecret string
	GitHubClientID     string
	GitHubClientSecret string
	PublicBaseURL      string

	RazorpayKeyID     string
	RazorpayKeySecret string
	RazorpayBaseURL   string
}

// envBindings maps each key to the environment names it is read from.
var envBindings = map[string][]string{
	"port":                 {"PORT"},
	"database_url":         {"DATABASE_URL"},
	"log_level":            {"LOG_LEVEL"},
	"app_env":              {"APP_ENV"},
	"llm_api_key":          {"GEMINI_API_KEY", "LLM_API_KEY"},
	"llm_base_url":         {"LLM_BASE_URL"},
	"llm_model":            {"LLM_MODEL"},
	"llm_max_words":        {"LLM_MAX_WORDS"},
	"github_token":         {"GITHUB_TOKEN"},
	"content_budget":       {"CONTENT_BUDGET"},
	"explain_timeout":      {"EXPLAIN_TIMEOUT"},
	"session_secret":       {"SESSION_SECRET", "JWT_SECRET", "NEXTAUTH_SECRET"},
	"google_client_id":     {"GOOGLE_CLIENT_ID"},
	"google_client_secret": {"GOOGLE_CLIENT_SECRET"},
	"github_client_id":     {"GITHUB_CLIENT_ID"},
	"github_client_secret": {"GITHUB_CLIENT_SECRET"},
	"public_base_url":      {"PUBLIC_BASE_URL"},
	"razorpay_key_id":      {"RAZORPAY_KEY_ID", "RAZORPAY_API_KEY"},
	"razorpay_key_secret":  {"RAZORPAY_KEY_SECRET", "RAZORPAY_SECRET_KEY"},
	"razorpay_base_url":    {"RAZORPAY_BASE_URL"},
}

// Load reads the .env file (when present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: reading .env: %w", err)
	}
	return FromViper(viper.New())
}

// FromViper resolves the configuration through v, binding environment
// names and defaults first. Tests pass a fresh instance.
func FromViper(v *viper.Viper) (*Config, error) {
	for key, envs := range envBindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("config: binding %s: %w", key, err)
		}
	}

	v.SetDefault("port", 8080)
	v.SetDefault("database_url", "sqlite://data/repo-explainer.db")
	v.SetDefault("log_level", "info")
	v.SetDefault("app_env", "development")
	v.SetDefault("llm_base_url", DefaultLLMBaseURL)
	v.SetDefault("llm_model", "gemini-2.0-flash")
	v.SetDefault("llm_max_words", 300)
	v.SetDefault("content_budget", 5000)
	v.SetDefault("explain_timeout", "30s")
	v.SetDefault("razorpay_base_url", DefaultRazorpayBaseURL)

	cfg := &Config{
		Port:               v.GetInt("port"),
		DatabaseURL:        v.GetString("database_url"),
		LogLevel:           strings.ToLower(v.GetString("log_level")),
		Env:                strings.ToLower(v.GetString("app_env")),
		LLMAPIKey:          v.GetString("llm_api_key"),
		LLMBaseURL:         v.GetString("llm_base_url"),
		LLMModel:           v.GetString("llm_model"),
		LLMMaxWords:        v.GetInt("llm_max_words"),
		GitHubToken:        v.GetString("github_token"),
		ContentBudget:      v.GetInt("content_budget"),
		ExplainTimeout:     v.GetDuration("explain_timeout"),
		SessionSecret:      v.GetString("session_secret"),
		GoogleClientID:     v.GetString("google_client_id"),
		GoogleClientSecret: v.GetString("google_client_secret"),
		GitHubClientID:     v.GetString("github_client_id"),
		GitHubClientSecret: v.GetString("github_client_secret"),
		PublicBaseURL:      strings.TrimRight(v.GetString("public_base_url"), "/"),
		RazorpayKeyID:      v.GetString("razorpay_key_id"),
		RazorpayKeySecret:  v.GetString("razorpay_key_secret"),
		RazorpayBaseURL:    strings.TrimRight(v.GetString("razorpay_base_url"), "/"),
	}

	if cfg.PublicBaseURL == "" {
		cfg.PublicBaseURL = fmt.Sprintf("http://localhost:%d", cfg.Port)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: PORT %d out of range", c.Port)
	}
	if c.ContentBudget <= 0 {
		return fmt.Errorf("config: CONTENT_BUDGET must be positive, got %d", c.ContentBudget)
	}
	if c.LLMMaxWords <= 0 {
		return fmt.Errorf("config: LLM_MAX_WORDS must be positive, got %d", c.LLMMaxWords)
	}
	if c.ExplainTimeout <= 0 {
		return fmt.Errorf("config: EXPLAIN_TIMEOUT must be positive, got %s", c.ExplainTimeout)
	}
	return nil
}

// AuthEnabled reports whether sessions can be signed.
func (c *Config) AuthEnabled() bool { return c.SessionSecret != "" }

func (c *Config) GoogleEnabled() bool {
	return c.AuthEnabled() && c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

func (c *Config) GitHubOAuthEnabled() bool {
	return c.AuthEnabled() && c.GitHubClientID != "" && c.GitHubClientSecret != ""
}

func (c *Config) Production() bool { return c.Env == "production" }
