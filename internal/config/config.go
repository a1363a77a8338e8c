// Package config assembles runtime configuration from the environment, an
// optional .env file, and the vault.yml secrets file holding the CCB and
// gmail credentials.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds everything a report run needs.
type Config struct {
	AppEnv      string
	OutputDir   string
	CacheDir    string
	InputPath   string
	VaultPath   string
	HTTPTimeout time.Duration
	StartedAt   time.Time

	CCB   CCBSecrets
	Gmail GmailSecrets
}

// CCBSecrets carries the church-management-system credentials.
type CCBSecrets struct {
	Subdomain   string `yaml:"subdomain"`
	AppUsername string `yaml:"app_username"`
	AppPassword string `yaml:"app_password"`
}

// GmailSecrets carries the notification-mail credentials.
type GmailSecrets struct {
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	NotifyTarget string `yaml:"notify_target"`
}

type vaultFile struct {
	CCB   CCBSecrets   `yaml:"ccb"`
	Gmail GmailSecrets `yaml:"gmail"`
}

// Load reads the environment (plus .env when present) and applies defaults.
// Secrets come from vault.yml afterwards via LoadVault.
func Load() (*Config, error) {
	_ = godotenv.Load(".env", ".env.local")

	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		OutputDir:   getEnv("OUTPUT_DIR", "tmp"),
		CacheDir:    getEnv("CACHE_DIR", "file_cache"),
		InputPath:   getEnv("INPUT_XLSX", "Input.xlsx"),
		VaultPath:   getEnv("VAULT_PATH", "vault.yml"),
		HTTPTimeout: time.Second * time.Duration(getEnvInt("HTTP_TIMEOUT_SECONDS", 300)),
		StartedAt:   time.Now(),
	}
	return cfg, nil
}

// LoadVault parses the secrets file into the config. The gmail section is
// only required when email notification is enabled; the ccb section is only
// required when the run pulls from the CCB API.
func (c *Config) LoadVault(needCCB, needGmail bool) error {
	data, err := os.ReadFile(c.VaultPath)
	if err != nil {
		return fmt.Errorf("config: read vault file: %w", err)
	}
	var vault vaultFile
	if err := yaml.Unmarshal(data, &vault); err != nil {
		return fmt.Errorf("config: parse vault file %s: %w", c.VaultPath, err)
	}
	c.CCB = vault.CCB
	c.Gmail = vault.Gmail

	if needCCB && (c.CCB.Subdomain == "" || c.CCB.AppUsername == "" || c.CCB.AppPassword == "") {
		return fmt.Errorf("config: ccb section of %s is incomplete", c.VaultPath)
	}
	if needGmail && (c.Gmail.User == "" || c.Gmail.Password == "" || c.Gmail.NotifyTarget == "") {
		return fmt.Errorf("config: gmail section of %s is incomplete", c.VaultPath)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
