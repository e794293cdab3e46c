// Package config reads process configuration from the environment, after
// optionally loading a .env file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/sadopc/studyplan/internal/ai"
	"github.com/sadopc/studyplan/internal/store"
)

const DefaultUser = "local"

type Config struct {
	DBPath  string
	LogPath string

	OpenAIKey   string
	OpenAIModel string
	OpenAIURL   string

	TelegramToken  string
	TelegramChatID int64

	UserID  string
	SyncDir string
}

// Telegram reports whether the Telegram sink is configured.
func (c Config) Telegram() bool { return c.TelegramToken != "" && c.TelegramChatID != 0 }

// Load reads envFiles (".env" when none are given) if present and then the
// environment. A missing .env file is not an error.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	c := Config{
		DBPath:        os.Getenv("STUDYPLAN_DB"),
		LogPath:       os.Getenv("STUDYPLAN_LOG"),
		OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:   envOr("OPENAI_MODEL", ai.DefaultModel),
		OpenAIURL:     envOr("OPENAI_URL", ai.DefaultURL),
		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),
		UserID:        envOr("STUDYPLAN_USER", DefaultUser),
		SyncDir:       os.Getenv("STUDYPLAN_SYNC_DIR"),
	}

	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("parse TELEGRAM_CHAT_ID: %w", err)
		}
		c.TelegramChatID = id
	}

	if c.DBPath == "" {
		p, err := store.DefaultDBPath()
		if err != nil {
			return Config{}, err
		}
		c.DBPath = p
	}
	if c.LogPath == "" {
		c.LogPath = filepath.Join(filepath.Dir(c.DBPath), "studyplan.log")
	}
	return c, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
