package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sadopc/studyplan/internal/ai"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"STUDYPLAN_DB", "STUDYPLAN_LOG", "OPENAI_API_KEY", "OPENAI_MODEL", "OPENAI_URL",
		"TELEGRAM_TOKEN", "TELEGRAM_CHAT_ID", "STUDYPLAN_USER", "STUDYPLAN_SYNC_DIR"} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	c, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatal(err)
	}
	if c.DBPath == "" {
		t.Fatal("expected a default db path")
	}
	if c.LogPath != filepath.Join(filepath.Dir(c.DBPath), "studyplan.log") {
		t.Fatalf("log path = %q", c.LogPath)
	}
	if c.UserID != DefaultUser || c.OpenAIModel != ai.DefaultModel || c.OpenAIURL != ai.DefaultURL {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if c.Telegram() {
		t.Fatal("telegram should be off without a token")
	}
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("STUDYPLAN_DB", "/tmp/x.db")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("TELEGRAM_TOKEN", "tok")
	t.Setenv("TELEGRAM_CHAT_ID", "-100123")

	c, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatal(err)
	}
	if c.DBPath != "/tmp/x.db" || c.LogPath != "/tmp/studyplan.log" {
		t.Fatalf("paths: %q %q", c.DBPath, c.LogPath)
	}
	if c.OpenAIKey != "sk-test" || !c.Telegram() || c.TelegramChatID != -100123 {
		t.Fatalf("unexpected config: %+v", c)
	}
}

func TestLoadBadChatID(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_CHAT_ID", "channel")
	if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Fatal("expected error for non-numeric chat id")
	}
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	os.Unsetenv("STUDYPLAN_USER")
	os.Unsetenv("STUDYPLAN_SYNC_DIR")
	path := filepath.Join(t.TempDir(), ".env")
	os.WriteFile(path, []byte("STUDYPLAN_USER=asha\nSTUDYPLAN_SYNC_DIR=/tmp/sync\n"), 0o644)

	c, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.UserID != "asha" || c.SyncDir != "/tmp/sync" {
		t.Fatalf("dotenv values not loaded: %+v", c)
	}
}
