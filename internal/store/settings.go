package store

import (
	"fmt"
	"strconv"

	"github.com/sadopc/studyplan/internal/planner"
	"github.com/sadopc/studyplan/internal/timer"
)

func (s *Store) GetSetting(key string) (string, error) {
	var value string
	err := s.db.Get(&value, `SELECT value FROM settings WHERE key = ?`, key)
	if err != nil {
		return "", fmt.Errorf("get setting %q: %w", key, err)
	}
	return value, nil
}

func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return err
}

func (s *Store) GetAllSettings() ([]Setting, error) {
	var settings []Setting
	if err := s.db.Select(&settings, `SELECT key, value FROM settings ORDER BY key`); err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	return settings, nil
}

// Settings is the typed view of the settings table.
type Settings struct {
	TimerPreset  string
	CustomWork   int
	CustomBreak  int
	Policy       planner.Policy
	LeadMinutes  int
	DailyCredits int
}

// Preset resolves the configured timer preset.
func (c Settings) Preset() timer.Preset {
	return timer.PresetByName(c.TimerPreset, c.CustomWork, c.CustomBreak)
}

// LoadSettings reads the typed settings. Missing or malformed values fall
// back to their defaults.
func (s *Store) LoadSettings() Settings {
	def := planner.DefaultPolicy()
	intOr := func(key string, fallback int) int {
		if v, err := s.GetSetting(key); err == nil {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return fallback
	}
	floatOr := func(key string, fallback float64) float64 {
		if v, err := s.GetSetting(key); err == nil {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				return f
			}
		}
		return fallback
	}

	preset, err := s.GetSetting("timer_preset")
	if err != nil {
		preset = timer.Pomodoro.Name
	}

	pol := def
	pol.DifficultyWeight = floatOr("difficulty_weight", def.DifficultyWeight)
	pol.ExamWeight = floatOr("exam_weight", def.ExamWeight)
	pol.HorizonDays = intOr("horizon_days", def.HorizonDays)
	pol.MaxBlockMinutes = intOr("max_block_minutes", def.MaxBlockMinutes)
	pol.MinBlockMinutes = intOr("min_block_minutes", def.MinBlockMinutes)
	pol.BreakMinutes = intOr("break_minutes", def.BreakMinutes)

	return Settings{
		TimerPreset:  preset,
		CustomWork:   intOr("custom_work", timer.Pomodoro.WorkMinutes),
		CustomBreak:  intOr("custom_break", timer.Pomodoro.BreakMinutes),
		Policy:       pol,
		LeadMinutes:  intOr("lead_minutes", 5),
		DailyCredits: intOr("daily_credits", 10),
	}
}

// SaveSettings writes every typed setting.
func (s *Store) SaveSettings(c Settings) error {
	values := map[string]string{
		"timer_preset":      c.TimerPreset,
		"custom_work":       strconv.Itoa(c.CustomWork),
		"custom_break":      strconv.Itoa(c.CustomBreak),
		"difficulty_weight": strconv.FormatFloat(c.Policy.DifficultyWeight, 'f', -1, 64),
		"exam_weight":       strconv.FormatFloat(c.Policy.ExamWeight, 'f', -1, 64),
		"horizon_days":      strconv.Itoa(c.Policy.HorizonDays),
		"max_block_minutes": strconv.Itoa(c.Policy.MaxBlockMinutes),
		"min_block_minutes": strconv.Itoa(c.Policy.MinBlockMinutes),
		"break_minutes":     strconv.Itoa(c.Policy.BreakMinutes),
		"lead_minutes":      strconv.Itoa(c.LeadMinutes),
		"daily_credits":     strconv.Itoa(c.DailyCredits),
	}
	for k, v := range values {
		if err := s.SetSetting(k, v); err != nil {
			return fmt.Errorf("save setting %q: %w", k, err)
		}
	}
	return nil
}
