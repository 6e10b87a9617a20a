// Package storage persists the configured schedule as YAML and break
// history in SQLite.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/drneuraldog/lookaway/internal/core/model"
)

const scheduleFileName = "schedule.yaml"

type yamlSchedule struct {
	Cycles []model.WorkCycleConfig `yaml:"cycles"`
}

// SchedulePath resolves the schedule file location under the user config
// directory.
func SchedulePath(appName string) (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(configDir, appName, scheduleFileName), nil
}

// LoadSchedule reads the stored cycle list for the app. A missing file,
// a decode failure or an invalid list all fall back to the default
// schedule; failures are logged, never fatal.
func LoadSchedule(appName string, logger zerolog.Logger) []model.WorkCycleConfig {
	path, err := SchedulePath(appName)
	if err != nil {
		logger.Warn().Err(err).Msg("schedule path unresolved, using defaults")
		return model.DefaultSchedule()
	}
	return LoadScheduleFile(path, logger)
}

// LoadScheduleFile reads a cycle list from an explicit path with the same
// fallback behavior as LoadSchedule.
func LoadScheduleFile(path string, logger zerolog.Logger) []model.WorkCycleConfig {
	rawData, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Warn().Err(err).Str("path", path).Msg("schedule file unreadable, using defaults")
		}
		return model.DefaultSchedule()
	}

	var fileData yamlSchedule
	if err := yaml.Unmarshal(rawData, &fileData); err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("schedule file malformed, using defaults")
		return model.DefaultSchedule()
	}
	if err := model.ValidateSchedule(fileData.Cycles); err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("stored schedule invalid, using defaults")
		return model.DefaultSchedule()
	}
	return fileData.Cycles
}

// SaveSchedule writes the cycle list for the app.
func SaveSchedule(appName string, cycles []model.WorkCycleConfig) error {
	path, err := SchedulePath(appName)
	if err != nil {
		return err
	}
	return SaveScheduleFile(path, cycles)
}

// SaveScheduleFile writes a cycle list to an explicit path.
func SaveScheduleFile(path string, cycles []model.WorkCycleConfig) error {
	if err := model.ValidateSchedule(cycles); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	serialized, err := yaml.Marshal(yamlSchedule{Cycles: cycles})
	if err != nil {
		return fmt.Errorf("marshal schedule yaml: %w", err)
	}
	if err := os.WriteFile(path, serialized, 0o644); err != nil {
		return fmt.Errorf("write schedule file: %w", err)
	}
	return nil
}
