package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ScheduleEntry describes one recurring report
type ScheduleEntry struct {
	Name     string `json:"name"`
	Location string `json:"location"`
	Variant  string `json:"variant"`
	Format   string `json:"format"`
	Cron     string `json:"cron"`
}

// ScheduleConfig represents the full report schedule file
type ScheduleConfig struct {
	Reports []ScheduleEntry `json:"reports"`
}

// LoadSchedule loads the report schedule from file. A missing file yields an
// empty schedule
func LoadSchedule(path string) ([]ScheduleEntry, error) {
	// Get absolute path to config file
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %v", err)
	}

	data, err := os.ReadFile(absPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read schedule file: %v", err)
	}

	var schedule ScheduleConfig
	if err := json.Unmarshal(data, &schedule); err != nil {
		return nil, fmt.Errorf("failed to parse schedule: %v", err)
	}

	for i := range schedule.Reports {
		entry := &schedule.Reports[i]
		if strings.TrimSpace(entry.Location) == "" {
			return nil, fmt.Errorf("schedule entry %d: location is required", i)
		}
		if strings.TrimSpace(entry.Cron) == "" {
			return nil, fmt.Errorf("schedule entry %d: cron expression is required", i)
		}
		if entry.Name == "" {
			entry.Name = NormalizeCity(entry.Location) + "-" + entry.Variant
		}
	}

	return schedule.Reports, nil
}

// SaveSchedule writes the schedule back to file with pretty printing
func SaveSchedule(path string, entries []ScheduleEntry) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %v", err)
	}

	data, err := json.MarshalIndent(ScheduleConfig{Reports: entries}, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal schedule: %v", err)
	}

	if err := os.WriteFile(absPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write schedule file: %v", err)
	}

	return nil
}
