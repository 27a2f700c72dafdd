package storage

import (
	"encoding/json"
	"fmt"

	"github.com/julianstephens/drivewise/internal/constants"
	"github.com/julianstephens/drivewise/internal/logger"
	"github.com/julianstephens/drivewise/internal/models"
)

// ReadWellnessLogs returns every stored wellness log. A missing, unreadable
// or malformed blob reads as no logs.
func ReadWellnessLogs(p Provider) []models.WellnessLog {
	if p == nil {
		return []models.WellnessLog{}
	}
	raw, ok, err := p.GetItem(constants.StorageKeyWellnessLog)
	if err != nil {
		logger.Warn("Failed to read wellness logs", "error", err)
		return []models.WellnessLog{}
	}
	if !ok || raw == "" {
		return []models.WellnessLog{}
	}

	var logs []models.WellnessLog
	if err := json.Unmarshal([]byte(raw), &logs); err != nil {
		logger.Warn("Discarding malformed wellness logs", "error", err)
		return []models.WellnessLog{}
	}
	if logs == nil {
		logs = []models.WellnessLog{}
	}
	return logs
}

// AppendWellnessLog adds entry to the stored logs and writes the whole array
// back. It returns the full array as persisted.
func AppendWellnessLog(p Provider, entry models.WellnessLog) ([]models.WellnessLog, error) {
	if p == nil {
		return nil, fmt.Errorf("no storage provider")
	}
	logs := append(ReadWellnessLogs(p), entry)
	data, err := json.Marshal(logs)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize wellness logs: %w", err)
	}
	if err := p.SetItem(constants.StorageKeyWellnessLog, string(data)); err != nil {
		return nil, err
	}
	return logs, nil
}
