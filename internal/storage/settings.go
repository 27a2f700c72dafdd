package storage

import (
	"github.com/julianstephens/drivewise/internal/constants"
	"github.com/julianstephens/drivewise/internal/logger"
	"github.com/julianstephens/drivewise/internal/models"
)

// LoadSettings reads the persisted settings, filling defaults for anything unset.
func LoadSettings(p Provider) models.Settings {
	settings := models.Settings{
		APIBaseURL: constants.DefaultAPIBaseURL,
		Timezone:   constants.DefaultTimezone,
	}
	if p == nil {
		return settings
	}
	if v := readSetting(p, constants.StorageKeyAPIBaseURL); v != "" {
		settings.APIBaseURL = v
	}
	if v := readSetting(p, constants.StorageKeyTimezone); v != "" {
		settings.Timezone = v
	}
	return settings
}

// SaveSettings persists every settings field.
func SaveSettings(p Provider, settings models.Settings) error {
	if err := p.SetItem(constants.StorageKeyAPIBaseURL, settings.APIBaseURL); err != nil {
		return err
	}
	return p.SetItem(constants.StorageKeyTimezone, settings.Timezone)
}

func readSetting(p Provider, key string) string {
	v, _, err := p.GetItem(key)
	if err != nil {
		logger.Warn("Failed to read setting", "key", key, "error", err)
		return ""
	}
	return v
}
