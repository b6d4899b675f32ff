package sqlite

import "time"

// SettingModel is a row of the settings table.
type SettingModel struct {
	Key       string
	Value     string
	UpdatedAt int64 // Unix timestamp
}

func newSettingModel(key, value string, now time.Time) SettingModel {
	return SettingModel{Key: key, Value: value, UpdatedAt: now.Unix()}
}
