package kegel

import "fmt"

// Settings are the user's configured training parameters. Saved wholesale on
// every change, exactly one record per user identity.
type Settings struct {
	RepsPerSet   int  `json:"repsPerSet"`
	TotalSets    int  `json:"totalSets"`
	ContractTime int  `json:"contractTime"` // seconds
	RelaxTime    int  `json:"relaxTime"`    // seconds
	RestTime     int  `json:"restTime"`     // seconds, between sets
	SoundEnabled bool `json:"soundEnabled"`

	ReminderEnabled bool   `json:"reminderEnabled"`
	ReminderTime    string `json:"reminderTime"` // HH:MM, 24h
}

func DefaultSettings() Settings {
	return Settings{
		RepsPerSet:   10,
		TotalSets:    3,
		ContractTime: 5,
		RelaxTime:    5,
		RestTime:     10,
		SoundEnabled: true,
		ReminderTime: "09:00",
	}
}

// Presets returns the predefined training plans.
func Presets() map[string]Settings {
	return map[string]Settings{
		"beginner":     {RepsPerSet: 5, TotalSets: 2, ContractTime: 3, RelaxTime: 3, RestTime: 10, SoundEnabled: true, ReminderTime: "09:00"},
		"intermediate": {RepsPerSet: 10, TotalSets: 3, ContractTime: 5, RelaxTime: 5, RestTime: 10, SoundEnabled: true, ReminderTime: "09:00"},
		"advanced":     {RepsPerSet: 15, TotalSets: 4, ContractTime: 8, RelaxTime: 5, RestTime: 15, SoundEnabled: true, ReminderTime: "09:00"},
	}
}

type settingsRange struct {
	name     string
	val      int
	min, max int
}

// Validate checks all training parameters against their allowed ranges.
func (s Settings) Validate() error {
	ranges := []settingsRange{
		{"repsPerSet", s.RepsPerSet, 5, 20},
		{"totalSets", s.TotalSets, 1, 5},
		{"contractTime", s.ContractTime, 3, 10},
		{"relaxTime", s.RelaxTime, 3, 10},
		{"restTime", s.RestTime, 5, 30},
	}
	for _, r := range ranges {
		if r.val < r.min || r.val > r.max {
			return fmt.Errorf("%s out of range [%d, %d]: %d", r.name, r.min, r.max, r.val)
		}
	}
	return nil
}
