// Package export dumps and restores the locally stored training data.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/2beens/kegeltrainer/internal/kegel"
	"github.com/2beens/kegeltrainer/internal/localstore"
)

// Dump is the on-disk JSON export format.
type Dump struct {
	Records    []kegel.Session `json:"records"`
	Settings   kegel.Settings  `json:"settings"`
	ExportDate string          `json:"exportDate"`
}

var csvHeader = []string{"id", "user_id", "date", "sets", "reps", "duration", "contract_time", "relax_time", "created_at"}

// JSON returns a pretty-printed dump of all records and settings.
func JSON(store *localstore.Store) ([]byte, error) {
	dump, err := makeDump(store)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(dump, "", "  ")
}

// CSV returns all session records as CSV with a header row.
func CSV(store *localstore.Store) ([]byte, error) {
	dump, err := makeDump(store)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, r := range dump.Records {
		createdAt := ""
		if !r.CreatedAt.IsZero() {
			createdAt = r.CreatedAt.Format(time.RFC3339)
		}
		row := []string{
			strconv.Itoa(r.ID),
			r.UserID,
			r.Date,
			strconv.Itoa(r.Sets),
			strconv.Itoa(r.Reps),
			strconv.FormatFloat(r.Duration, 'f', -1, 64),
			strconv.Itoa(r.ContractTime),
			strconv.Itoa(r.RelaxTime),
			createdAt,
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ImportJSON replaces the stored records and settings with the dump content.
// The caller is expected to confirm the overwrite with the user first.
func ImportJSON(store *localstore.Store, data []byte) (recordsCount int, err error) {
	var dump Dump
	if err := json.Unmarshal(data, &dump); err != nil {
		return 0, fmt.Errorf("parse import data: %w", err)
	}
	if dump.Records == nil {
		return 0, fmt.Errorf("import data has no records field")
	}
	if err := dump.Settings.Validate(); err != nil {
		return 0, fmt.Errorf("import settings: %w", err)
	}

	store.Set(localstore.KeyRecords, dump.Records)
	store.Set(localstore.KeySettings, dump.Settings)
	return len(dump.Records), nil
}

func makeDump(store *localstore.Store) (*Dump, error) {
	var records []kegel.Session
	if _, err := store.Get(localstore.KeyRecords, &records); err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}
	if records == nil {
		records = []kegel.Session{}
	}

	settings := kegel.DefaultSettings()
	if _, err := store.Get(localstore.KeySettings, &settings); err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	return &Dump{
		Records:    records,
		Settings:   settings,
		ExportDate: time.Now().Format(time.RFC3339),
	}, nil
}
