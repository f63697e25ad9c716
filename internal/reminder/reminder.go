// Package reminder fires a daily training notification at a configured time,
// at most once per calendar day.
package reminder

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/2beens/kegeltrainer/internal/kegel"
	"github.com/2beens/kegeltrainer/internal/localstore"
	"github.com/2beens/kegeltrainer/internal/trainer"

	log "github.com/sirupsen/logrus"
)

const (
	checkInterval = 30 * time.Second
	// the reminder fires within this window around the configured time
	reminderWindow = time.Minute
)

// State is the persisted reminder configuration. LastNotifiedDate dedupes
// notifications to at most one per calendar day.
type State struct {
	Enabled          bool   `json:"enabled"`
	Time             string `json:"time"` // HH:MM, 24h
	LastNotifiedDate string `json:"lastNotifiedDate,omitempty"`
}

type Checker struct {
	store    *localstore.Store
	notifier trainer.Notifier
	now      func() time.Time
}

func NewChecker(store *localstore.Store, notifier trainer.Notifier) *Checker {
	if notifier == nil {
		notifier = trainer.NoopNotifier{}
	}
	return &Checker{
		store:    store,
		notifier: notifier,
		now:      time.Now,
	}
}

// Run checks periodically until the context is done. The check loop is
// independent of the session countdown and must never interfere with it.
func (c *Checker) Run(ctx context.Context) {
	ticker := time.NewTicker(checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.Check()
		case <-ctx.Done():
			return
		}
	}
}

// Enable turns the daily reminder on for the given HH:MM time.
func (c *Checker) Enable(at string) error {
	if _, err := parseClock(at); err != nil {
		return err
	}
	c.store.Set(localstore.KeyReminders, State{Enabled: true, Time: at})
	return nil
}

func (c *Checker) Disable() {
	c.store.Set(localstore.KeyReminders, State{Enabled: false})
}

// Check fires the notification when the configured time falls within the
// reminder window and no notification went out today yet.
func (c *Checker) Check() {
	var state State
	if _, err := c.store.Get(localstore.KeyReminders, &state); err != nil {
		log.Errorf("read reminder state: %s", err)
		return
	}
	if !state.Enabled || state.Time == "" {
		return
	}

	clock, err := parseClock(state.Time)
	if err != nil {
		log.Errorf("invalid reminder time [%s]: %s", state.Time, err)
		return
	}

	now := c.now()
	reminderAt := time.Date(now.Year(), now.Month(), now.Day(), clock.hour, clock.minute, 0, 0, now.Location())

	diff := now.Sub(reminderAt)
	if diff < 0 {
		diff = -diff
	}

	today := kegel.FormatDate(now)
	if diff >= reminderWindow || state.LastNotifiedDate == today {
		return
	}

	if err := c.notifier.Notify("Kegel training reminder", "Time for today's training!"); err != nil {
		log.Warnf("send reminder notification: %s", err)
		return
	}

	state.LastNotifiedDate = today
	c.store.Set(localstore.KeyReminders, state)
}

type clockTime struct {
	hour   int
	minute int
}

func parseClock(val string) (clockTime, error) {
	parts := strings.Split(val, ":")
	if len(parts) != 2 {
		return clockTime{}, fmt.Errorf("invalid time format: %s", val)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return clockTime{}, fmt.Errorf("invalid hour: %s", parts[0])
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return clockTime{}, fmt.Errorf("invalid minute: %s", parts[1])
	}
	return clockTime{hour: hour, minute: minute}, nil
}
