// Package report loads logbook snapshots, derives metrics and renders text reports.
package report

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/verte-zerg/rangebook/internal/logger"
	"github.com/verte-zerg/rangebook/internal/model"
	"github.com/verte-zerg/rangebook/internal/store"
)

// DefaultPreferencesRetryDelay is the pause before the single preferences retry.
const DefaultPreferencesRetryDelay = 500 * time.Millisecond

// Source supplies raw logbook records.
type Source interface {
	ListGuns(ctx context.Context) ([]model.Gun, error)
	ListAmmo(ctx context.Context) ([]model.Ammo, error)
	ListSessions(ctx context.Context, filter model.SessionFilter) ([]model.Session, error)
	ListMaintenance(ctx context.Context, gunID string) ([]model.MaintenanceRecord, error)
	ListRates(ctx context.Context) ([]model.Rate, error)
	GetPreferences(ctx context.Context) (model.Preferences, error)
}

// Snapshot is one consistent read of everything a report needs.
type Snapshot struct {
	Base        string
	Guns        []model.Gun
	Ammo        []model.Ammo
	Sessions    []model.Session
	AllSessions []model.Session
	Maintenance []model.MaintenanceRecord
	Rates       []model.Rate
	Preferences model.Preferences
	// PreferencesDefaulted is set when stored preferences were missing or unreadable.
	PreferencesDefaulted bool
}

// Loader reads snapshots from a Source.
type Loader struct {
	Source     Source
	Base       string
	Defaults   model.Preferences
	RetryDelay time.Duration
	Log        *logger.Logger
}

// Load fetches all collections concurrently. Filter narrows the listed
// sessions only; maintenance always sees every session.
func (l *Loader) Load(ctx context.Context, filter model.SessionFilter) (Snapshot, error) {
	snap := Snapshot{Base: strings.ToLower(l.Base)}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		guns, err := l.Source.ListGuns(gctx)
		if err != nil {
			return fmt.Errorf("failed to load guns: %w", err)
		}
		snap.Guns = guns
		return nil
	})
	g.Go(func() error {
		ammo, err := l.Source.ListAmmo(gctx)
		if err != nil {
			return fmt.Errorf("failed to load ammo: %w", err)
		}
		snap.Ammo = ammo
		return nil
	})
	g.Go(func() error {
		sessions, err := l.Source.ListSessions(gctx, filter)
		if err != nil {
			return fmt.Errorf("failed to load sessions: %w", err)
		}
		snap.Sessions = sessions
		return nil
	})
	g.Go(func() error {
		sessions, err := l.Source.ListSessions(gctx, model.SessionFilter{})
		if err != nil {
			return fmt.Errorf("failed to load sessions: %w", err)
		}
		snap.AllSessions = sessions
		return nil
	})
	g.Go(func() error {
		recs, err := l.Source.ListMaintenance(gctx, "")
		if err != nil {
			return fmt.Errorf("failed to load maintenance: %w", err)
		}
		snap.Maintenance = recs
		return nil
	})
	g.Go(func() error {
		rates, err := l.Source.ListRates(gctx)
		if err != nil {
			return fmt.Errorf("failed to load rates: %w", err)
		}
		snap.Rates = rates
		return nil
	})
	g.Go(func() error {
		prefs, defaulted, err := l.LoadPreferences(gctx)
		if err != nil {
			return err
		}
		snap.Preferences = prefs
		snap.PreferencesDefaulted = defaulted
		return nil
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// LoadPreferences reads stored preferences, retrying once after RetryDelay.
// Missing or unreadable preferences fall back to Defaults; only context
// cancellation is returned as an error.
func (l *Loader) LoadPreferences(ctx context.Context) (model.Preferences, bool, error) {
	log := l.log()
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			log.Warn("preferences read failed, retrying", "error", lastErr, "delay", l.retryDelay())
			timer := time.NewTimer(l.retryDelay())
			select {
			case <-ctx.Done():
				timer.Stop()
				return model.Preferences{}, false, ctx.Err()
			case <-timer.C:
			}
		}
		prefs, err := l.Source.GetPreferences(ctx)
		if err == nil {
			return MergePreferences(prefs, l.Defaults), false, nil
		}
		if errors.Is(err, store.ErrNotFound) {
			return l.Defaults, true, nil
		}
		if ctx.Err() != nil {
			return model.Preferences{}, false, ctx.Err()
		}
		lastErr = err
	}
	log.Warn("preferences unavailable, using defaults", "error", lastErr)
	return l.Defaults, true, nil
}

func (l *Loader) retryDelay() time.Duration {
	if l.RetryDelay <= 0 {
		return DefaultPreferencesRetryDelay
	}
	return l.RetryDelay
}

func (l *Loader) log() *logger.Logger {
	if l.Log == nil {
		return logger.Nop()
	}
	return l.Log
}

// MergePreferences fills unset fields of prefs from defaults.
func MergePreferences(prefs, defaults model.Preferences) model.Preferences {
	if prefs.RoundsLimit <= 0 {
		prefs.RoundsLimit = defaults.RoundsLimit
	}
	if prefs.DaysLimit <= 0 {
		prefs.DaysLimit = defaults.DaysLimit
	}
	if strings.TrimSpace(prefs.DisplayCurrency) == "" {
		prefs.DisplayCurrency = defaults.DisplayCurrency
	}
	return prefs
}
