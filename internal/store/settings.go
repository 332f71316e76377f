package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/verte-zerg/rangebook/internal/model"
)

// ReplaceRates swaps the whole rate table in one transaction.
func (s *Store) ReplaceRates(ctx context.Context, rates []model.Rate) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM rates`); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO rates (code, rate, updated_at) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := stmt.Close(); cerr != nil {
			// Best-effort statement close.
			_ = cerr
		}
	}()
	now := s.now().UTC().Format(time.RFC3339Nano)
	for _, r := range rates {
		if _, err = stmt.ExecContext(ctx, strings.ToLower(r.Code), r.Rate, now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// SetRate inserts or updates one rate.
func (s *Store) SetRate(ctx context.Context, code string, rate float64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO rates (code, rate, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(code) DO UPDATE SET rate = excluded.rate, updated_at = excluded.updated_at`,
		strings.ToLower(code), rate, s.now().UTC().Format(time.RFC3339Nano))
	return err
}

// ListRates returns all stored rates ordered by code.
func (s *Store) ListRates(ctx context.Context) ([]model.Rate, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT code, rate, updated_at FROM rates ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	var result []model.Rate
	for rows.Next() {
		var r model.Rate
		var updatedAt string
		if err := rows.Scan(&r.Code, &r.Rate, &updatedAt); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, updatedAt)
		if err != nil {
			return nil, err
		}
		r.UpdatedAt = parsed
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// GetPreferences returns the stored preferences or ErrNotFound.
func (s *Store) GetPreferences(ctx context.Context) (model.Preferences, error) {
	var prefs model.Preferences
	err := s.db.QueryRowContext(ctx,
		`SELECT rounds_limit, days_limit, display_currency FROM preferences WHERE id = 1`).
		Scan(&prefs.RoundsLimit, &prefs.DaysLimit, &prefs.DisplayCurrency)
	if err != nil {
		if isNoRows(err) {
			return model.Preferences{}, fmt.Errorf("preferences: %w", ErrNotFound)
		}
		return model.Preferences{}, err
	}
	return prefs, nil
}

// SavePreferences stores the preferences, replacing any previous value.
func (s *Store) SavePreferences(ctx context.Context, prefs model.Preferences) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO preferences (id, rounds_limit, days_limit, display_currency) VALUES (1, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET rounds_limit = excluded.rounds_limit,
			days_limit = excluded.days_limit, display_currency = excluded.display_currency`,
		prefs.RoundsLimit, prefs.DaysLimit, strings.ToLower(prefs.DisplayCurrency))
	return err
}
