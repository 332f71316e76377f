package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/verte-zerg/rangebook/internal/model"
)

// AddSession stores a range session and returns it with its generated ID.
func (s *Store) AddSession(ctx context.Context, session model.Session) (model.Session, error) {
	session.ID = newID()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, gun_id, ammo_id, date, shots, hits, distance_m, group_cm, cost, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID,
		session.GunID,
		session.AmmoID,
		formatDate(session.Date),
		session.Shots,
		nullInt(session.Hits),
		nullFloat(session.DistanceM),
		nullFloat(session.GroupCM),
		nullFloat(session.Cost),
		session.Notes,
	)
	if err != nil {
		return model.Session{}, err
	}
	return session, nil
}

// ListSessions returns sessions matching the filter, newest first.
func (s *Store) ListSessions(ctx context.Context, filter model.SessionFilter) ([]model.Session, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if filter.GunID != "" {
		clauses = append(clauses, "gun_id = ?")
		args = append(args, filter.GunID)
	}
	if filter.AmmoID != "" {
		clauses = append(clauses, "ammo_id = ?")
		args = append(args, filter.AmmoID)
	}
	if filter.Since != nil {
		clauses = append(clauses, "date >= ?")
		args = append(args, formatDate(*filter.Since))
	}
	if filter.Until != nil {
		clauses = append(clauses, "date <= ?")
		args = append(args, formatDate(*filter.Until))
	}
	query := fmt.Sprintf(`SELECT id, gun_id, ammo_id, date, shots, hits, distance_m, group_cm, cost, notes
		FROM sessions
		WHERE %s
		ORDER BY date DESC, id`, strings.Join(clauses, " AND "))
	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	} else if filter.Offset > 0 {
		query += " LIMIT -1 OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	var sessions []model.Session
	for rows.Next() {
		var session model.Session
		var date string
		var hits sql.NullInt64
		var distance, group, cost sql.NullFloat64
		if err := rows.Scan(&session.ID, &session.GunID, &session.AmmoID, &date, &session.Shots,
			&hits, &distance, &group, &cost, &session.Notes); err != nil {
			return nil, err
		}
		parsed, err := parseDate(date)
		if err != nil {
			return nil, err
		}
		session.Date = parsed
		session.Hits = intFromNull(hits)
		session.DistanceM = floatFromNull(distance)
		session.GroupCM = floatFromNull(group)
		session.Cost = floatFromNull(cost)
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

// DeleteSession removes a session.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "sessions", id)
}

// AddMaintenance stores a maintenance record and returns it with its generated ID.
func (s *Store) AddMaintenance(ctx context.Context, rec model.MaintenanceRecord) (model.MaintenanceRecord, error) {
	rec.ID = newID()
	if rec.Activities == nil {
		rec.Activities = []string{}
	}
	activities, err := json.Marshal(rec.Activities)
	if err != nil {
		return model.MaintenanceRecord{}, fmt.Errorf("failed to encode activities: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO maintenance (id, gun_id, date, activities, notes) VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.GunID, formatDate(rec.Date), string(activities), nullString(rec.Notes))
	if err != nil {
		return model.MaintenanceRecord{}, err
	}
	return rec, nil
}

// ListMaintenance returns maintenance records, newest first. An empty gunID lists all.
func (s *Store) ListMaintenance(ctx context.Context, gunID string) ([]model.MaintenanceRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, gun_id, date, activities, notes FROM maintenance
		 WHERE (? = '' OR gun_id = ?)
		 ORDER BY date DESC, id`, gunID, gunID)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	var result []model.MaintenanceRecord
	for rows.Next() {
		var rec model.MaintenanceRecord
		var date, activities string
		var notes sql.NullString
		if err := rows.Scan(&rec.ID, &rec.GunID, &date, &activities, &notes); err != nil {
			return nil, err
		}
		parsed, err := parseDate(date)
		if err != nil {
			return nil, err
		}
		rec.Date = parsed
		if err := json.Unmarshal([]byte(activities), &rec.Activities); err != nil {
			return nil, fmt.Errorf("failed to decode activities of %s: %w", rec.ID, err)
		}
		rec.Notes = stringFromNull(notes)
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteMaintenance removes a maintenance record.
func (s *Store) DeleteMaintenance(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "maintenance", id)
}
