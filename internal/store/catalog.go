package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/verte-zerg/rangebook/internal/model"
)

// AddGun stores a firearm and returns it with its generated ID.
func (s *Store) AddGun(ctx context.Context, gun model.Gun) (model.Gun, error) {
	gun.ID = newID()
	if gun.CreatedAt.IsZero() {
		gun.CreatedAt = s.now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO guns (id, name, caliber, notes, created_at) VALUES (?, ?, ?, ?, ?)`,
		gun.ID, gun.Name, gun.Caliber, gun.Notes, gun.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return model.Gun{}, err
	}
	return gun, nil
}

// ListGuns returns all firearms ordered by name.
func (s *Store) ListGuns(ctx context.Context) ([]model.Gun, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, caliber, notes, created_at FROM guns ORDER BY name COLLATE NOCASE, id`)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	var guns []model.Gun
	for rows.Next() {
		gun, err := scanGun(rows)
		if err != nil {
			return nil, err
		}
		guns = append(guns, gun)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return guns, nil
}

// GetGun returns a firearm by ID, or by a unique ID prefix.
func (s *Store) GetGun(ctx context.Context, id string) (model.Gun, error) {
	if id == "" {
		return model.Gun{}, fmt.Errorf("gun id is empty: %w", ErrNotFound)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, caliber, notes, created_at FROM guns WHERE id LIKE ? ESCAPE '\' LIMIT 2`,
		likePrefix(id))
	if err != nil {
		return model.Gun{}, err
	}
	defer closeRows(rows)

	var found []model.Gun
	for rows.Next() {
		gun, err := scanGun(rows)
		if err != nil {
			return model.Gun{}, err
		}
		found = append(found, gun)
	}
	if err := rows.Err(); err != nil {
		return model.Gun{}, err
	}
	switch len(found) {
	case 0:
		return model.Gun{}, fmt.Errorf("gun %q: %w", id, ErrNotFound)
	case 1:
		return found[0], nil
	default:
		for _, gun := range found {
			if gun.ID == id {
				return gun, nil
			}
		}
		return model.Gun{}, fmt.Errorf("gun id prefix %q is ambiguous", id)
	}
}

// DeleteGun removes a firearm that has no sessions or maintenance records.
func (s *Store) DeleteGun(ctx context.Context, id string) error {
	id, err := s.resolveID(ctx, "guns", id)
	if err != nil {
		return err
	}
	var refs int
	err = s.db.QueryRowContext(ctx,
		`SELECT (SELECT COUNT(*) FROM sessions WHERE gun_id = ?) + (SELECT COUNT(*) FROM maintenance WHERE gun_id = ?)`,
		id, id).Scan(&refs)
	if err != nil {
		return err
	}
	if refs > 0 {
		return fmt.Errorf("gun %q: %w", id, ErrInUse)
	}
	return s.deleteByID(ctx, "guns", id)
}

func scanGun(rows *sql.Rows) (model.Gun, error) {
	var gun model.Gun
	var createdAt string
	if err := rows.Scan(&gun.ID, &gun.Name, &gun.Caliber, &gun.Notes, &createdAt); err != nil {
		return model.Gun{}, err
	}
	parsed, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return model.Gun{}, err
	}
	gun.CreatedAt = parsed
	return gun, nil
}

// AddAmmo stores an ammunition type and returns it with its generated ID.
func (s *Store) AddAmmo(ctx context.Context, ammo model.Ammo) (model.Ammo, error) {
	ammo.ID = newID()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ammo (id, name, caliber, price_per_round) VALUES (?, ?, ?, ?)`,
		ammo.ID, ammo.Name, ammo.Caliber, nullFloat(ammo.PricePerRound))
	if err != nil {
		return model.Ammo{}, err
	}
	return ammo, nil
}

// ListAmmo returns all ammunition types ordered by name.
func (s *Store) ListAmmo(ctx context.Context) ([]model.Ammo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, caliber, price_per_round FROM ammo ORDER BY name COLLATE NOCASE, id`)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	var result []model.Ammo
	for rows.Next() {
		ammo, err := scanAmmo(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, ammo)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// GetAmmo returns an ammunition type by ID, or by a unique ID prefix.
func (s *Store) GetAmmo(ctx context.Context, id string) (model.Ammo, error) {
	if id == "" {
		return model.Ammo{}, fmt.Errorf("ammo id is empty: %w", ErrNotFound)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, caliber, price_per_round FROM ammo WHERE id LIKE ? ESCAPE '\' LIMIT 2`,
		likePrefix(id))
	if err != nil {
		return model.Ammo{}, err
	}
	defer closeRows(rows)

	var found []model.Ammo
	for rows.Next() {
		ammo, err := scanAmmo(rows)
		if err != nil {
			return model.Ammo{}, err
		}
		found = append(found, ammo)
	}
	if err := rows.Err(); err != nil {
		return model.Ammo{}, err
	}
	switch len(found) {
	case 0:
		return model.Ammo{}, fmt.Errorf("ammo %q: %w", id, ErrNotFound)
	case 1:
		return found[0], nil
	default:
		for _, ammo := range found {
			if ammo.ID == id {
				return ammo, nil
			}
		}
		return model.Ammo{}, fmt.Errorf("ammo id prefix %q is ambiguous", id)
	}
}

// DeleteAmmo removes an ammunition type that no session references.
func (s *Store) DeleteAmmo(ctx context.Context, id string) error {
	id, err := s.resolveID(ctx, "ammo", id)
	if err != nil {
		return err
	}
	var refs int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions WHERE ammo_id = ?`, id).Scan(&refs); err != nil {
		return err
	}
	if refs > 0 {
		return fmt.Errorf("ammo %q: %w", id, ErrInUse)
	}
	return s.deleteByID(ctx, "ammo", id)
}

func scanAmmo(rows *sql.Rows) (model.Ammo, error) {
	var ammo model.Ammo
	var price sql.NullFloat64
	if err := rows.Scan(&ammo.ID, &ammo.Name, &ammo.Caliber, &price); err != nil {
		return model.Ammo{}, err
	}
	ammo.PricePerRound = floatFromNull(price)
	return ammo, nil
}

// deleteByID deletes one row from a table with a TEXT id column. The id may be
// a unique prefix.
func (s *Store) deleteByID(ctx context.Context, table, id string) error {
	id, err := s.resolveID(ctx, table, id)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, table), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %q: %w", table, id, ErrNotFound)
	}
	return nil
}

// resolveID expands a unique id prefix to the full id.
func (s *Store) resolveID(ctx context.Context, table, id string) (string, error) {
	if id == "" {
		return "", fmt.Errorf("%s id is empty: %w", table, ErrNotFound)
	}
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT id FROM %s WHERE id LIKE ? ESCAPE '\' LIMIT 2`, table), likePrefix(id))
	if err != nil {
		return "", err
	}
	defer closeRows(rows)

	var found []string
	for rows.Next() {
		var full string
		if err := rows.Scan(&full); err != nil {
			return "", err
		}
		found = append(found, full)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	switch len(found) {
	case 0:
		return "", fmt.Errorf("%s %q: %w", table, id, ErrNotFound)
	case 1:
		return found[0], nil
	default:
		for _, full := range found {
			if full == id {
				return full, nil
			}
		}
		return "", fmt.Errorf("%s id prefix %q is ambiguous", table, id)
	}
}

func likePrefix(prefix string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(prefix) + "%"
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
