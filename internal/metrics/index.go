package metrics

import (
	"sort"
	"time"

	"github.com/verte-zerg/rangebook/internal/model"
)

// Index groups sessions and maintenance records by firearm.
// It is built once per snapshot and never mutated afterwards.
type Index struct {
	maintenance map[string][]model.MaintenanceRecord
	sessions    map[string][]model.Session
	gunIDs      []string
}

// BuildIndex groups the given records by gun ID. Maintenance records are
// ordered by date descending; sessions keep their input order.
func BuildIndex(sessions []model.Session, records []model.MaintenanceRecord) *Index {
	idx := &Index{
		maintenance: make(map[string][]model.MaintenanceRecord),
		sessions:    make(map[string][]model.Session),
	}
	seen := make(map[string]struct{})
	for _, s := range sessions {
		idx.sessions[s.GunID] = append(idx.sessions[s.GunID], s)
		seen[s.GunID] = struct{}{}
	}
	for _, r := range records {
		idx.maintenance[r.GunID] = append(idx.maintenance[r.GunID], r)
		seen[r.GunID] = struct{}{}
	}
	for _, recs := range idx.maintenance {
		sort.SliceStable(recs, func(i, j int) bool {
			return recs[i].Date.After(recs[j].Date)
		})
	}
	idx.gunIDs = make([]string, 0, len(seen))
	for id := range seen {
		idx.gunIDs = append(idx.gunIDs, id)
	}
	sort.Strings(idx.gunIDs)
	return idx
}

// GunIDs returns every gun ID that has at least one session or maintenance record.
func (idx *Index) GunIDs() []string {
	out := make([]string, len(idx.gunIDs))
	copy(out, idx.gunIDs)
	return out
}

// Maintenance returns the maintenance history of a gun, newest first.
func (idx *Index) Maintenance(gunID string) []model.MaintenanceRecord {
	return idx.maintenance[gunID]
}

// LatestMaintenance returns the most recent maintenance record of a gun.
func (idx *Index) LatestMaintenance(gunID string) (model.MaintenanceRecord, bool) {
	recs := idx.maintenance[gunID]
	if len(recs) == 0 {
		return model.MaintenanceRecord{}, false
	}
	return recs[0], true
}

// Sessions returns all sessions of a gun.
func (idx *Index) Sessions(gunID string) []model.Session {
	return idx.sessions[gunID]
}

// SessionsSince returns the sessions of a gun dated on or after the given calendar date.
func (idx *Index) SessionsSince(gunID string, since time.Time) []model.Session {
	cutoff := calendarDate(since)
	var out []model.Session
	for _, s := range idx.sessions[gunID] {
		if !calendarDate(s.Date).Before(cutoff) {
			out = append(out, s)
		}
	}
	return out
}

func sumShots(sessions []model.Session) int {
	total := 0
	for _, s := range sessions {
		total += s.Shots
	}
	return total
}

// calendarDate drops the time of day, keeping the date as written.
func calendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// daysBetween counts whole calendar days from a to b.
func daysBetween(a, b time.Time) int {
	return int(calendarDate(b).Sub(calendarDate(a)).Hours() / 24)
}
