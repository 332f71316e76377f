package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/rangebook/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "rangebook.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func day(s string) time.Time {
	parsed, err := time.Parse(model.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return parsed
}

func seedCatalog(t *testing.T, st *Store) (model.Gun, model.Ammo) {
	t.Helper()
	ctx := context.Background()
	gun, err := st.AddGun(ctx, model.Gun{Name: "CZ 75", Caliber: "9mm"})
	if err != nil {
		t.Fatalf("add gun: %v", err)
	}
	price := 1.6
	ammo, err := st.AddAmmo(ctx, model.Ammo{Name: "S&B FMJ", Caliber: "9mm", PricePerRound: &price})
	if err != nil {
		t.Fatalf("add ammo: %v", err)
	}
	return gun, ammo
}

func TestCatalogRoundTrip(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	gun, ammo := seedCatalog(t, st)

	got, err := st.GetGun(ctx, gun.ID[:8])
	if err != nil {
		t.Fatalf("get gun by prefix: %v", err)
	}
	if got.ID != gun.ID || got.Name != "CZ 75" {
		t.Fatalf("unexpected gun: %+v", got)
	}
	gotAmmo, err := st.GetAmmo(ctx, ammo.ID)
	if err != nil {
		t.Fatalf("get ammo: %v", err)
	}
	if gotAmmo.PricePerRound == nil || *gotAmmo.PricePerRound != 1.6 {
		t.Fatalf("unexpected price: %v", gotAmmo.PricePerRound)
	}
	if _, err := st.GetGun(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := st.GetGun(ctx, ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for empty id, got %v", err)
	}
}

func TestDeleteReferencedGunFails(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	gun, ammo := seedCatalog(t, st)

	if _, err := st.AddSession(ctx, model.Session{GunID: gun.ID, AmmoID: ammo.ID, Date: day("2026-01-10"), Shots: 50}); err != nil {
		t.Fatalf("add session: %v", err)
	}
	if err := st.DeleteGun(ctx, gun.ID); !errors.Is(err, ErrInUse) {
		t.Fatalf("expected ErrInUse, got %v", err)
	}
	if err := st.DeleteAmmo(ctx, ammo.ID); !errors.Is(err, ErrInUse) {
		t.Fatalf("expected ErrInUse, got %v", err)
	}
	if err := st.DeleteSession(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListSessionsFilters(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	gun, ammo := seedCatalog(t, st)
	other, err := st.AddGun(ctx, model.Gun{Name: "Glock 17", Caliber: "9mm"})
	if err != nil {
		t.Fatalf("add gun: %v", err)
	}

	hits := 40
	group := 6.5
	dates := []string{"2026-01-05", "2026-02-10", "2026-03-15"}
	for _, d := range dates {
		if _, err := st.AddSession(ctx, model.Session{
			GunID: gun.ID, AmmoID: ammo.ID, Date: day(d), Shots: 50, Hits: &hits, GroupCM: &group,
		}); err != nil {
			t.Fatalf("add session: %v", err)
		}
	}
	if _, err := st.AddSession(ctx, model.Session{GunID: other.ID, AmmoID: ammo.ID, Date: day("2026-02-01"), Shots: 20}); err != nil {
		t.Fatalf("add session: %v", err)
	}

	all, err := st.ListSessions(ctx, model.SessionFilter{})
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 sessions, got %d", len(all))
	}
	if !all[0].Date.Equal(day("2026-03-15")) {
		t.Fatalf("expected newest first, got %v", all[0].Date)
	}

	since := day("2026-02-01")
	filtered, err := st.ListSessions(ctx, model.SessionFilter{GunID: gun.ID, Since: &since})
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(filtered) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(filtered))
	}
	if filtered[0].Hits == nil || *filtered[0].Hits != 40 || filtered[0].DistanceM != nil {
		t.Fatalf("unexpected nullable fields: %+v", filtered[0])
	}

	page, err := st.ListSessions(ctx, model.SessionFilter{Limit: 2, Offset: 1})
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(page) != 2 || !page[0].Date.Equal(day("2026-02-10")) {
		t.Fatalf("unexpected page: %+v", page)
	}
	rest, err := st.ListSessions(ctx, model.SessionFilter{Offset: 3})
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(rest) != 1 {
		t.Fatalf("expected 1 session after offset, got %d", len(rest))
	}
}

func TestMaintenanceRoundTrip(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	gun, _ := seedCatalog(t, st)

	notes := "replaced recoil spring"
	if _, err := st.AddMaintenance(ctx, model.MaintenanceRecord{
		GunID: gun.ID, Date: day("2026-01-01"), Activities: []string{"clean", "lube"}, Notes: &notes,
	}); err != nil {
		t.Fatalf("add maintenance: %v", err)
	}
	if _, err := st.AddMaintenance(ctx, model.MaintenanceRecord{GunID: gun.ID, Date: day("2026-03-01")}); err != nil {
		t.Fatalf("add maintenance: %v", err)
	}
	recs, err := st.ListMaintenance(ctx, gun.ID)
	if err != nil {
		t.Fatalf("list maintenance: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if !recs[0].Date.Equal(day("2026-03-01")) || len(recs[0].Activities) != 0 || recs[0].Notes != nil {
		t.Fatalf("unexpected newest record: %+v", recs[0])
	}
	if len(recs[1].Activities) != 2 || recs[1].Activities[1] != "lube" {
		t.Fatalf("unexpected activities: %v", recs[1].Activities)
	}
	if recs[1].Notes == nil || *recs[1].Notes != notes {
		t.Fatalf("unexpected notes: %v", recs[1].Notes)
	}
	if err := st.DeleteGun(ctx, gun.ID); !errors.Is(err, ErrInUse) {
		t.Fatalf("expected ErrInUse with maintenance history, got %v", err)
	}
}

func TestRatesAndPreferences(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	if err := st.ReplaceRates(ctx, []model.Rate{{Code: "EUR", Rate: 4.3}, {Code: "usd", Rate: 3.9}}); err != nil {
		t.Fatalf("replace rates: %v", err)
	}
	if err := st.SetRate(ctx, "eur", 4.25); err != nil {
		t.Fatalf("set rate: %v", err)
	}
	rates, err := st.ListRates(ctx)
	if err != nil {
		t.Fatalf("list rates: %v", err)
	}
	if len(rates) != 2 || rates[0].Code != "eur" || rates[0].Rate != 4.25 {
		t.Fatalf("unexpected rates: %+v", rates)
	}
	if err := st.ReplaceRates(ctx, []model.Rate{{Code: "gbp", Rate: 5}}); err != nil {
		t.Fatalf("replace rates: %v", err)
	}
	rates, err = st.ListRates(ctx)
	if err != nil {
		t.Fatalf("list rates: %v", err)
	}
	if len(rates) != 1 || rates[0].Code != "gbp" {
		t.Fatalf("expected replaced table, got %+v", rates)
	}

	if _, err := st.GetPreferences(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	want := model.Preferences{RoundsLimit: 300, DaysLimit: 60, DisplayCurrency: "eur"}
	if err := st.SavePreferences(ctx, model.Preferences{RoundsLimit: 300, DaysLimit: 60, DisplayCurrency: "EUR"}); err != nil {
		t.Fatalf("save preferences: %v", err)
	}
	got, err := st.GetPreferences(ctx)
	if err != nil {
		t.Fatalf("get preferences: %v", err)
	}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestDeleteByPrefix(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	gun, ammo := seedCatalog(t, st)

	session, err := st.AddSession(ctx, model.Session{GunID: gun.ID, AmmoID: ammo.ID, Date: day("2026-01-10"), Shots: 50})
	if err != nil {
		t.Fatalf("add session: %v", err)
	}
	if err := st.DeleteSession(ctx, session.ID[:8]); err != nil {
		t.Fatalf("delete session by prefix: %v", err)
	}
	if err := st.DeleteAmmo(ctx, ammo.ID[:8]); err != nil {
		t.Fatalf("delete ammo by prefix: %v", err)
	}
	if err := st.DeleteGun(ctx, gun.ID[:8]); err != nil {
		t.Fatalf("delete gun by prefix: %v", err)
	}
	guns, err := st.ListGuns(ctx)
	if err != nil {
		t.Fatalf("list guns: %v", err)
	}
	if len(guns) != 0 {
		t.Fatalf("expected no guns, got %d", len(guns))
	}
	if err := st.DeleteGun(ctx, ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for empty id, got %v", err)
	}
}
