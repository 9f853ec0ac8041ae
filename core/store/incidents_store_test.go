package store

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"incident-tracker/config"
)

func setupStore(t *testing.T) IncidentsStore {
	t.Helper()
	cfg := &config.AppConfig{
		DBDriver: "sqlite",
		DBURL:    filepath.Join(t.TempDir(), "incidents.db"),
	}
	db, dialect, err := NewDB(cfg, nil)
	if err != nil {
		t.Fatalf("db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := ApplyMigrations(context.Background(), db, dialect, nil); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	return NewIncidentsStore(db, dialect)
}

func strptr(s string) *string { return &s }

func TestCreateIncidentStampsDefaults(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()
	inc := &Incident{Title: "login outage", Service: "auth", Severity: SeveritySEV1}
	id, err := st.CreateIncident(ctx, inc)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if id <= 0 {
		t.Fatalf("expected assigned id, got %d", id)
	}
	got, err := st.GetIncident(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != StatusOpen {
		t.Fatalf("expected default status OPEN, got %s", got.Status)
	}
	if got.CreatedAt.IsZero() || !got.UpdatedAt.Equal(got.CreatedAt) {
		t.Fatalf("timestamps not stamped together: %v / %v", got.CreatedAt, got.UpdatedAt)
	}
	if got.Owner != nil || got.Summary != nil {
		t.Fatalf("expected null owner/summary, got %v / %v", got.Owner, got.Summary)
	}
}

func TestGetIncidentNotFound(t *testing.T) {
	st := setupStore(t)
	if _, err := st.GetIncident(context.Background(), 12345); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateIncidentMergePatch(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()
	created := time.Date(2025, 4, 1, 8, 30, 0, 0, time.UTC)
	inc := &Incident{
		Title:     "billing latency",
		Service:   "billing",
		Severity:  SeveritySEV2,
		Status:    StatusOpen,
		Owner:     strptr("alice"),
		Summary:   strptr("p99 spiked"),
		CreatedAt: created,
	}
	id, err := st.CreateIncident(ctx, inc)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	updated, err := st.UpdateIncident(ctx, id, IncidentPatch{Status: strptr(StatusMitigated)})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != StatusMitigated {
		t.Fatalf("status not applied: %s", updated.Status)
	}
	if updated.Title != "billing latency" || updated.Service != "billing" || updated.Severity != SeveritySEV2 {
		t.Fatalf("untouched fields changed: %+v", updated)
	}
	if updated.Owner == nil || *updated.Owner != "alice" || updated.Summary == nil || *updated.Summary != "p99 spiked" {
		t.Fatalf("nullable fields changed: %v / %v", updated.Owner, updated.Summary)
	}
	if !updated.CreatedAt.Equal(created) {
		t.Fatalf("created_at mutated: %v", updated.CreatedAt)
	}
	if !updated.UpdatedAt.After(created) {
		t.Fatalf("updated_at did not advance: %v", updated.UpdatedAt)
	}
}

func TestUpdateIncidentNotFound(t *testing.T) {
	st := setupStore(t)
	if _, err := st.UpdateIncident(context.Background(), 999, IncidentPatch{Status: strptr(StatusResolved)}); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateIncidentEmptyPatchLeavesRecord(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()
	inc := &Incident{Title: "dns flap", Service: "api-gateway", Severity: SeveritySEV3}
	id, _ := st.CreateIncident(ctx, inc)
	before, _ := st.GetIncident(ctx, id)
	after, err := st.UpdateIncident(ctx, id, IncidentPatch{})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !after.UpdatedAt.Equal(before.UpdatedAt) {
		t.Fatalf("empty patch advanced updated_at: %v -> %v", before.UpdatedAt, after.UpdatedAt)
	}
}

func seedListFixture(t *testing.T, st IncidentsStore) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2025, 4, 10, 12, 0, 0, 0, time.UTC)
	rows := []Incident{
		{Title: "auth SEV1", Service: "auth", Severity: SeveritySEV1, Status: StatusOpen, Summary: strptr("database outage in auth")},
		{Title: "auth SEV2", Service: "auth", Severity: SeveritySEV2, Status: StatusResolved},
		{Title: "billing SEV1", Service: "billing", Severity: SeveritySEV1, Status: StatusMitigated},
		{Title: "billing SEV3", Service: "billing", Severity: SeveritySEV3, Status: StatusOpen, Summary: strptr("invoices delayed")},
	}
	for i := range rows {
		rows[i].CreatedAt = base.Add(-time.Duration(i) * time.Hour)
		if _, err := st.CreateIncident(ctx, &rows[i]); err != nil {
			t.Fatalf("seed row %d: %v", i, err)
		}
	}
}

func TestListIncidentsFilterComposition(t *testing.T) {
	st := setupStore(t)
	seedListFixture(t, st)
	items, err := st.ListIncidents(context.Background(), IncidentFilter{Service: "auth", Severity: SeveritySEV1})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 || items[0].Title != "auth SEV1" {
		t.Fatalf("expected exactly the auth SEV1 incident, got %+v", items)
	}
}

func TestListIncidentsSearchIsCaseInsensitive(t *testing.T) {
	st := setupStore(t)
	seedListFixture(t, st)
	ctx := context.Background()
	items, err := st.ListIncidents(ctx, IncidentFilter{Search: "DATA"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 || items[0].Service != "auth" {
		t.Fatalf("expected the database-outage incident, got %+v", items)
	}
	// matches service names too
	items, err = st.ListIncidents(ctx, IncidentFilter{Search: "bill"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected both billing incidents, got %d", len(items))
	}
	items, err = st.ListIncidents(ctx, IncidentFilter{Search: "no-such-term"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected empty result, got %d", len(items))
	}
}

func TestListIncidentsKeysetBoundary(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()
	// three rows sharing one created_at so only the id breaks the tie
	ts := time.Date(2025, 4, 20, 9, 0, 0, 500000000, time.UTC)
	var ids []int64
	for i := 0; i < 3; i++ {
		inc := &Incident{Title: "tied", Service: "auth", Severity: SeveritySEV4, CreatedAt: ts}
		id, err := st.CreateIncident(ctx, inc)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		ids = append(ids, id)
	}
	items, err := st.ListIncidents(ctx, IncidentFilter{BeforeCreatedAt: &ts, BeforeID: ids[2]})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 rows before (ts, %d), got %d", ids[2], len(items))
	}
	if items[0].ID != ids[1] || items[1].ID != ids[0] {
		t.Fatalf("tie not broken by id desc: %d, %d", items[0].ID, items[1].ID)
	}
}

func TestRebindPostgresPlaceholders(t *testing.T) {
	pg := &incidentsStore{dialect: DialectPostgres}
	got := pg.rebind(`UPDATE incidents SET title=?, owner=? WHERE id=?`)
	want := `UPDATE incidents SET title=$1, owner=$2 WHERE id=$3`
	if got != want {
		t.Fatalf("rebind: got %q, want %q", got, want)
	}

	insert := pg.rebind(insertIncidentQuery + ` RETURNING id`)
	if strings.Contains(insert, "?") {
		t.Fatalf("postgres insert still carries ? placeholders: %q", insert)
	}
	for n := 1; n <= 8; n++ {
		if !strings.Contains(insert, fmt.Sprintf("$%d", n)) {
			t.Fatalf("postgres insert missing $%d: %q", n, insert)
		}
	}

	lite := &incidentsStore{dialect: DialectSQLite}
	query := `SELECT id FROM incidents WHERE service=? AND id<?`
	if got := lite.rebind(query); got != query {
		t.Fatalf("sqlite rebind changed query: %q", got)
	}
}

func TestApplyMigrationsRejectsUnknownDialect(t *testing.T) {
	err := ApplyMigrations(context.Background(), nil, Dialect("mysql"), nil)
	if err == nil {
		t.Fatal("expected error for unsupported dialect")
	}
}
