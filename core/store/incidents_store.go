package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var ErrNotFound = errors.New("not found")

const (
	SeveritySEV1 = "SEV1"
	SeveritySEV2 = "SEV2"
	SeveritySEV3 = "SEV3"
	SeveritySEV4 = "SEV4"

	StatusOpen      = "OPEN"
	StatusMitigated = "MITIGATED"
	StatusResolved  = "RESOLVED"
)

type Incident struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Service   string    `json:"service"`
	Severity  string    `json:"severity"`
	Status    string    `json:"status"`
	Owner     *string   `json:"owner"`
	Summary   *string   `json:"summary"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IncidentPatch carries a merge-patch: nil fields are left untouched.
type IncidentPatch struct {
	Title    *string
	Service  *string
	Severity *string
	Status   *string
	Owner    *string
	Summary  *string
}

func (p IncidentPatch) Empty() bool {
	return p.Title == nil && p.Service == nil && p.Severity == nil &&
		p.Status == nil && p.Owner == nil && p.Summary == nil
}

type IncidentFilter struct {
	Search   string
	Service  string
	Severity string
	Status   string
	// Keyset boundary under (created_at DESC, id DESC): only rows strictly
	// earlier than this position are returned.
	BeforeCreatedAt *time.Time
	BeforeID        int64
	Limit           int
}

type IncidentsStore interface {
	CreateIncident(ctx context.Context, incident *Incident) (int64, error)
	GetIncident(ctx context.Context, id int64) (*Incident, error)
	UpdateIncident(ctx context.Context, id int64, patch IncidentPatch) (*Incident, error)
	ListIncidents(ctx context.Context, filter IncidentFilter) ([]Incident, error)
}

type incidentsStore struct {
	db      *sql.DB
	dialect Dialect
}

func NewIncidentsStore(db *sql.DB, dialect Dialect) IncidentsStore {
	return &incidentsStore{db: db, dialect: dialect}
}

// rebind rewrites `?` placeholders to `$N` for postgres; the pgx stdlib
// driver passes query text to the server unmodified.
func (s *incidentsStore) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

const insertIncidentQuery = `
	INSERT INTO incidents(title, service, severity, status, owner, summary, created_at, updated_at)
	VALUES(?,?,?,?,?,?,?,?)`

func (s *incidentsStore) CreateIncident(ctx context.Context, incident *Incident) (int64, error) {
	if strings.TrimSpace(incident.Status) == "" {
		incident.Status = StatusOpen
	}
	now := time.Now().UTC()
	if incident.CreatedAt.IsZero() {
		incident.CreatedAt = now
	}
	if incident.UpdatedAt.IsZero() {
		incident.UpdatedAt = incident.CreatedAt
	}
	args := []any{incident.Title, incident.Service, incident.Severity, incident.Status, nullableText(incident.Owner), nullableText(incident.Summary), incident.CreatedAt, incident.UpdatedAt}
	if s.dialect == DialectPostgres {
		// pgx does not support LastInsertId; read the id back instead.
		var id int64
		if err := s.db.QueryRowContext(ctx, s.rebind(insertIncidentQuery+` RETURNING id`), args...).Scan(&id); err != nil {
			return 0, err
		}
		incident.ID = id
		return id, nil
	}
	res, err := s.db.ExecContext(ctx, insertIncidentQuery, args...)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	incident.ID = id
	return id, nil
}

func (s *incidentsStore) GetIncident(ctx context.Context, id int64) (*Incident, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT id, title, service, severity, status, owner, summary, created_at, updated_at
		FROM incidents WHERE id=?`), id)
	return scanIncident(row)
}

func (s *incidentsStore) UpdateIncident(ctx context.Context, id int64, patch IncidentPatch) (*Incident, error) {
	if patch.Empty() {
		return s.GetIncident(ctx, id)
	}
	var sets []string
	var args []any
	set := func(col string, val any) {
		sets = append(sets, col+"=?")
		args = append(args, val)
	}
	if patch.Title != nil {
		set("title", *patch.Title)
	}
	if patch.Service != nil {
		set("service", *patch.Service)
	}
	if patch.Severity != nil {
		set("severity", *patch.Severity)
	}
	if patch.Status != nil {
		set("status", *patch.Status)
	}
	if patch.Owner != nil {
		set("owner", nullableText(patch.Owner))
	}
	if patch.Summary != nil {
		set("summary", nullableText(patch.Summary))
	}
	set("updated_at", time.Now().UTC())
	args = append(args, id)
	res, err := s.db.ExecContext(ctx, s.rebind(`UPDATE incidents SET `+strings.Join(sets, ", ")+` WHERE id=?`), args...)
	if err != nil {
		return nil, err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return nil, ErrNotFound
	}
	return s.GetIncident(ctx, id)
}

func (s *incidentsStore) ListIncidents(ctx context.Context, filter IncidentFilter) ([]Incident, error) {
	var clauses []string
	var args []any
	if filter.Service != "" {
		clauses = append(clauses, "service=?")
		args = append(args, filter.Service)
	}
	if filter.Severity != "" {
		clauses = append(clauses, "severity=?")
		args = append(args, filter.Severity)
	}
	if filter.Status != "" {
		clauses = append(clauses, "status=?")
		args = append(args, filter.Status)
	}
	if filter.Search != "" {
		// LOWER on both sides keeps the match case-insensitive on
		// postgres as well as sqlite.
		q := "%" + strings.ToLower(filter.Search) + "%"
		clauses = append(clauses, "(LOWER(title) LIKE ? OR LOWER(COALESCE(summary,'')) LIKE ? OR LOWER(service) LIKE ?)")
		args = append(args, q, q, q)
	}
	if filter.BeforeCreatedAt != nil {
		clauses = append(clauses, "(created_at < ? OR (created_at = ? AND id < ?))")
		args = append(args, *filter.BeforeCreatedAt, *filter.BeforeCreatedAt, filter.BeforeID)
	}
	query := `SELECT id, title, service, severity, status, owner, summary, created_at, updated_at FROM incidents`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Incident
	for rows.Next() {
		incident, err := scanIncidentRow(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, incident)
	}
	return res, rows.Err()
}

func scanIncident(row *sql.Row) (*Incident, error) {
	var inc Incident
	var owner, summary sql.NullString
	err := row.Scan(&inc.ID, &inc.Title, &inc.Service, &inc.Severity, &inc.Status, &owner, &summary, &inc.CreatedAt, &inc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	inc.Owner = textPtr(owner)
	inc.Summary = textPtr(summary)
	inc.CreatedAt = inc.CreatedAt.UTC()
	inc.UpdatedAt = inc.UpdatedAt.UTC()
	return &inc, nil
}

func scanIncidentRow(rows *sql.Rows) (Incident, error) {
	var inc Incident
	var owner, summary sql.NullString
	if err := rows.Scan(&inc.ID, &inc.Title, &inc.Service, &inc.Severity, &inc.Status, &owner, &summary, &inc.CreatedAt, &inc.UpdatedAt); err != nil {
		return Incident{}, err
	}
	inc.Owner = textPtr(owner)
	inc.Summary = textPtr(summary)
	inc.CreatedAt = inc.CreatedAt.UTC()
	inc.UpdatedAt = inc.UpdatedAt.UTC()
	return inc, nil
}

func nullableText(val *string) any {
	if val == nil || strings.TrimSpace(*val) == "" {
		return nil
	}
	return *val
}

func textPtr(val sql.NullString) *string {
	if !val.Valid {
		return nil
	}
	s := val.String
	return &s
}
