package incidents

import (
	"context"
	"fmt"

	"incident-tracker/config"
	"incident-tracker/core/store"
)

// Service is the listing engine: it turns filter criteria, a page-size limit
// and an optional cursor into one page of incidents plus continuation
// metadata. It keeps no state between calls.
type Service struct {
	store        store.IncidentsStore
	defaultLimit int
	maxLimit     int
}

func NewService(st store.IncidentsStore, cfg *config.AppConfig) *Service {
	return &Service{store: st, defaultLimit: cfg.DefaultLimit, maxLimit: cfg.MaxLimit}
}

type ListParams struct {
	Limit    int
	Cursor   string
	Search   string
	Service  string
	Severity string
	Status   string
}

type Page struct {
	Items      []store.Incident
	NextCursor string
	HasMore    bool
}

func (s *Service) List(ctx context.Context, p ListParams) (*Page, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = s.defaultLimit
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}
	filter := store.IncidentFilter{
		Search:   p.Search,
		Service:  p.Service,
		Severity: p.Severity,
		Status:   p.Status,
		// one lookahead row to detect a further page without counting
		Limit: limit + 1,
	}
	if p.Cursor != "" {
		cur, err := DecodeCursor(p.Cursor)
		if err != nil {
			return nil, err
		}
		ts := cur.CreatedAt
		filter.BeforeCreatedAt = &ts
		filter.BeforeID = cur.ID
	}
	items, err := s.store.ListIncidents(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list incidents: %w", err)
	}
	page := &Page{Items: items}
	if len(items) > limit {
		last := items[limit-1]
		page.HasMore = true
		page.NextCursor = EncodeCursor(Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		page.Items = items[:limit]
	}
	return page, nil
}
