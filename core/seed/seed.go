package seed

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"incident-tracker/core/store"
	"incident-tracker/core/utils"
)

var services = []string{"auth", "billing", "data-pipeline", "api-gateway", "notifications"}

var owners = []string{"alice", "bob", "carol", "dave", "eve", ""}

var severities = []string{store.SeveritySEV1, store.SeveritySEV2, store.SeveritySEV3, store.SeveritySEV4}

var statuses = []string{store.StatusOpen, store.StatusMitigated, store.StatusResolved}

// Incidents inserts count randomized demo incidents with creation times
// spread over the last 120 days.
func Incidents(ctx context.Context, st store.IncidentsStore, count int, logger *utils.Logger) error {
	for i := 0; i < count; i++ {
		createdAt := randomTimeWithinDays(120)
		severity := severities[rand.Intn(len(severities))]
		service := services[rand.Intn(len(services))]
		summary := fmt.Sprintf("Auto-generated incident %d for service %s.", i+1, service)
		inc := &store.Incident{
			Title:     fmt.Sprintf("%s incident in %s #%d", severity, service, i+1),
			Service:   service,
			Severity:  severity,
			Status:    statuses[rand.Intn(len(statuses))],
			Summary:   &summary,
			CreatedAt: createdAt,
			UpdatedAt: createdAt.Add(time.Duration(rand.Intn(73)) * time.Hour),
		}
		if owner := owners[rand.Intn(len(owners))]; owner != "" {
			inc.Owner = &owner
		}
		if _, err := st.CreateIncident(ctx, inc); err != nil {
			return fmt.Errorf("seed incident %d: %w", i+1, err)
		}
	}
	if logger != nil {
		logger.Printf("seeded %d incidents", count)
	}
	return nil
}

func randomTimeWithinDays(days int) time.Time {
	now := time.Now().UTC()
	delta := time.Duration(rand.Intn(days+1))*24*time.Hour +
		time.Duration(rand.Intn(24))*time.Hour +
		time.Duration(rand.Intn(60))*time.Minute
	return now.Add(-delta)
}
