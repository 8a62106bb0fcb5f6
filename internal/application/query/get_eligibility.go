// Package query contains read operations (CQRS - Queries).
// Queries never mutate state; they feed the dashboard and history views.
package query

import (
	"context"
	"time"

	"github.com/pem-hub/pem-payments-hub/internal/domain/participant"
	"github.com/pem-hub/pem-payments-hub/pkg/logger"
	"github.com/pem-hub/pem-payments-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// ELIGIBILITY DASHBOARD QUERY
// Evaluates the alert rules over the full registry. The evaluation itself is
// O(1) per participant; the assembled snapshot is cached so repeated
// dashboard renders do not hit the store.
// ══════════════════════════════════════════════════════════════════════════════

// ParticipantAlert pairs a participant with its computed eligibility alert.
type ParticipantAlert struct {
	ParticipantID string               `json:"participant_id"`
	FullName      string               `json:"full_name"`
	NationalID    string               `json:"national_id"`
	Program       participant.Program  `json:"program"`
	Status        participant.Status   `json:"status"`
	PaymentCount  int                  `json:"payment_count"`
	Severity      participant.Severity `json:"severity"`
	Label         string               `json:"label"`
}

// EligibilitySnapshot is the full dashboard view.
type EligibilitySnapshot struct {
	GeneratedAt time.Time          `json:"generated_at"`
	Alerts      []ParticipantAlert `json:"alerts"`

	// Totals per severity, for the dashboard header.
	Severe  int `json:"severe"`
	Warning int `json:"warning"`
	Normal  int `json:"normal"`
}

// SnapshotCache caches assembled snapshots. Implemented over Redis.
type SnapshotCache interface {
	// Get returns the cached snapshot for the program key, or a cache miss error.
	Get(ctx context.Context, key string) (*EligibilitySnapshot, error)

	// Set stores a snapshot with a TTL.
	Set(ctx context.Context, key string, snapshot *EligibilitySnapshot, ttl time.Duration) error

	// Invalidate drops the cached snapshots (called after a reconciliation).
	Invalidate(ctx context.Context) error
}

// GetEligibilityQuery selects the registry slice to evaluate.
type GetEligibilityQuery struct {
	// Program filters by program; empty evaluates the full registry.
	Program participant.Program

	// SkipCache forces a fresh evaluation.
	SkipCache bool
}

// GetEligibilityHandler handles the query.
type GetEligibilityHandler struct {
	participants participant.Repository
	cache        SnapshotCache
	cacheTTL     time.Duration
	log          *logger.Logger
}

// NewGetEligibilityHandler creates the handler. cache may be nil.
func NewGetEligibilityHandler(participants participant.Repository, cache SnapshotCache, cacheTTL time.Duration, log *logger.Logger) *GetEligibilityHandler {
	if log == nil {
		log = logger.Default()
	}
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}
	return &GetEligibilityHandler{
		participants: participants,
		cache:        cache,
		cacheTTL:     cacheTTL,
		log:          log.With(logger.Component("eligibility")),
	}
}

// Handle returns the dashboard snapshot, from cache when possible.
func (h *GetEligibilityHandler) Handle(ctx context.Context, q GetEligibilityQuery) (*EligibilitySnapshot, error) {
	key := "all"
	if q.Program != "" {
		key = q.Program.String()
	}

	if h.cache != nil && !q.SkipCache {
		if snapshot, err := h.cache.Get(ctx, key); err == nil {
			return snapshot, nil
		}
	}

	var (
		registry []*participant.Participant
		err      error
	)
	if q.Program != "" {
		registry, err = h.participants.GetByProgram(ctx, q.Program)
	} else {
		registry, err = h.participants.GetAll(ctx)
	}
	if err != nil {
		return nil, err
	}

	now := timeutil.Now()
	snapshot := &EligibilitySnapshot{
		GeneratedAt: now,
		Alerts:      make([]ParticipantAlert, 0, len(registry)),
	}

	for _, p := range registry {
		alert := participant.Eligibility(p, now)
		snapshot.Alerts = append(snapshot.Alerts, ParticipantAlert{
			ParticipantID: p.ID,
			FullName:      p.FullName,
			NationalID:    p.NationalID.String(),
			Program:       p.Program,
			Status:        p.Status,
			PaymentCount:  p.PaymentCount,
			Severity:      alert.Severity,
			Label:         alert.Label,
		})
		switch alert.Severity {
		case participant.SeveritySevere:
			snapshot.Severe++
		case participant.SeverityWarning:
			snapshot.Warning++
		default:
			snapshot.Normal++
		}
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, key, snapshot, h.cacheTTL); err != nil {
			h.log.Warn("no se pudo cachear el tablero", logger.Err(err))
		}
	}
	return snapshot, nil
}
