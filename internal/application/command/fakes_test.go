package command

import (
	"context"
	"io"
	"sync"

	"github.com/pem-hub/pem-payments-hub/internal/domain/participant"
	"github.com/pem-hub/pem-payments-hub/internal/domain/payment"
	"github.com/pem-hub/pem-payments-hub/internal/domain/pricing"
	"github.com/pem-hub/pem-payments-hub/internal/domain/shared"
	"github.com/pem-hub/pem-payments-hub/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{Output: io.Discard, Level: logger.LevelFatal})
}

// ── padrón en memoria ────────────────────────────────────────────────────────

type fakeParticipantRepo struct {
	mu           sync.Mutex
	participants map[string]*participant.Participant
	getErr       error
}

func newFakeParticipantRepo(ps ...*participant.Participant) *fakeParticipantRepo {
	r := &fakeParticipantRepo{participants: map[string]*participant.Participant{}}
	for _, p := range ps {
		r.participants[p.ID] = p
	}
	return r
}

func (r *fakeParticipantRepo) Create(ctx context.Context, p *participant.Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.participants {
		if existing.NationalID == p.NationalID {
			return shared.ErrParticipantAlreadyExists
		}
	}
	r.participants[p.ID] = p
	return nil
}

func (r *fakeParticipantRepo) GetByID(ctx context.Context, id string) (*participant.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.participants[id]
	if !ok {
		return nil, shared.ErrParticipantNotFound
	}
	return p, nil
}

func (r *fakeParticipantRepo) GetByNationalID(ctx context.Context, nationalID shared.NationalID) (*participant.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.participants {
		if p.NationalID == nationalID {
			return p, nil
		}
	}
	return nil, shared.ErrParticipantNotFound
}

func (r *fakeParticipantRepo) Update(ctx context.Context, p *participant.Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.participants[p.ID]; !ok {
		return shared.ErrParticipantNotFound
	}
	r.participants[p.ID] = p
	return nil
}

func (r *fakeParticipantRepo) GetByProgram(ctx context.Context, program participant.Program) ([]*participant.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	var out []*participant.Participant
	for _, p := range r.participants {
		if p.Program == program {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeParticipantRepo) GetAll(ctx context.Context) ([]*participant.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*participant.Participant, 0, len(r.participants))
	for _, p := range r.participants {
		out = append(out, p)
	}
	return out, nil
}

func (r *fakeParticipantRepo) CountByProgram(ctx context.Context, program participant.Program) (int, error) {
	ps, _ := r.GetByProgram(ctx, program)
	return len(ps), nil
}

func (r *fakeParticipantRepo) ExistsByNationalID(ctx context.Context, nationalID shared.NationalID) (bool, error) {
	_, err := r.GetByNationalID(ctx, nationalID)
	if err != nil {
		return false, nil
	}
	return true, nil
}

// ── libro de pagos en memoria ────────────────────────────────────────────────

type fakePaymentRepo struct {
	records []*payment.Record
	err     error
}

func (r *fakePaymentRepo) GetByPeriodProgram(ctx context.Context, period shared.Period, program participant.Program) ([]*payment.Record, error) {
	var out []*payment.Record
	for _, rec := range r.records {
		if rec.Period.Equal(period) && rec.Program == program {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *fakePaymentRepo) GetPaidNationalIDs(ctx context.Context, period shared.Period, program participant.Program) (map[shared.NationalID]struct{}, error) {
	if r.err != nil {
		return nil, r.err
	}
	out := map[shared.NationalID]struct{}{}
	for _, rec := range r.records {
		if rec.Period.Equal(period) && rec.Program == program {
			out[rec.NationalID] = struct{}{}
		}
	}
	return out, nil
}

func (r *fakePaymentRepo) GetByUpload(ctx context.Context, uploadID string) ([]*payment.Record, error) {
	var out []*payment.Record
	for _, rec := range r.records {
		if rec.UploadID == uploadID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *fakePaymentRepo) GetByParticipant(ctx context.Context, participantID string) ([]*payment.Record, error) {
	var out []*payment.Record
	for _, rec := range r.records {
		if rec.ParticipantID == participantID {
			out = append(out, rec)
		}
	}
	return out, nil
}

// ── escritor de lotes en memoria ─────────────────────────────────────────────

type fakeBatchWriter struct {
	mu        sync.Mutex
	maxOps    int
	commits   []*payment.CommitBatch
	reversals []*payment.ReversalBatch

	// failAtChunk hace fallar el commit número N (base 1). 0 = nunca.
	failAtChunk int
	commitErr   error
}

func (w *fakeBatchWriter) MaxBatchOps() int { return w.maxOps }

func (w *fakeBatchWriter) Commit(ctx context.Context, batch *payment.CommitBatch) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.failAtChunk > 0 && len(w.commits)+1 == w.failAtChunk {
		if w.commitErr != nil {
			return w.commitErr
		}
		return shared.ErrBatchRejected
	}
	w.commits = append(w.commits, batch)
	return nil
}

func (w *fakeBatchWriter) Reverse(ctx context.Context, batch *payment.ReversalBatch) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.commitErr != nil {
		return w.commitErr
	}
	w.reversals = append(w.reversals, batch)
	return nil
}

func (w *fakeBatchWriter) totalPayments() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := 0
	for _, b := range w.commits {
		n += len(b.Payments)
	}
	return n
}

// ── historial y novedades en memoria ─────────────────────────────────────────

type fakeUploadRepo struct {
	uploads map[string]*payment.Upload
}

func (r *fakeUploadRepo) GetByID(ctx context.Context, id string) (*payment.Upload, error) {
	u, ok := r.uploads[id]
	if !ok {
		return nil, shared.ErrUploadNotFound
	}
	return u, nil
}

func (r *fakeUploadRepo) GetByPeriodProgram(ctx context.Context, period shared.Period, program participant.Program) ([]*payment.Upload, error) {
	var out []*payment.Upload
	for _, u := range r.uploads {
		if u.Period.Equal(period) && u.Program == program {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *fakeUploadRepo) List(ctx context.Context, limit int) ([]*payment.Upload, error) {
	var out []*payment.Upload
	for _, u := range r.uploads {
		out = append(out, u)
	}
	return out, nil
}

type fakeNoveltyRepo struct {
	novelties []*payment.Novelty
}

func (r *fakeNoveltyRepo) GetByParticipant(ctx context.Context, participantID string) ([]*payment.Novelty, error) {
	var out []*payment.Novelty
	for _, n := range r.novelties {
		if n.ParticipantID == participantID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *fakeNoveltyRepo) GetByPeriodProgram(ctx context.Context, period shared.Period, program participant.Program, noveltyType payment.NoveltyType) ([]*payment.Novelty, error) {
	var out []*payment.Novelty
	for _, n := range r.novelties {
		if !n.Period.Equal(period) || n.Program != program {
			continue
		}
		if noveltyType != "" && n.Type != noveltyType {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (r *fakeNoveltyRepo) Append(ctx context.Context, n *payment.Novelty) error {
	r.novelties = append(r.novelties, n)
	return nil
}

// ── configuraciones en memoria ───────────────────────────────────────────────

type fakePricingRepo struct {
	configs []*pricing.Configuration
}

func (r *fakePricingRepo) Create(ctx context.Context, cfg *pricing.Configuration) error {
	for _, existing := range r.configs {
		if existing.EffectivePeriod.Equal(cfg.EffectivePeriod) {
			return shared.ErrConfigurationExists
		}
	}
	if cfg.IsCurrent {
		for _, existing := range r.configs {
			existing.IsCurrent = false
		}
	}
	r.configs = append(r.configs, cfg)
	return nil
}

func (r *fakePricingRepo) Update(ctx context.Context, cfg *pricing.Configuration) error {
	for i, existing := range r.configs {
		if existing.ID == cfg.ID {
			r.configs[i] = cfg
			return nil
		}
	}
	return shared.ErrConfigurationNotFound
}

func (r *fakePricingRepo) GetByID(ctx context.Context, id string) (*pricing.Configuration, error) {
	for _, cfg := range r.configs {
		if cfg.ID == id {
			return cfg, nil
		}
	}
	return nil, shared.ErrConfigurationNotFound
}

func (r *fakePricingRepo) GetAll(ctx context.Context) ([]*pricing.Configuration, error) {
	return r.configs, nil
}

// ── publicador que captura eventos ───────────────────────────────────────────

type capturingPublisher struct {
	mu     sync.Mutex
	events []shared.Event
}

func (p *capturingPublisher) Publish(event shared.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *capturingPublisher) byType(t shared.EventType) []shared.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []shared.Event
	for _, e := range p.events {
		if e.EventType() == t {
			out = append(out, e)
		}
	}
	return out
}
