package pricing

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pem-hub/pem-payments-hub/internal/domain/participant"
	"github.com/pem-hub/pem-payments-hub/internal/domain/shared"
)

type fakeConfigRepo struct {
	configs []*Configuration
	err     error
	calls   int
}

func (r *fakeConfigRepo) Create(ctx context.Context, cfg *Configuration) error { return nil }
func (r *fakeConfigRepo) Update(ctx context.Context, cfg *Configuration) error { return nil }
func (r *fakeConfigRepo) GetByID(ctx context.Context, id string) (*Configuration, error) {
	return nil, shared.ErrConfigurationNotFound
}

func (r *fakeConfigRepo) GetAll(ctx context.Context) ([]*Configuration, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return r.configs, nil
}

func config(id string, month, year int, current bool) *Configuration {
	return &Configuration{
		ID:              id,
		EffectivePeriod: shared.Period{Month: month, Year: year},
		ProgramAmounts: map[participant.Program]decimal.Decimal{
			participant.ProgramPromover: decimal.RequireFromString("78000"),
		},
		IsCurrent: current,
	}
}

func TestResolvePicksMostRecentApplicable(t *testing.T) {
	repo := &fakeConfigRepo{configs: []*Configuration{
		config("a", 3, 2024, false),
		config("b", 1, 2025, true),
	}}
	resolver := NewResolver(repo)

	// Entre ambas vigencias rige la más vieja
	cfg, err := resolver.Resolve(context.Background(), shared.Period{Month: 6, Year: 2024})
	require.NoError(t, err)
	assert.Equal(t, "a", cfg.ID)

	// Desde 01/2025 rige la nueva
	cfg, err = resolver.Resolve(context.Background(), shared.Period{Month: 1, Year: 2025})
	require.NoError(t, err)
	assert.Equal(t, "b", cfg.ID)

	// Mucho después sigue rigiendo la última
	cfg, err = resolver.Resolve(context.Background(), shared.Period{Month: 12, Year: 2026})
	require.NoError(t, err)
	assert.Equal(t, "b", cfg.ID)
}

func TestResolveBeforeAnyConfiguration(t *testing.T) {
	repo := &fakeConfigRepo{configs: []*Configuration{
		config("a", 3, 2024, true),
	}}
	resolver := NewResolver(repo)

	_, err := resolver.Resolve(context.Background(), shared.Period{Month: 2, Year: 2024})
	assert.ErrorIs(t, err, shared.ErrConfigurationNotFound)
}

func TestResolveEmptyRepository(t *testing.T) {
	resolver := NewResolver(&fakeConfigRepo{})

	_, err := resolver.Resolve(context.Background(), shared.Period{Month: 6, Year: 2024})
	assert.ErrorIs(t, err, shared.ErrConfigurationNotFound)
}

func TestResolveExactEffectivePeriodApplies(t *testing.T) {
	repo := &fakeConfigRepo{configs: []*Configuration{
		config("a", 3, 2024, true),
	}}
	resolver := NewResolver(repo)

	cfg, err := resolver.Resolve(context.Background(), shared.Period{Month: 3, Year: 2024})
	require.NoError(t, err)
	assert.Equal(t, "a", cfg.ID)
}

func TestResolverLoadsOnceAndRefreshesOnDemand(t *testing.T) {
	repo := &fakeConfigRepo{configs: []*Configuration{
		config("a", 3, 2024, true),
	}}
	resolver := NewResolver(repo)

	_, err := resolver.Resolve(context.Background(), shared.Period{Month: 6, Year: 2024})
	require.NoError(t, err)
	_, err = resolver.Resolve(context.Background(), shared.Period{Month: 7, Year: 2024})
	require.NoError(t, err)
	assert.Equal(t, 1, repo.calls)

	repo.configs = append(repo.configs, config("b", 7, 2024, false))
	require.NoError(t, resolver.Refresh(context.Background()))
	assert.Equal(t, 2, repo.calls)

	cfg, err := resolver.Resolve(context.Background(), shared.Period{Month: 7, Year: 2024})
	require.NoError(t, err)
	assert.Equal(t, "b", cfg.ID)
}

func TestCurrent(t *testing.T) {
	repo := &fakeConfigRepo{configs: []*Configuration{
		config("a", 3, 2024, false),
		config("b", 1, 2025, true),
	}}
	resolver := NewResolver(repo)

	cfg, err := resolver.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "b", cfg.ID)
}

func TestConfigurationValidate(t *testing.T) {
	cfg := config("a", 3, 2024, true)
	assert.NoError(t, cfg.Validate())

	cfg.ProgramAmounts = nil
	assert.ErrorIs(t, cfg.Validate(), shared.ErrEmptyValue)

	cfg = config("a", 13, 2024, true)
	assert.ErrorIs(t, cfg.Validate(), shared.ErrInvalidPeriod)
}
