package core

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auto-dns/sysav-sync/internal/config"
	"github.com/auto-dns/sysav-sync/internal/domain"
	"github.com/auto-dns/sysav-sync/internal/sensor"
	"github.com/auto-dns/sysav-sync/internal/state"
)

type fakeFetcher struct {
	mu       sync.Mutex
	schedule *domain.Schedule
	err      error
	calls    int
}

func (f *fakeFetcher) FetchNext(context.Context, domain.Address) (*domain.Schedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.schedule, f.err
}

func (f *fakeFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeRegistry struct {
	mu         sync.Mutex
	states     map[string]*domain.SensorState
	publishes  int
	lockedKeys [][]string
	lockErr    error
	listErr    error
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{states: map[string]*domain.SensorState{}}
}

func (r *fakeRegistry) LockTransaction(_ context.Context, keys []string, fn func() error) error {
	r.mu.Lock()
	r.lockedKeys = append(r.lockedKeys, keys)
	lockErr := r.lockErr
	r.mu.Unlock()
	if lockErr != nil {
		return lockErr
	}
	return fn()
}

func (r *fakeRegistry) List(_ context.Context, addressID string) ([]*domain.SensorState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []*domain.SensorState
	for _, s := range r.states {
		if s.AddressID == addressID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CategoryKey < out[j].CategoryKey })
	return out, nil
}

func (r *fakeRegistry) Publish(_ context.Context, s *domain.SensorState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.publishes++
	r.states[s.Key()] = s
	return nil
}

func (r *fakeRegistry) Remove(_ context.Context, s *domain.SensorState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.states, s.Key())
	return nil
}

func (r *fakeRegistry) get(key string) *domain.SensorState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.states[key]
}

var engineAddress = domain.Address{
	Municipality: domain.MunicipalityLomma,
	Street:       "Storgatan",
	Number:       "12B",
	City:         "Bjärred",
}

func datePtr(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &t
}

func newTestEngine(t *testing.T, f fetcher, reg upstreamRegistry, schedule string) (*RefreshEngine, *state.MemoryState) {
	t.Helper()
	st := state.NewMemoryState()
	cfg := &config.AppConfig{RefreshSchedule: schedule}
	e, err := NewRefreshEngine(zerolog.Nop(), cfg, engineAddress, sensor.DefaultCategories(), f, reg, st)
	require.NoError(t, err)
	e.now = func() time.Time { return time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC) }
	return e, st
}

func sampleSchedule() *domain.Schedule {
	s := domain.NewSchedule()
	s.Set(domain.ContainerDate{Label: "Restavfall", Date: datePtr("2025-03-04")})
	s.Set(domain.ContainerDate{Label: "Matavfall", Date: datePtr("2025-03-11")})
	return s
}

func TestRefresh_PublishesBothBins(t *testing.T) {
	f := &fakeFetcher{schedule: sampleSchedule()}
	reg := newFakeRegistry()
	e, st := newTestEngine(t, f, reg, "@every 6h")

	require.NoError(t, e.Refresh(context.Background()))

	id := engineAddress.ID()
	bin1 := reg.get(id + "|" + sensor.KeyBin1)
	bin2 := reg.get(id + "|" + sensor.KeyBin2)
	require.NotNil(t, bin1)
	require.NotNil(t, bin2)
	assert.Equal(t, "2025-03-04", bin1.Value)
	assert.Equal(t, "Restavfall", bin1.Label)
	assert.True(t, bin1.Available)
	assert.Equal(t, "2025-03-11", bin2.Value)
	assert.Equal(t, [][]string{{id}}, reg.lockedKeys)

	snap, ok := st.Get(id)
	require.True(t, ok)
	assert.True(t, snap.Available)
}

func TestRefresh_FailureKeepsLastScheduleAndMarksUnavailable(t *testing.T) {
	f := &fakeFetcher{schedule: sampleSchedule()}
	reg := newFakeRegistry()
	e, _ := newTestEngine(t, f, reg, "@every 6h")
	require.NoError(t, e.Refresh(context.Background()))

	boom := errors.New("upstream down")
	f.mu.Lock()
	f.schedule, f.err = nil, boom
	f.mu.Unlock()

	err := e.Refresh(context.Background())
	var refreshErr *RefreshError
	require.ErrorAs(t, err, &refreshErr)
	assert.Equal(t, "fetch", refreshErr.Stage)
	assert.ErrorIs(t, err, boom)

	bin1 := reg.get(engineAddress.ID() + "|" + sensor.KeyBin1)
	require.NotNil(t, bin1)
	assert.Equal(t, "2025-03-04", bin1.Value)
	assert.False(t, bin1.Available)
}

func TestRefresh_FirstFailurePublishesUnknown(t *testing.T) {
	f := &fakeFetcher{err: errors.New("nope")}
	reg := newFakeRegistry()
	e, _ := newTestEngine(t, f, reg, "@every 6h")

	require.Error(t, e.Refresh(context.Background()))
	bin2 := reg.get(engineAddress.ID() + "|" + sensor.KeyBin2)
	require.NotNil(t, bin2)
	assert.Equal(t, "", bin2.Value)
	assert.False(t, bin2.Available)
}

func TestRefresh_RemovesStaleCategories(t *testing.T) {
	reg := newFakeRegistry()
	stale := &domain.SensorState{AddressID: engineAddress.ID(), CategoryKey: "karl_3", Value: "2025-01-01"}
	reg.states[stale.Key()] = stale
	e, _ := newTestEngine(t, &fakeFetcher{schedule: sampleSchedule()}, reg, "@every 6h")

	require.NoError(t, e.Refresh(context.Background()))
	assert.Nil(t, reg.get(stale.Key()))
}

func TestRefresh_LockFailure(t *testing.T) {
	reg := newFakeRegistry()
	reg.lockErr = errors.New("lock busy")
	e, _ := newTestEngine(t, &fakeFetcher{schedule: sampleSchedule()}, reg, "@every 6h")

	err := e.Refresh(context.Background())
	var refreshErr *RefreshError
	require.ErrorAs(t, err, &refreshErr)
	assert.Equal(t, "publish", refreshErr.Stage)
	assert.Zero(t, reg.publishes)
}

func TestRefresh_ListFailure(t *testing.T) {
	reg := newFakeRegistry()
	reg.listErr = errors.New("etcd unavailable")
	e, _ := newTestEngine(t, &fakeFetcher{schedule: sampleSchedule()}, reg, "@every 6h")

	err := e.Refresh(context.Background())
	require.ErrorIs(t, err, reg.listErr)
	assert.Contains(t, err.Error(), "publish: list registry states: etcd unavailable")
	assert.Zero(t, reg.publishes)
}

func TestNewRefreshEngine_InvalidSchedule(t *testing.T) {
	_, err := NewRefreshEngine(zerolog.Nop(), &config.AppConfig{RefreshSchedule: "every now and then"}, engineAddress,
		sensor.DefaultCategories(), &fakeFetcher{}, newFakeRegistry(), state.NewMemoryState())
	var schedErr *ScheduleError
	require.ErrorAs(t, err, &schedErr)
	assert.Equal(t, "every now and then", schedErr.Spec)
}

func TestRun_RefreshesEagerlyThenOnSchedule(t *testing.T) {
	f := &fakeFetcher{schedule: sampleSchedule()}
	e, _ := newTestEngine(t, f, newFakeRegistry(), "@every 1s")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()

	require.Eventually(t, func() bool { return f.Calls() >= 2 }, 5*time.Second, 20*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
