package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akinalp/resmon/models"
	"github.com/akinalp/resmon/pkg"
	"github.com/akinalp/resmon/pkg/sysstat"
)

// fakeReader, scripted okuma dizisi döner. Script biterse son okuma
// tekrarlanır — loop testlerinde reader tükenmez.
type fakeReader struct {
	mu       sync.Mutex
	readings []sysstat.Counters
	errs     []error
	idx      int
}

func (f *fakeReader) Read(ctx context.Context) (sysstat.Counters, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	i := f.idx
	if i >= len(f.readings) {
		i = len(f.readings) - 1
	}
	f.idx++

	if i < len(f.errs) && f.errs[i] != nil {
		return sysstat.Counters{}, f.errs[i]
	}
	return f.readings[i], nil
}

// captureStore, Enqueue çağrılarını kaydeden minimal Store.
type captureStore struct {
	Store
	mu       sync.Mutex
	enqueued []models.MetricSample
}

func (c *captureStore) Enqueue(ctx context.Context, s models.MetricSample) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enqueued = append(c.enqueued, s)
	return nil
}

func (c *captureStore) PurgeOlderThan(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

func counters(offset time.Duration, diskRead, netSent uint64) sysstat.Counters {
	return sysstat.Counters{
		At:            base.Add(offset),
		CPUPercent:    50,
		MemUsedBytes:  4 << 30,
		MemTotalBytes: 16 << 30,
		MemPercent:    25,
		DiskReadBytes: diskRead,
		NetSentBytes:  netSent,
	}
}

func newTestCollector(t *testing.T, reader sysstat.Reader, store Store) *collector {
	t.Helper()
	c, err := NewCollector(reader, store, time.Second, 10, 0)
	require.NoError(t, err)
	return c.(*collector)
}

func TestNewCollectorValidation(t *testing.T) {
	reader := &fakeReader{readings: []sysstat.Counters{counters(0, 0, 0)}}

	_, err := NewCollector(reader, nil, 0, 10, 0)
	assert.ErrorIs(t, err, pkg.ErrInvalidConfig, "interval = 0 reddedilmeli")

	_, err = NewCollector(reader, nil, -time.Second, 10, 0)
	assert.ErrorIs(t, err, pkg.ErrInvalidConfig, "negatif interval reddedilmeli")

	_, err = NewCollector(reader, nil, time.Second, 0, 0)
	assert.ErrorIs(t, err, pkg.ErrInvalidConfig, "capacity < 1 reddedilmeli")

	_, err = NewCollector(reader, nil, time.Second, 10, -1)
	assert.ErrorIs(t, err, pkg.ErrInvalidConfig, "negatif retention reddedilmeli")
}

func TestFirstSampleHasZeroRates(t *testing.T) {
	reader := &fakeReader{readings: []sysstat.Counters{counters(0, 5000, 8000)}}
	c := newTestCollector(t, reader, nil)

	_, ok := c.Latest()
	assert.False(t, ok, "tick öncesi sample yok")

	c.tick()

	s, ok := c.Latest()
	require.True(t, ok)
	assert.Zero(t, s.DiskReadRateBps, "baseline yokken rate 0 olmalı")
	assert.Zero(t, s.NetSentRateBps)
	assert.False(t, s.Degraded)
	assert.Equal(t, uint64(5000), s.DiskReadBytes, "ham counter aynen taşınır")
}

func TestRateDerivationFromCounterDeltas(t *testing.T) {
	reader := &fakeReader{readings: []sysstat.Counters{
		counters(0, 1000, 2000),
		counters(2*time.Second, 5000, 2600), // Δdisk=4000/2s, Δnet=600/2s
	}}
	c := newTestCollector(t, reader, nil)

	c.tick()
	c.tick()

	s, ok := c.Latest()
	require.True(t, ok)
	assert.InDelta(t, 2000.0, s.DiskReadRateBps, 1e-9)
	assert.InDelta(t, 300.0, s.NetSentRateBps, 1e-9)
}

func TestCounterResetYieldsZeroRate(t *testing.T) {
	reader := &fakeReader{readings: []sysstat.Counters{
		counters(0, 100000, 100000),
		counters(time.Second, 50, 70), // reboot: counter'lar sıfırlanmış
		counters(2*time.Second, 1050, 1070),
	}}
	c := newTestCollector(t, reader, nil)

	c.tick()
	c.tick()

	s, _ := c.Latest()
	assert.Zero(t, s.DiskReadRateBps, "reset yeni baseline'dır, negatif rate üretmez")
	assert.Zero(t, s.NetSentRateBps)

	// Reset sonrası normal delta tekrar hesaplanır
	c.tick()
	s, _ = c.Latest()
	assert.InDelta(t, 1000.0, s.DiskReadRateBps, 1e-9)
}

func TestCPUClamped(t *testing.T) {
	over := counters(0, 0, 0)
	over.CPUPercent = 250 // multi-core aggregation taşması
	reader := &fakeReader{readings: []sysstat.Counters{over}}
	c := newTestCollector(t, reader, nil)

	c.tick()

	s, _ := c.Latest()
	assert.Equal(t, 100.0, s.CPUPercent)
}

func TestReadFailurePublishesDegradedSample(t *testing.T) {
	reader := &fakeReader{
		readings: []sysstat.Counters{
			counters(0, 1000, 2000),
			{}, // hata yerine placeholder
			counters(4*time.Second, 5000, 6000),
		},
		errs: []error{nil, errors.New("transient os error"), nil},
	}
	c := newTestCollector(t, reader, nil)

	c.tick()
	first, _ := c.Latest()

	// 2. tick okuma hatası: degraded sample, son bilinen değerler taşınır
	c.tick()
	s, ok := c.Latest()
	require.True(t, ok)
	assert.True(t, s.Degraded)
	assert.Equal(t, first.DiskReadBytes, s.DiskReadBytes, "değerler son başarılı okumadan taşınır")
	assert.False(t, s.Timestamp.Equal(first.Timestamp), "degraded sample yeni timestamp taşır")

	// 3. tick: loop ölmedi, baseline hâlâ 1. okuma → rate 4000/4s
	c.tick()
	s, _ = c.Latest()
	assert.False(t, s.Degraded)
	assert.InDelta(t, 1000.0, s.DiskReadRateBps, 1e-9)
}

func TestSubscribersReceiveSamplesInOrder(t *testing.T) {
	reader := &fakeReader{readings: []sysstat.Counters{
		counters(0, 0, 0),
		counters(time.Second, 0, 0),
		counters(2*time.Second, 0, 0),
	}}
	c := newTestCollector(t, reader, nil)

	var mu sync.Mutex
	var received []models.MetricSample
	id := c.Subscribe(func(s models.MetricSample) {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, s)
	})

	c.tick()
	c.tick()

	mu.Lock()
	require.Len(t, received, 2, "sample başına tam bir teslimat")
	assert.True(t, received[1].Timestamp.After(received[0].Timestamp), "teslimat sample sırasıyla")
	mu.Unlock()

	// Unsubscribe sonrası teslimat durur
	c.Unsubscribe(id)
	c.tick()

	mu.Lock()
	assert.Len(t, received, 2)
	mu.Unlock()
}

func TestSamplesForwardedToStore(t *testing.T) {
	reader := &fakeReader{readings: []sysstat.Counters{
		counters(0, 0, 0),
		counters(time.Second, 0, 0),
	}}
	store := &captureStore{}
	c := newTestCollector(t, reader, store)

	c.tick()
	c.tick()

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Len(t, store.enqueued, 2, "persistence açıkken her sample store'a gider")
}

func TestRingBufferEviction(t *testing.T) {
	reader := &fakeReader{readings: []sysstat.Counters{
		counters(0, 0, 0),
		counters(time.Second, 0, 0),
		counters(2*time.Second, 0, 0),
		counters(3*time.Second, 0, 0),
	}}
	c, err := NewCollector(reader, nil, time.Second, 2, 0)
	require.NoError(t, err)
	col := c.(*collector)

	for i := 0; i < 4; i++ {
		col.tick()
	}

	recent := col.Recent()
	require.Len(t, recent, 2, "kapasite aşımında en eskiler düşer")
	assert.True(t, recent[0].Timestamp.Before(recent[1].Timestamp))

	col.ClearRecent()
	assert.Empty(t, col.Recent())
}

func TestStartStopLifecycle(t *testing.T) {
	reader := &fakeReader{readings: []sysstat.Counters{counters(0, 0, 0)}}
	c, err := NewCollector(reader, nil, 10*time.Millisecond, 10, 0)
	require.NoError(t, err)

	c.Start()
	c.Start() // ikinci Start no-op

	// İlk collection hemen çalışır
	require.Eventually(t, func() bool {
		_, ok := c.Latest()
		return ok
	}, time.Second, 5*time.Millisecond)

	c.Stop()

	// Stop döndükten sonra yeni sample üretilmez
	afterStop := len(c.Recent())
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, afterStop, len(c.Recent()), "Stop sonrası loop tamamen durmuş olmalı")

	c.Stop() // ikinci Stop no-op
}

func TestRateHelpers(t *testing.T) {
	assert.Equal(t, 0.0, rateBps(100, 50, 1), "counter reset → 0")
	assert.Equal(t, 0.0, rateBps(100, 200, 0), "sıfır elapsed → 0")
	assert.Equal(t, 50.0, rateBps(100, 200, 2))

	assert.Equal(t, 0.0, clampPercent(-5))
	assert.Equal(t, 100.0, clampPercent(170))
	assert.Equal(t, 42.5, clampPercent(42.5))
}
