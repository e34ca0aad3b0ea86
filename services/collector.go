// Package services — Collector, periyodik arka plan metrik toplama servisi.
//
// Her tick'te ham OS sayaçlarını (CPU, bellek, disk, network) okur, bir
// önceki okumanın counter delta'larından rate alanlarını türetir, sample'ı
// ring buffer'a ve subscriber'lara yayınlar; persistence açıksa Store'un
// batched-write path'ine verir.
//
// Derived metrikler counter delta'larından hesaplanır:
//   - Disk/network rate (bytes/sec): counter farkı / zaman farkı
//   - İlk sample'da baseline olmadığı için tüm rate'ler 0'dır
//   - Counter reset (reboot, driver reload) yeni baseline'dır — rate asla
//     negatif olmaz
//
// Goroutine pattern: time.NewTicker + select + stopCh. Ticker, yavaş geçen
// bir tick sırasında biriken tick'leri düşürür — tick'ler asla üst üste
// yığılmaz, kadans sabit kalır. Tek okuma hatası loop'u ASLA durdurmaz:
// sample degraded işaretlenir, son bilinen değerler taşınır, devam edilir.
//
// Graceful shutdown: Stop() stopCh'i kapatır ve in-flight tick bitene kadar
// bekler — hiçbir subscriber yarım yayınlanmış sample görmez.
package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/akinalp/resmon/models"
	"github.com/akinalp/resmon/pkg"
	"github.com/akinalp/resmon/pkg/ringbuf"
	"github.com/akinalp/resmon/pkg/sysstat"
)

// DefaultRingCapacity, canlı görüntüleme için tutulan son sample sayısı.
const DefaultRingCapacity = 60

// collectTimeout, tek bir tick'teki sayaç okuma + enqueue bütçesi.
const collectTimeout = 15 * time.Second

// purgeInterval, retention purge'ün en sık çalışma aralığı.
// Her tick'te purge çalıştırmak 1 saniyelik interval'lerde gereksiz
// DB trafiği olur.
const purgeInterval = 10 * time.Minute

// SampleFunc, her yeni sample'da çağrılan subscriber callback'i.
// Collection goroutine'inden çağrılır — bloklamamalıdır.
type SampleFunc func(models.MetricSample)

// Collector, periyodik arka plan metrik toplama interface'i.
type Collector interface {
	// Start, collector goroutine'ini başlatır. İlk collection hemen
	// çalışır, sonra interval kadansında tekrarlar. İkinci çağrı no-op.
	Start()

	// Stop, collector goroutine'ini durdurur ve in-flight tick'in
	// tamamlanmasını bekler (cooperative, preemptive değil).
	Stop()

	// Latest, en son üretilen sample'ı döner. Henüz hiç sample
	// üretilmediyse ikinci değer false'tur.
	Latest() (models.MetricSample, bool)

	// Recent, ring buffer'daki son sample'ların sıralı (eski → yeni)
	// defensive copy'sini döner.
	Recent() []models.MetricSample

	// ClearRecent, ring buffer'ı boşaltır.
	ClearRecent()

	// Subscribe, her yeni sample'da çağrılacak callback kaydeder ve
	// Unsubscribe için kullanılacak id döner. Teslimat sample sırasıyla,
	// sample başına subscriber başına en fazla bir kez yapılır.
	Subscribe(fn SampleFunc) string

	// Unsubscribe, verilen id'li subscriber'ı kaldırır.
	Unsubscribe(id string)
}

type collector struct {
	reader        sysstat.Reader
	store         Store // nil → persistence kapalı
	interval      time.Duration
	retentionDays int

	ring *ringbuf.Ring[models.MetricSample]

	// latest, en son yayınlanan sample. mu ile korunur —
	// Latest() collection goroutine'ini bloklamadan okur.
	mu        sync.Mutex
	latest    models.MetricSample
	hasLatest bool
	started   bool
	stopped   bool

	subMu       sync.RWMutex
	subscribers map[string]SampleFunc

	// prev, rate baseline'ı için son BAŞARILI ham okuma.
	// Sadece collection goroutine'i erişir — lock gerekmez.
	prev *sysstat.Counters

	lastPurge time.Time

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewCollector, constructor — interface döner.
//
// reader: ham OS sayaç kaynağı.
// store: batched persistence hedefi; nil ise sample'lar sadece ring
// buffer'a yazılır.
// interval: tick kadansı (> 0).
// ringCapacity: canlı buffer kapasitesi (>= 1).
// retentionDays: kalıcı verinin tutulacağı gün sayısı; 0 purge'ü kapatır.
func NewCollector(
	reader sysstat.Reader,
	store Store,
	interval time.Duration,
	ringCapacity int,
	retentionDays int,
) (Collector, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("%w: collection interval must be > 0, got %s", pkg.ErrInvalidConfig, interval)
	}
	if ringCapacity < 1 {
		return nil, fmt.Errorf("%w: ring buffer capacity must be >= 1, got %d", pkg.ErrInvalidConfig, ringCapacity)
	}
	if retentionDays < 0 {
		return nil, fmt.Errorf("%w: retention days must be >= 0, got %d", pkg.ErrInvalidConfig, retentionDays)
	}

	return &collector{
		reader:        reader,
		store:         store,
		interval:      interval,
		retentionDays: retentionDays,
		ring:          ringbuf.New[models.MetricSample](ringCapacity),
		subscribers:   make(map[string]SampleFunc),
		stopCh:        make(chan struct{}),
		doneCh:        make(chan struct{}),
	}, nil
}

func (c *collector) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		return
	}
	c.started = true

	log.Printf("[collector] starting (interval=%s, retention=%dd, persistence=%t)",
		c.interval, c.retentionDays, c.store != nil)

	go func() {
		defer close(c.doneCh)

		// İlk collection'ı hemen yap — start'ta interval kadar beklemeden
		// veri üret. Baseline olmadığı için rate'ler 0 olur, bu beklenendir.
		c.tick()

		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				c.tick()
			case <-c.stopCh:
				log.Println("[collector] stopped")
				return
			}
		}
	}()
}

func (c *collector) Stop() {
	c.mu.Lock()
	if !c.started || c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	c.mu.Unlock()

	close(c.stopCh)
	// In-flight tick tamamlanana kadar bekle — sample ya tamamen
	// yayınlanır ya hiç yayınlanmaz.
	<-c.doneCh
}

func (c *collector) Latest() (models.MetricSample, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latest, c.hasLatest
}

func (c *collector) Recent() []models.MetricSample {
	return c.ring.Snapshot()
}

func (c *collector) ClearRecent() {
	c.ring.Clear()
}

func (c *collector) Subscribe(fn SampleFunc) string {
	id := uuid.New().String()

	c.subMu.Lock()
	defer c.subMu.Unlock()
	c.subscribers[id] = fn
	return id
}

func (c *collector) Unsubscribe(id string) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	delete(c.subscribers, id)
}

// tick, tek bir collection turu: oku → türet → yayınla → (varsa) persist.
func (c *collector) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), collectTimeout)
	defer cancel()

	cur, err := c.reader.Read(ctx)
	if err != nil {
		// Transient okuma hatası — loop durmaz. Son bilinen değerler yeni
		// timestamp ile taşınır ve sample degraded işaretlenir; bir sonraki
		// tick'te okuma tekrar denenir. prev DEĞİŞMEZ: baseline son başarılı
		// okuma olarak kalır.
		log.Printf("[collector] counter read failed, publishing degraded sample: %v", err)
		c.publish(ctx, c.degradedSample())
		return
	}

	sample := c.buildSample(cur)
	c.prev = &cur
	c.publish(ctx, sample)
	c.maybePurge(ctx)
}

// buildSample, ham okumadan MetricSample üretir — rate'ler prev baseline'a
// göre türetilir.
func (c *collector) buildSample(cur sysstat.Counters) models.MetricSample {
	s := models.MetricSample{
		Timestamp:        cur.At,
		CPUPercent:       clampPercent(cur.CPUPercent),
		MemoryUsedBytes:  cur.MemUsedBytes,
		MemoryTotalBytes: cur.MemTotalBytes,
		MemoryPercent:    cur.MemPercent,
		DiskUsedBytes:    cur.DiskUsedBytes,
		DiskTotalBytes:   cur.DiskTotalBytes,
		DiskPercent:      cur.DiskPercent,
		DiskReadBytes:    cur.DiskReadBytes,
		DiskWriteBytes:   cur.DiskWriteBytes,
		NetSentBytes:     cur.NetSentBytes,
		NetRecvBytes:     cur.NetRecvBytes,
	}

	if c.prev != nil {
		elapsed := cur.At.Sub(c.prev.At).Seconds()
		s.DiskReadRateBps = rateBps(c.prev.DiskReadBytes, cur.DiskReadBytes, elapsed)
		s.DiskWriteRateBps = rateBps(c.prev.DiskWriteBytes, cur.DiskWriteBytes, elapsed)
		s.NetSentRateBps = rateBps(c.prev.NetSentBytes, cur.NetSentBytes, elapsed)
		s.NetRecvRateBps = rateBps(c.prev.NetRecvBytes, cur.NetRecvBytes, elapsed)
	}

	return s
}

// degradedSample, okuma hatasında yayınlanacak sample'ı üretir:
// son yayınlanan sample'ın değerleri, yeni timestamp, Degraded=true.
// Hiç sample üretilmediyse sıfır değerli degraded sample döner.
func (c *collector) degradedSample() models.MetricSample {
	c.mu.Lock()
	s := c.latest
	c.mu.Unlock()

	s.Timestamp = time.Now().UTC()
	s.Degraded = true
	return s
}

// publish, sample'ı ring buffer'a, subscriber'lara ve store'a dağıtır.
func (c *collector) publish(ctx context.Context, sample models.MetricSample) {
	c.ring.Append(sample)

	c.mu.Lock()
	c.latest = sample
	c.hasLatest = true
	c.mu.Unlock()

	// Callback'ler lock dışında çağrılır — bir subscriber callback içinden
	// Unsubscribe çağırırsa deadlock olmaz.
	c.subMu.RLock()
	fns := make([]SampleFunc, 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		fns = append(fns, fn)
	}
	c.subMu.RUnlock()

	for _, fn := range fns {
		fn(sample)
	}

	if c.store != nil {
		if err := c.store.Enqueue(ctx, sample); err != nil {
			// Pending batch korunur — bir sonraki threshold tetiklemesinde
			// tekrar denenir. Sample kaybolmaz, sadece loglanır.
			log.Printf("[collector] enqueue failed: %v", err)
		}
	}
}

// maybePurge, retention sınırından eski kayıtları periyodik olarak siler.
func (c *collector) maybePurge(ctx context.Context) {
	if c.store == nil || c.retentionDays == 0 {
		return
	}

	now := time.Now().UTC()
	if !c.lastPurge.IsZero() && now.Sub(c.lastPurge) < purgeInterval {
		return
	}
	c.lastPurge = now

	cutoff := now.Add(-time.Duration(c.retentionDays) * 24 * time.Hour)
	purged, err := c.store.PurgeOlderThan(ctx, cutoff)
	if err != nil {
		log.Printf("[collector] purge error: %v", err)
	} else if purged > 0 {
		log.Printf("[collector] purged %d old samples", purged)
	}
}

// rateBps, iki kümülatif sayaç okuması arasındaki byte/sec rate'i hesaplar.
// Counter reset (cur < prev) yeni baseline'dır — 0 döner, asla negatif olmaz.
func rateBps(prev, cur uint64, elapsedSec float64) float64 {
	if elapsedSec <= 0 || cur < prev {
		return 0
	}
	return float64(cur-prev) / elapsedSec
}

// clampPercent, multi-core toplamadan 100'ü geçebilen CPU yüzdesini
// 0-100 aralığına sıkıştırır.
func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
