// Package services — Store, batched write-behind time-series store.
//
// Her sample'ı anında diske yazmak yerine in-memory pending batch'te
// biriktirir; batch threshold'a ulaştığında (veya explicit Flush/Close'da)
// tüm pending sample'lar TEK transaction ile kalıcı yazılır.
//
// Atomiklik: flush all-or-nothing'dir — InsertBatch transaction'ı başarısız
// olursa pending batch KORUNUR ve bir sonraki flush tetiklemesinde tekrar
// denenir. Sample bir batch flush'tan önce QueryRange'e görünmez; okuyucular
// yarım yazılmış batch'i asla gözlemlemez.
//
// Concurrency: pending listesi mutex ile korunur. Mutex flush boyunca
// tutulur — flush'lar hem birbirleriyle hem enqueue'larla serialize olur.
package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/akinalp/resmon/models"
	"github.com/akinalp/resmon/pkg"
	"github.com/akinalp/resmon/repository"
)

// DefaultBatchThreshold, flush tetikleyen pending sample sayısı.
const DefaultBatchThreshold = 10

// Store, kalıcı time-series store'un yazma ve okuma yüzeyi.
type Store interface {
	// Enqueue, sample'ı pending batch'e ekler. Batch threshold'a ulaşırsa
	// flush tetiklenir — flush hatası caller'a döner (sample'lar pending'de
	// kalır, kayıp olmaz).
	Enqueue(ctx context.Context, sample models.MetricSample) error

	// Flush, pending batch'teki tüm sample'ları tek transaction'da yazar.
	// Hata durumunda pending korunur ve pkg.ErrFlushFailed ile sarılı
	// error döner. Boş pending no-op'tur.
	Flush(ctx context.Context) error

	// Close, son bir flush yapar ve store'u kapatır. Flush hatası döner —
	// caller pending verinin kaybolacağını bilerek karar verir.
	Close(ctx context.Context) error

	// Pending, henüz flush edilmemiş sample sayısını döner.
	Pending() int

	// QueryRange, kalıcı kayıtları [start, end] için artan ts sırasıyla
	// döner. Sadece flush edilmiş sample'lar görünür.
	QueryRange(ctx context.Context, start, end time.Time) ([]models.MetricSample, error)

	// Stats, [start, end] için alan bazında {min, max, mean, count} döner.
	Stats(ctx context.Context, start, end time.Time) (*models.RangeStats, error)

	// Latest, en yeni n kalıcı kaydı kronolojik sırayla döner.
	Latest(ctx context.Context, n int) ([]models.MetricSample, error)

	// PurgeOlderThan, retention sınırından eski kayıtları siler.
	PurgeOlderThan(ctx context.Context, before time.Time) (int64, error)

	// DeleteAll, tüm kalıcı kayıtları siler.
	DeleteAll(ctx context.Context) (int64, error)

	// Info, store hakkında özet (kayıt sayısı, ts aralığı, dosya boyutu).
	Info(ctx context.Context) (*models.StorageInfo, error)
}

type store struct {
	repo      repository.SampleRepository
	threshold int

	mu      sync.Mutex
	pending []models.MetricSample
	closed  bool
}

// NewStore, constructor — interface döner.
// threshold < 1 geçersizdir (her enqueue'da flush isteniyorsa threshold=1).
func NewStore(repo repository.SampleRepository, threshold int) (Store, error) {
	if threshold < 1 {
		return nil, fmt.Errorf("%w: batch threshold must be >= 1, got %d", pkg.ErrInvalidConfig, threshold)
	}
	return &store{
		repo:      repo,
		threshold: threshold,
		pending:   make([]models.MetricSample, 0, threshold),
	}, nil
}

func (s *store) Enqueue(ctx context.Context, sample models.MetricSample) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("store is closed")
	}

	s.pending = append(s.pending, sample)
	if len(s.pending) >= s.threshold {
		return s.flushLocked(ctx)
	}
	return nil
}

func (s *store) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushLocked(ctx)
}

func (s *store) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	err := s.flushLocked(ctx)
	s.closed = true
	return err
}

func (s *store) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// flushLocked, pending batch'i yazar. Caller mutex'i tutuyor olmalı.
// Başarısızlıkta pending OLDUĞU GİBİ kalır — retry bir sonraki tetiklemede.
func (s *store) flushLocked(ctx context.Context) error {
	if len(s.pending) == 0 {
		return nil
	}

	if err := s.repo.InsertBatch(ctx, s.pending); err != nil {
		return fmt.Errorf("%w: %d samples still pending: %v", pkg.ErrFlushFailed, len(s.pending), err)
	}

	// Başarılı — yeni slice ayır ki InsertBatch'e verilen backing array
	// ile aliasing olmasın.
	s.pending = make([]models.MetricSample, 0, s.threshold)
	return nil
}

func (s *store) QueryRange(ctx context.Context, start, end time.Time) ([]models.MetricSample, error) {
	return s.repo.QueryRange(ctx, start, end)
}

func (s *store) Stats(ctx context.Context, start, end time.Time) (*models.RangeStats, error) {
	return s.repo.Stats(ctx, start, end)
}

func (s *store) Latest(ctx context.Context, n int) ([]models.MetricSample, error) {
	return s.repo.QueryLatest(ctx, n)
}

func (s *store) PurgeOlderThan(ctx context.Context, before time.Time) (int64, error) {
	return s.repo.PurgeOlderThan(ctx, before)
}

func (s *store) DeleteAll(ctx context.Context) (int64, error) {
	return s.repo.DeleteAll(ctx)
}

func (s *store) Info(ctx context.Context) (*models.StorageInfo, error) {
	count, err := s.repo.Count(ctx)
	if err != nil {
		return nil, err
	}

	oldest, newest, err := s.repo.TimeBounds(ctx)
	if err != nil {
		return nil, err
	}

	size, err := s.repo.StorageSizeBytes(ctx)
	if err != nil {
		return nil, err
	}

	return &models.StorageInfo{
		SampleCount: count,
		OldestTs:    oldest,
		NewestTs:    newest,
		SizeBytes:   size,
	}, nil
}
