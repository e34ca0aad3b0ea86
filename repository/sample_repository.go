// Package repository — SampleRepository, kalıcı metrik kayıtlarının
// data access interface'i.
//
// Yazma tarafı (Store'un batch flush'ı) ile okuma tarafı (range query,
// istatistik, export) aynı interface üzerinden çalışır; SQLite detayları
// sqlite_samples.go içinde kalır.
package repository

import (
	"context"
	"time"

	"github.com/akinalp/resmon/models"
)

// SampleRepository, kalıcı sample verisi için data access interface.
type SampleRepository interface {
	// InsertBatch, verilen sample'ların tümünü TEK transaction içinde yazar.
	// All-or-nothing: herhangi bir insert başarısız olursa hiçbiri kalıcı
	// olmaz ve error döner. Boş slice no-op'tur.
	InsertBatch(ctx context.Context, samples []models.MetricSample) error

	// QueryRange, timestamp'i [start, end] aralığında (sınırlar dahil) olan
	// kayıtları artan timestamp sırasıyla döner. Aynı timestamp'li kayıtlar
	// insertion order'ı korur. start > end → boş slice, error DEĞİL.
	QueryRange(ctx context.Context, start, end time.Time) ([]models.MetricSample, error)

	// QueryLatest, en yeni n kaydı kronolojik (eski → yeni) sırayla döner.
	QueryLatest(ctx context.Context, n int) ([]models.MetricSample, error)

	// Stats, [start, end] aralığı için alan bazında {min, max, mean, count}
	// hesaplar. SQL aggregate kullanır — result set belleğe materialize
	// edilmez, büyük aralıklar için de sabit bellek harcar.
	// Aralıkta kayıt yoksa count=0 ile sıfır değerli özet döner.
	Stats(ctx context.Context, start, end time.Time) (*models.RangeStats, error)

	// Count, toplam kayıt sayısını döner.
	Count(ctx context.Context) (int64, error)

	// TimeBounds, en eski ve en yeni kayıt timestamp'lerini döner.
	// Hiç kayıt yoksa her ikisi de zero value'dur.
	TimeBounds(ctx context.Context) (oldest, newest time.Time, err error)

	// PurgeOlderThan, belirtilen andan KESİN eski kayıtları siler ve
	// silinen satır sayısını döner. Retention için collector her
	// purge turunda çağırır.
	PurgeOlderThan(ctx context.Context, before time.Time) (int64, error)

	// DeleteAll, tüm kayıtları siler ve alanı geri kazanmak için VACUUM
	// çalıştırır. Silinen satır sayısını döner.
	DeleteAll(ctx context.Context) (int64, error)

	// StorageSizeBytes, veritabanı dosyasının yaklaşık boyutunu döner
	// (page_count * page_size pragma'ları).
	StorageSizeBytes(ctx context.Context) (int64, error)
}
