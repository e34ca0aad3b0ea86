// Package config, uygulamanın tüm konfigürasyonunu merkezi olarak yönetir.
// Environment variable'lardan okur, .env dosyasını da destekler.
//
// Geçersiz değerler Load() anında error döner — collection loop hiç
// başlamadan fail-fast. Her yerde ayrı ayrı os.Getenv() çağırmak yerine
// tek bir Config nesnesi taşınır.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/akinalp/resmon/pkg"
)

// Config, uygulamanın tüm konfigürasyon değerlerini taşır.
type Config struct {
	Collector CollectorConfig
	Storage   StorageConfig
	Export    ExportConfig
}

// CollectorConfig, sampling loop ayarları.
type CollectorConfig struct {
	Interval     time.Duration // tick kadansı (> 0)
	RingCapacity int           // canlı buffer kapasitesi (>= 1)
}

// StorageConfig, kalıcı time-series store ayarları.
type StorageConfig struct {
	Enabled        bool   // false → sample'lar sadece ring buffer'da kalır
	Path           string // SQLite dosya yolu (ör: ./data/resmon.db)
	BatchThreshold int    // flush tetikleyen pending sample sayısı (>= 1)
	RetentionDays  int    // 0 → purge kapalı
}

// ExportConfig, CSV export ayarları.
type ExportConfig struct {
	Dir string // export dosyalarının yazılacağı dizin
}

// Load, environment variable'lardan Config oluşturur.
// .env dosyası varsa önce onu yükler (development kolaylığı için);
// production'da gerçek env variable'lar kullanılır.
func Load() (*Config, error) {
	_ = godotenv.Load()

	intervalSec, err := strconv.ParseFloat(getEnv("COLLECT_INTERVAL_SECONDS", "1.0"), 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid COLLECT_INTERVAL_SECONDS: %v", pkg.ErrInvalidConfig, err)
	}
	if intervalSec <= 0 {
		return nil, fmt.Errorf("%w: COLLECT_INTERVAL_SECONDS must be > 0, got %g", pkg.ErrInvalidConfig, intervalSec)
	}

	ringCapacity, err := strconv.Atoi(getEnv("RING_BUFFER_CAPACITY", "60"))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid RING_BUFFER_CAPACITY: %v", pkg.ErrInvalidConfig, err)
	}
	if ringCapacity < 1 {
		return nil, fmt.Errorf("%w: RING_BUFFER_CAPACITY must be >= 1, got %d", pkg.ErrInvalidConfig, ringCapacity)
	}

	persistence, err := strconv.ParseBool(getEnv("PERSISTENCE_ENABLED", "true"))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid PERSISTENCE_ENABLED: %v", pkg.ErrInvalidConfig, err)
	}

	batchThreshold, err := strconv.Atoi(getEnv("BATCH_FLUSH_THRESHOLD", "10"))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid BATCH_FLUSH_THRESHOLD: %v", pkg.ErrInvalidConfig, err)
	}
	if batchThreshold < 1 {
		return nil, fmt.Errorf("%w: BATCH_FLUSH_THRESHOLD must be >= 1, got %d", pkg.ErrInvalidConfig, batchThreshold)
	}

	retentionDays, err := strconv.Atoi(getEnv("RETENTION_DAYS", "30"))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid RETENTION_DAYS: %v", pkg.ErrInvalidConfig, err)
	}
	if retentionDays < 0 {
		return nil, fmt.Errorf("%w: RETENTION_DAYS must be >= 0, got %d", pkg.ErrInvalidConfig, retentionDays)
	}

	cfg := &Config{
		Collector: CollectorConfig{
			Interval:     time.Duration(intervalSec * float64(time.Second)),
			RingCapacity: ringCapacity,
		},
		Storage: StorageConfig{
			Enabled:        persistence,
			Path:           getEnv("DATABASE_PATH", "./data/resmon.db"),
			BatchThreshold: batchThreshold,
			RetentionDays:  retentionDays,
		},
		Export: ExportConfig{
			Dir: getEnv("EXPORT_DIR", "./data/exports"),
		},
	}

	return cfg, nil
}

// getEnv, environment variable'ı okur, yoksa fallback değeri döner.
func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}
