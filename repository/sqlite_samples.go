// Package repository — SampleRepository'nin SQLite implementasyonu.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/akinalp/resmon/database"
	"github.com/akinalp/resmon/models"
)

// sampleColumns, SELECT listelerinde kullanılan kolon sırası —
// scanSample ile aynı sırada olmak ZORUNDA.
const sampleColumns = `
	ts, cpu_pct,
	memory_used_bytes, memory_total_bytes, memory_pct,
	disk_used_bytes, disk_total_bytes, disk_pct,
	disk_read_bytes, disk_write_bytes, disk_read_rate_bps, disk_write_rate_bps,
	net_sent_bytes, net_recv_bytes, net_sent_rate_bps, net_recv_rate_bps,
	degraded`

type sqliteSampleRepo struct {
	db *sql.DB
}

// NewSQLiteSampleRepo, constructor — interface döner.
// InsertBatch kendi transaction'ını açtığı için *sql.DB alır
// (TxQuerier yeterli olmaz).
func NewSQLiteSampleRepo(db *sql.DB) SampleRepository {
	return &sqliteSampleRepo{db: db}
}

// InsertBatch, tüm sample'ları tek transaction'da yazar.
// database.WithTx hata durumunda rollback garantisi verir — eşzamanlı bir
// QueryRange yarım batch'i asla göremez (WAL + transaction izolasyonu).
func (r *sqliteSampleRepo) InsertBatch(ctx context.Context, samples []models.MetricSample) error {
	if len(samples) == 0 {
		return nil
	}

	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO resource_samples (
				ts, cpu_pct,
				memory_used_bytes, memory_total_bytes, memory_pct,
				disk_used_bytes, disk_total_bytes, disk_pct,
				disk_read_bytes, disk_write_bytes, disk_read_rate_bps, disk_write_rate_bps,
				net_sent_bytes, net_recv_bytes, net_sent_rate_bps, net_recv_rate_bps,
				degraded
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare batch insert: %w", err)
		}
		defer stmt.Close()

		for i := range samples {
			s := &samples[i]
			if _, err := stmt.ExecContext(ctx,
				s.Timestamp.UnixNano(),
				s.CPUPercent,
				s.MemoryUsedBytes,
				s.MemoryTotalBytes,
				s.MemoryPercent,
				s.DiskUsedBytes,
				s.DiskTotalBytes,
				s.DiskPercent,
				s.DiskReadBytes,
				s.DiskWriteBytes,
				s.DiskReadRateBps,
				s.DiskWriteRateBps,
				s.NetSentBytes,
				s.NetRecvBytes,
				s.NetSentRateBps,
				s.NetRecvRateBps,
				s.Degraded,
			); err != nil {
				return fmt.Errorf("failed to insert sample %d of %d: %w", i+1, len(samples), err)
			}
		}

		return nil
	})
}

// QueryRange, [start, end] aralığındaki kayıtları artan ts sırasıyla döner.
func (r *sqliteSampleRepo) QueryRange(ctx context.Context, start, end time.Time) ([]models.MetricSample, error) {
	// start > end geçersiz aralık değil, boş aralıktır — DB'ye gitmeye
	// gerek yok.
	if start.After(end) {
		return []models.MetricSample{}, nil
	}

	// idx_resource_samples_ts index'i range scan yapar; id ile tie-break
	// insertion order'ı korur.
	query := `
		SELECT ` + sampleColumns + `
		FROM resource_samples
		WHERE ts >= ? AND ts <= ?
		ORDER BY ts ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, start.UnixNano(), end.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("failed to query sample range: %w", err)
	}
	defer rows.Close()

	return collectSamples(rows)
}

// QueryLatest, en yeni n kaydı kronolojik sırayla döner.
func (r *sqliteSampleRepo) QueryLatest(ctx context.Context, n int) ([]models.MetricSample, error) {
	if n < 1 {
		return []models.MetricSample{}, nil
	}

	query := `
		SELECT ` + sampleColumns + `
		FROM resource_samples
		ORDER BY ts DESC, id DESC
		LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest samples: %w", err)
	}
	defer rows.Close()

	samples, err := collectSamples(rows)
	if err != nil {
		return nil, err
	}

	// DESC geldi — kronolojik sıraya çevir
	for i, j := 0, len(samples)-1; i < j; i, j = i+1, j-1 {
		samples[i], samples[j] = samples[j], samples[i]
	}
	return samples, nil
}

// Stats, aralık istatistiklerini tek aggregate satırla hesaplar.
func (r *sqliteSampleRepo) Stats(ctx context.Context, start, end time.Time) (*models.RangeStats, error) {
	stats := &models.RangeStats{}
	if start.After(end) {
		return stats, nil
	}

	query := `
		SELECT
			COUNT(*),
			COALESCE(MIN(cpu_pct), 0),             COALESCE(MAX(cpu_pct), 0),             COALESCE(AVG(cpu_pct), 0),
			COALESCE(MIN(memory_pct), 0),          COALESCE(MAX(memory_pct), 0),          COALESCE(AVG(memory_pct), 0),
			COALESCE(MIN(memory_used_bytes), 0),   COALESCE(MAX(memory_used_bytes), 0),   COALESCE(AVG(memory_used_bytes), 0),
			COALESCE(MIN(disk_pct), 0),            COALESCE(MAX(disk_pct), 0),            COALESCE(AVG(disk_pct), 0),
			COALESCE(MIN(disk_read_rate_bps), 0),  COALESCE(MAX(disk_read_rate_bps), 0),  COALESCE(AVG(disk_read_rate_bps), 0),
			COALESCE(MIN(disk_write_rate_bps), 0), COALESCE(MAX(disk_write_rate_bps), 0), COALESCE(AVG(disk_write_rate_bps), 0),
			COALESCE(MIN(net_sent_rate_bps), 0),   COALESCE(MAX(net_sent_rate_bps), 0),   COALESCE(AVG(net_sent_rate_bps), 0),
			COALESCE(MIN(net_recv_rate_bps), 0),   COALESCE(MAX(net_recv_rate_bps), 0),   COALESCE(AVG(net_recv_rate_bps), 0)
		FROM resource_samples
		WHERE ts >= ? AND ts <= ?`

	var count int64
	err := r.db.QueryRowContext(ctx, query, start.UnixNano(), end.UnixNano()).Scan(
		&count,
		&stats.CPUPercent.Min, &stats.CPUPercent.Max, &stats.CPUPercent.Mean,
		&stats.MemoryPercent.Min, &stats.MemoryPercent.Max, &stats.MemoryPercent.Mean,
		&stats.MemoryUsedBytes.Min, &stats.MemoryUsedBytes.Max, &stats.MemoryUsedBytes.Mean,
		&stats.DiskPercent.Min, &stats.DiskPercent.Max, &stats.DiskPercent.Mean,
		&stats.DiskReadRateBps.Min, &stats.DiskReadRateBps.Max, &stats.DiskReadRateBps.Mean,
		&stats.DiskWriteRateBps.Min, &stats.DiskWriteRateBps.Max, &stats.DiskWriteRateBps.Mean,
		&stats.NetSentRateBps.Min, &stats.NetSentRateBps.Max, &stats.NetSentRateBps.Mean,
		&stats.NetRecvRateBps.Min, &stats.NetRecvRateBps.Max, &stats.NetRecvRateBps.Mean,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to compute range stats: %w", err)
	}

	stats.CPUPercent.Count = count
	stats.MemoryPercent.Count = count
	stats.MemoryUsedBytes.Count = count
	stats.DiskPercent.Count = count
	stats.DiskReadRateBps.Count = count
	stats.DiskWriteRateBps.Count = count
	stats.NetSentRateBps.Count = count
	stats.NetRecvRateBps.Count = count

	return stats, nil
}

// Count, toplam kayıt sayısını döner.
func (r *sqliteSampleRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM resource_samples").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count samples: %w", err)
	}
	return count, nil
}

// TimeBounds, en eski/en yeni timestamp'leri döner. Kayıt yoksa zero value.
func (r *sqliteSampleRepo) TimeBounds(ctx context.Context) (time.Time, time.Time, error) {
	var oldest, newest sql.NullInt64
	err := r.db.QueryRowContext(ctx,
		"SELECT MIN(ts), MAX(ts) FROM resource_samples",
	).Scan(&oldest, &newest)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("failed to read time bounds: %w", err)
	}

	if !oldest.Valid || !newest.Valid {
		return time.Time{}, time.Time{}, nil
	}
	return time.Unix(0, oldest.Int64).UTC(), time.Unix(0, newest.Int64).UTC(), nil
}

// PurgeOlderThan, eski kayıtları siler.
func (r *sqliteSampleRepo) PurgeOlderThan(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM resource_samples WHERE ts < ?", before.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to purge old samples: %w", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get purge count: %w", err)
	}
	return count, nil
}

// DeleteAll, tüm kayıtları siler ve VACUUM ile alanı geri kazanır.
func (r *sqliteSampleRepo) DeleteAll(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM resource_samples")
	if err != nil {
		return 0, fmt.Errorf("failed to delete samples: %w", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get delete count: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, "VACUUM"); err != nil {
		return count, fmt.Errorf("failed to vacuum database: %w", err)
	}
	return count, nil
}

// StorageSizeBytes, DB dosyasının yaklaşık boyutunu döner.
func (r *sqliteSampleRepo) StorageSizeBytes(ctx context.Context) (int64, error) {
	var size int64
	err := r.db.QueryRowContext(ctx,
		"SELECT page_count * page_size FROM pragma_page_count(), pragma_page_size()",
	).Scan(&size)
	if err != nil {
		return 0, fmt.Errorf("failed to read database size: %w", err)
	}
	return size, nil
}

// collectSamples, rows'u MetricSample slice'ına çevirir.
func collectSamples(rows *sql.Rows) ([]models.MetricSample, error) {
	samples := []models.MetricSample{}
	for rows.Next() {
		s, err := scanSample(rows)
		if err != nil {
			return nil, err
		}
		samples = append(samples, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sample rows: %w", err)
	}
	return samples, nil
}

// scanSample, tek bir satırı MetricSample'a çevirir.
// Kolon sırası sampleColumns ile aynıdır.
func scanSample(rows *sql.Rows) (models.MetricSample, error) {
	var s models.MetricSample
	var ts int64

	err := rows.Scan(
		&ts,
		&s.CPUPercent,
		&s.MemoryUsedBytes,
		&s.MemoryTotalBytes,
		&s.MemoryPercent,
		&s.DiskUsedBytes,
		&s.DiskTotalBytes,
		&s.DiskPercent,
		&s.DiskReadBytes,
		&s.DiskWriteBytes,
		&s.DiskReadRateBps,
		&s.DiskWriteRateBps,
		&s.NetSentBytes,
		&s.NetRecvBytes,
		&s.NetSentRateBps,
		&s.NetRecvRateBps,
		&s.Degraded,
	)
	if err != nil {
		return models.MetricSample{}, fmt.Errorf("failed to scan sample row: %w", err)
	}

	s.Timestamp = time.Unix(0, ts).UTC()
	return s, nil
}
