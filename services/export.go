// Package services — Exporter, tarihsel verinin CSV export'u.
//
// Query interface'inin bir tüketicisidir: Store.QueryRange ile aralığı
// çeker, istenirse downsample.Reduce ile nokta bütçesine indirger ve
// encoding/csv ile yazar. Store'un iç durumuna erişmez.
package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/akinalp/resmon/models"
	"github.com/akinalp/resmon/pkg/downsample"
)

// csvHeader, export edilen kolonlar — MetricSample alan sırasıyla aynı.
var csvHeader = []string{
	"timestamp",
	"cpu_pct",
	"memory_used_bytes", "memory_total_bytes", "memory_pct",
	"disk_used_bytes", "disk_total_bytes", "disk_pct",
	"disk_read_bytes", "disk_write_bytes", "disk_read_rate_bps", "disk_write_rate_bps",
	"net_sent_bytes", "net_recv_bytes", "net_sent_rate_bps", "net_recv_rate_bps",
	"degraded",
}

// Exporter, tarihsel sample verisini CSV olarak dışa aktarır.
type Exporter interface {
	// ExportCSV, [start, end] aralığını w'ye CSV olarak yazar.
	// maxPoints > 0 ise önce downsample uygulanır. Yazılan veri satırı
	// sayısını döner (header hariç). Boş aralık sadece header üretir.
	ExportCSV(ctx context.Context, w io.Writer, start, end time.Time, maxPoints int) (int, error)

	// ExportFile, aralığı dir altına timestamp'li bir .csv dosyasına yazar
	// ve dosya yolunu döner.
	ExportFile(ctx context.Context, dir string, start, end time.Time, maxPoints int) (string, int, error)
}

type exporter struct {
	store Store
}

// NewExporter, constructor — interface döner.
func NewExporter(store Store) Exporter {
	return &exporter{store: store}
}

func (e *exporter) ExportCSV(ctx context.Context, w io.Writer, start, end time.Time, maxPoints int) (int, error) {
	samples, err := e.store.QueryRange(ctx, start, end)
	if err != nil {
		return 0, fmt.Errorf("failed to query range for export: %w", err)
	}

	if maxPoints > 0 {
		samples = downsample.Reduce(samples, maxPoints)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return 0, fmt.Errorf("failed to write csv header: %w", err)
	}

	for i := range samples {
		if err := cw.Write(sampleRecord(&samples[i])); err != nil {
			return 0, fmt.Errorf("failed to write csv row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, fmt.Errorf("failed to flush csv writer: %w", err)
	}
	return len(samples), nil
}

func (e *exporter) ExportFile(ctx context.Context, dir string, start, end time.Time, maxPoints int) (string, int, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", 0, fmt.Errorf("failed to create export directory: %w", err)
	}

	name := fmt.Sprintf("resmon_%s_%s.csv",
		start.UTC().Format("20060102T150405"),
		end.UTC().Format("20060102T150405"))
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create export file: %w", err)
	}

	n, err := e.ExportCSV(ctx, f, start, end, maxPoints)
	if err != nil {
		f.Close()
		os.Remove(path) // yarım dosya bırakma
		return "", 0, err
	}

	if err := f.Close(); err != nil {
		return "", 0, fmt.Errorf("failed to close export file: %w", err)
	}
	return path, n, nil
}

// sampleRecord, tek bir sample'ı CSV satırına çevirir.
func sampleRecord(s *models.MetricSample) []string {
	return []string{
		s.Timestamp.UTC().Format(time.RFC3339Nano),
		formatFloat(s.CPUPercent),
		strconv.FormatUint(s.MemoryUsedBytes, 10),
		strconv.FormatUint(s.MemoryTotalBytes, 10),
		formatFloat(s.MemoryPercent),
		strconv.FormatUint(s.DiskUsedBytes, 10),
		strconv.FormatUint(s.DiskTotalBytes, 10),
		formatFloat(s.DiskPercent),
		strconv.FormatUint(s.DiskReadBytes, 10),
		strconv.FormatUint(s.DiskWriteBytes, 10),
		formatFloat(s.DiskReadRateBps),
		formatFloat(s.DiskWriteRateBps),
		strconv.FormatUint(s.NetSentBytes, 10),
		strconv.FormatUint(s.NetRecvBytes, 10),
		formatFloat(s.NetSentRateBps),
		formatFloat(s.NetRecvRateBps),
		strconv.FormatBool(s.Degraded),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
