// Package models — MetricSample, tek bir zaman noktasındaki sistem kaynak
// okuması için model tanımı.
//
// MetricSample: Collector tarafından her tick'te üretilen tek bir kayıt.
// Ham sayaçlar (cumulative counter) ve onlardan türetilen rate alanlarını
// birlikte taşır. Oluşturulduktan sonra değiştirilmez (immutable) —
// ring buffer'a ve store'a kopya olarak aktarılır.
//
// Derived alanlar (DiskReadRateBps, NetSentRateBps, ...) collection time'da
// bir önceki ham okumanın counter delta'larından hesaplanır.
package models

import "time"

// MetricSample, tek bir tarihsel kaynak metrik kaydı.
//
// Counter alanları (DiskReadBytes, NetSentBytes, ...) boot'tan beri artan
// kümülatif değerlerdir. Rate alanları iki ardışık okuma arasındaki farktan
// hesaplanır ve hiçbir zaman negatif olmaz — counter reset durumunda
// (reboot, driver reload) yeni okuma yeni baseline kabul edilir, rate 0 olur.
type MetricSample struct {
	Timestamp time.Time `json:"timestamp"`

	// CPU kullanımı (%). Multi-core toplamadan kaynaklanan taşmalara karşı
	// 0-100 aralığına clamp edilir.
	CPUPercent float64 `json:"cpu_pct"`

	// Bellek
	MemoryUsedBytes  uint64  `json:"memory_used_bytes"`
	MemoryTotalBytes uint64  `json:"memory_total_bytes"`
	MemoryPercent    float64 `json:"memory_pct"`

	// Disk alanı (root filesystem)
	DiskUsedBytes  uint64  `json:"disk_used_bytes"`
	DiskTotalBytes uint64  `json:"disk_total_bytes"`
	DiskPercent    float64 `json:"disk_pct"`

	// Disk I/O — kümülatif sayaçlar + türetilmiş rate'ler (bytes/sec)
	DiskReadBytes    uint64  `json:"disk_read_bytes"`
	DiskWriteBytes   uint64  `json:"disk_write_bytes"`
	DiskReadRateBps  float64 `json:"disk_read_rate_bps"`
	DiskWriteRateBps float64 `json:"disk_write_rate_bps"`

	// Network I/O — kümülatif sayaçlar + türetilmiş rate'ler (bytes/sec)
	NetSentBytes   uint64  `json:"net_sent_bytes"`
	NetRecvBytes   uint64  `json:"net_recv_bytes"`
	NetSentRateBps float64 `json:"net_sent_rate_bps"`
	NetRecvRateBps float64 `json:"net_recv_rate_bps"`

	// Degraded: bu tick'te OS sayaç okuması başarısız oldu, değerler bir
	// önceki başarılı okumadan taşındı. Collection loop asla bu yüzden
	// durmaz — kayıt işaretlenir ve devam edilir.
	Degraded bool `json:"degraded"`
}

// FieldStats, tek bir metrik alanı için aralık istatistikleri.
// SQL aggregate (MIN, MAX, AVG, COUNT) ile hesaplanır — result set
// belleğe materialize edilmez.
type FieldStats struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Mean  float64 `json:"mean"`
	Count int64   `json:"count"`
}

// RangeStats, bir zaman aralığındaki tüm sayısal alanların özetidir.
type RangeStats struct {
	CPUPercent       FieldStats `json:"cpu_pct"`
	MemoryPercent    FieldStats `json:"memory_pct"`
	MemoryUsedBytes  FieldStats `json:"memory_used_bytes"`
	DiskPercent      FieldStats `json:"disk_pct"`
	DiskReadRateBps  FieldStats `json:"disk_read_rate_bps"`
	DiskWriteRateBps FieldStats `json:"disk_write_rate_bps"`
	NetSentRateBps   FieldStats `json:"net_sent_rate_bps"`
	NetRecvRateBps   FieldStats `json:"net_recv_rate_bps"`
}

// StorageInfo, store'un kendisi hakkında özet bilgi.
// Kapasite/retention planlaması için kullanılır.
type StorageInfo struct {
	SampleCount int64     `json:"sample_count"`
	OldestTs    time.Time `json:"oldest_ts"` // zero value: hiç kayıt yok
	NewestTs    time.Time `json:"newest_ts"`
	SizeBytes   int64     `json:"size_bytes"`
}
