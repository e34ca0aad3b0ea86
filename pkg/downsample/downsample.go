// Package downsample — Uzun sample dizilerini görüntüleme için küçültür.
//
// Büyük bir tarihsel aralık (örn. 24 saatlik 86400 sample) grafikte en
// fazla birkaç yüz nokta ile çizilir. Reduce, diziyi hedef nokta sayısına
// indirger: zaman ekseni eşit genişlikte bucket'lara bölünür ve her dolu
// bucket için alanların ortalaması tek bir temsilci nokta olarak üretilir.
//
// Bucket sınırları sample SAYISINDAN değil, geçen wall-clock zamandan
// hesaplanır — hızlı sample burst'leri ve uzun boşluklar düzgün dağılır.
// Boş bucket'lar atlanır, asla interpolate edilmez: veri yoksa nokta yok.
package downsample

import (
	"time"

	"github.com/akinalp/resmon/models"
)

// accumulator, tek bir bucket'ın alan toplamlarını tutar.
type accumulator struct {
	n        int
	tsNanos  float64
	cpu      float64
	memUsed  float64
	memTotal float64
	memPct   float64
	dskUsed  float64
	dskTotal float64
	dskPct   float64
	dskRead  float64
	dskWrite float64
	dskRRate float64
	dskWRate float64
	netSent  float64
	netRecv  float64
	netSRate float64
	netRRate float64
	degraded bool
}

func (a *accumulator) add(s models.MetricSample) {
	a.n++
	a.tsNanos += float64(s.Timestamp.UnixNano())
	a.cpu += s.CPUPercent
	a.memUsed += float64(s.MemoryUsedBytes)
	a.memTotal += float64(s.MemoryTotalBytes)
	a.memPct += s.MemoryPercent
	a.dskUsed += float64(s.DiskUsedBytes)
	a.dskTotal += float64(s.DiskTotalBytes)
	a.dskPct += s.DiskPercent
	a.dskRead += float64(s.DiskReadBytes)
	a.dskWrite += float64(s.DiskWriteBytes)
	a.dskRRate += s.DiskReadRateBps
	a.dskWRate += s.DiskWriteRateBps
	a.netSent += float64(s.NetSentBytes)
	a.netRecv += float64(s.NetRecvBytes)
	a.netSRate += s.NetSentRateBps
	a.netRRate += s.NetRecvRateBps
	a.degraded = a.degraded || s.Degraded
}

// mean, bucket içeriğinin ortalamasından tek bir temsilci sample üretir.
// Tüm sayısal alanlara aynı politika (mean) uygulanır; timestamp de
// bucket'taki sample timestamp'lerinin ortalamasıdır.
func (a *accumulator) mean() models.MetricSample {
	n := float64(a.n)
	return models.MetricSample{
		Timestamp:        time.Unix(0, int64(a.tsNanos/n)).UTC(),
		CPUPercent:       a.cpu / n,
		MemoryUsedBytes:  uint64(a.memUsed / n),
		MemoryTotalBytes: uint64(a.memTotal / n),
		MemoryPercent:    a.memPct / n,
		DiskUsedBytes:    uint64(a.dskUsed / n),
		DiskTotalBytes:   uint64(a.dskTotal / n),
		DiskPercent:      a.dskPct / n,
		DiskReadBytes:    uint64(a.dskRead / n),
		DiskWriteBytes:   uint64(a.dskWrite / n),
		DiskReadRateBps:  a.dskRRate / n,
		DiskWriteRateBps: a.dskWRate / n,
		NetSentBytes:     uint64(a.netSent / n),
		NetRecvBytes:     uint64(a.netRecv / n),
		NetSentRateBps:   a.netSRate / n,
		NetRecvRateBps:   a.netRRate / n,
		Degraded:         a.degraded,
	}
}

// Reduce, sample dizisini en fazla target noktaya indirger.
//
// Kurallar:
//   - target < 1 → nil (çizilecek nokta yok)
//   - len(samples) <= target → girdi OLDUĞU GİBİ döner (identity, bilgi kaybı yok)
//   - aksi halde [ilk.ts, son.ts] aralığı target eşit genişlikte bucket'a
//     bölünür; her dolu bucket için mean() temsilcisi üretilir
//
// Girdinin timestamp'e göre artan sıralı olması beklenir (queryRange ve
// ring buffer snapshot'ı zaten bu sırayı garanti eder).
func Reduce(samples []models.MetricSample, target int) []models.MetricSample {
	if target < 1 {
		return nil
	}
	if len(samples) <= target {
		return samples
	}

	first := samples[0].Timestamp
	last := samples[len(samples)-1].Timestamp
	span := last.Sub(first)
	if span <= 0 {
		// Tüm sample'lar aynı ana denk geliyor — zaman ekseni bölünemez,
		// hepsi tek bucket'ta toplanır.
		acc := &accumulator{}
		for _, s := range samples {
			acc.add(s)
		}
		return []models.MetricSample{acc.mean()}
	}

	buckets := make([]*accumulator, target)
	for _, s := range samples {
		idx := int(float64(target) * float64(s.Timestamp.Sub(first)) / float64(span))
		if idx >= target {
			idx = target - 1 // son sample tam üst sınıra düşer
		}
		if buckets[idx] == nil {
			buckets[idx] = &accumulator{}
		}
		buckets[idx].add(s)
	}

	out := make([]models.MetricSample, 0, target)
	for _, b := range buckets {
		if b != nil {
			out = append(out, b.mean())
		}
	}
	return out
}
