// Package sysstat — OS kaynak sayaçlarını okuyan katman.
//
// Reader interface'i collector'ı gopsutil'den ayırır: production'da
// gopsutil tabanlı live reader kullanılır, testlerde deterministik bir
// fake ile değiştirilir.
//
// Okunan değerler iki gruptur:
//   - Gauge'lar: CPU %, bellek ve disk kullanımı — anlık durum.
//   - Kümülatif sayaçlar: disk ve network I/O byte'ları — boot'tan beri
//     monotonik artar, rate hesabı collector'da delta ile yapılır.
package sysstat

import (
	"context"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/net"
)

// Counters, tek bir okumada toplanan tüm ham değerler.
type Counters struct {
	At time.Time

	CPUPercent float64

	MemUsedBytes  uint64
	MemTotalBytes uint64
	MemPercent    float64

	DiskUsedBytes  uint64
	DiskTotalBytes uint64
	DiskPercent    float64

	// Kümülatif I/O sayaçları — tüm device/interface'lerin toplamı
	DiskReadBytes  uint64
	DiskWriteBytes uint64
	NetSentBytes   uint64
	NetRecvBytes   uint64
}

// Reader, ham OS sayaçlarını okuyan interface.
type Reader interface {
	Read(ctx context.Context) (Counters, error)
}

// gopsutilReader, gopsutil/v3 tabanlı live implementasyon.
type gopsutilReader struct {
	rootPath string
}

// NewReader, live sistem okuyucusu oluşturur.
// rootPath: disk kullanımı ölçülecek mount point (boş ise "/").
func NewReader(rootPath string) Reader {
	if rootPath == "" {
		rootPath = "/"
	}
	return &gopsutilReader{rootPath: rootPath}
}

// Read, tüm sayaçları tek seferde okur.
//
// cpu.Percent interval=0 ile çağrılır — bloklamaz, bir önceki çağrıdan
// bu yana geçen CPU zamanından hesaplar. İlk çağrıda 0 döner; collector
// zaten ilk sample'da rate'leri 0 kabul ettiği için bu tutarlıdır.
//
// Herhangi bir okuma başarısız olursa error döner; collector bu durumda
// son bilinen değerleri taşıyıp sample'ı degraded işaretler.
func (r *gopsutilReader) Read(ctx context.Context) (Counters, error) {
	c := Counters{At: time.Now().UTC()}

	cpuPcts, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return Counters{}, fmt.Errorf("failed to read cpu percent: %w", err)
	}
	if len(cpuPcts) > 0 {
		c.CPUPercent = cpuPcts[0]
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return Counters{}, fmt.Errorf("failed to read virtual memory: %w", err)
	}
	c.MemUsedBytes = vm.Used
	c.MemTotalBytes = vm.Total
	c.MemPercent = vm.UsedPercent

	du, err := disk.UsageWithContext(ctx, r.rootPath)
	if err != nil {
		return Counters{}, fmt.Errorf("failed to read disk usage for %s: %w", r.rootPath, err)
	}
	c.DiskUsedBytes = du.Used
	c.DiskTotalBytes = du.Total
	c.DiskPercent = du.UsedPercent

	// Device bazlı I/O sayaçlarını topla — tek makine görünümü için
	// device ayrımına gerek yok.
	ioStats, err := disk.IOCountersWithContext(ctx)
	if err != nil {
		return Counters{}, fmt.Errorf("failed to read disk io counters: %w", err)
	}
	for _, s := range ioStats {
		c.DiskReadBytes += s.ReadBytes
		c.DiskWriteBytes += s.WriteBytes
	}

	// pernic=false → tüm interface'ler tek kayıtta toplanır
	netStats, err := net.IOCountersWithContext(ctx, false)
	if err != nil {
		return Counters{}, fmt.Errorf("failed to read net io counters: %w", err)
	}
	if len(netStats) > 0 {
		c.NetSentBytes = netStats[0].BytesSent
		c.NetRecvBytes = netStats[0].BytesRecv
	}

	return c, nil
}
