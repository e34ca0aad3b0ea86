// Package main, resmon daemon'ının giriş noktasıdır.
//
// Bu dosyanın görevi — Dependency Injection "wire-up":
//  1. Config'i yükle
//  2. Database'i başlat (persistence açıksa)
//  3. Repository'yi oluştur
//  4. Store'u oluştur (batched write path)
//  5. Collector'ı oluştur ve başlat
//  6. Graceful shutdown: collector'ı durdur, pending batch'i flush et
//
// Global değişken YOK — her şey burada oluşturulup birbirine bağlanır.
// Collector, Store ve Exporter caller'a ait explicit component'lerdir;
// process-wide implicit state yoktur.
package main

import (
	"context"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/akinalp/resmon/config"
	"github.com/akinalp/resmon/database"
	"github.com/akinalp/resmon/pkg/sysstat"
	"github.com/akinalp/resmon/repository"
	"github.com/akinalp/resmon/services"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("[main] resmon starting...")

	// ─── 1. Config ───
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[main] failed to load config: %v", err)
	}
	log.Printf("[main] config loaded (interval=%s, persistence=%t)",
		cfg.Collector.Interval, cfg.Storage.Enabled)

	// ─── 2-4. Persistence katmanı ───
	var store services.Store
	if cfg.Storage.Enabled {
		migrationsFS, err := fs.Sub(database.EmbeddedMigrations, "migrations")
		if err != nil {
			log.Fatalf("[main] failed to open embedded migrations: %v", err)
		}

		db, err := database.New(cfg.Storage.Path, migrationsFS)
		if err != nil {
			log.Fatalf("[main] failed to initialize database: %v", err)
		}
		defer db.Close()

		sampleRepo := repository.NewSQLiteSampleRepo(db.Conn)
		store, err = services.NewStore(sampleRepo, cfg.Storage.BatchThreshold)
		if err != nil {
			log.Fatalf("[main] failed to create store: %v", err)
		}
	}

	// ─── 5. Collector ───
	reader := sysstat.NewReader("/")
	collector, err := services.NewCollector(
		reader,
		store,
		cfg.Collector.Interval,
		cfg.Collector.RingCapacity,
		cfg.Storage.RetentionDays,
	)
	if err != nil {
		log.Fatalf("[main] failed to create collector: %v", err)
	}

	collector.Start()

	// ─── 6. Graceful Shutdown ───
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[main] shutting down...")

	// Önce collector — in-flight tick tamamlanır, yeni sample üretilmez.
	collector.Stop()

	// Sonra store — pending batch diske iner. Flush hatası veri kaybı
	// demektir, sessiz geçilmez.
	if store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := store.Close(ctx); err != nil {
			log.Printf("[main] failed to flush pending samples on shutdown: %v", err)
		}

		if info, err := store.Info(ctx); err == nil {
			log.Printf("[main] storage: %d samples, %.1f MB",
				info.SampleCount, float64(info.SizeBytes)/(1024*1024))
		}
	}

	log.Println("[main] resmon stopped")
}
