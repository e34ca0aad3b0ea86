// Package pkg, projede paylaşılan utility'leri barındırır.
// Bu dosya domain-level error tanımlarını içerir.
//
// errors.New() ile sabit error değişkenleri tanımlanır — karşılaştırma
// string yerine errors.Is ile referans üzerinden yapılır:
//
//	if errors.Is(err, pkg.ErrFlushFailed) { ... }
package pkg

import "errors"

// Domain-level error'lar.
// Alt katmanlar bunları %w ile sarar, caller errors.Is ile yakalar.
var (
	// ErrInvalidConfig — geçersiz konfigürasyon değeri (interval <= 0,
	// capacity < 1 gibi). Construction time'da döner, collection loop
	// başlamadan fail-fast.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrFlushFailed — batch flush başarısız (disk dolu, lock contention).
	// Pending batch korunur ve bir sonraki flush tetiklemesinde tekrar
	// denenir; sample'lar asla sessizce düşürülmez.
	ErrFlushFailed = errors.New("batch flush failed")

	// ErrNotFound — istenen kayıt yok.
	ErrNotFound = errors.New("not found")
)
