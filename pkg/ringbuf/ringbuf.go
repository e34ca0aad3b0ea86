// Package ringbuf — Generic, sabit kapasiteli, thread-safe ring buffer.
//
// Ring, en son N elemanı tutan dairesel bir dizidir. Kapasite dolduğunda
// en eski eleman üzerine yazılır (eviction) — bu beklenen davranıştır,
// hata değildir. Canlı görüntüleme için "son N sample" tutmakta kullanılır.
//
// Thread safety:
// sync.Mutex ile korunur. Okuma Snapshot() üzerinden yapılır — iç dizinin
// defensive copy'si döner, böylece caller iterate ederken eşzamanlı
// Append'ler iç durumu bozamaz (torn read olmaz).
package ringbuf

import "sync"

// Ring, generic sabit kapasiteli ring buffer.
//
//	ring := ringbuf.New[models.MetricSample](60)
//	ring.Append(sample)
//	recent := ring.Snapshot() // en eski → en yeni sıralı kopya
type Ring[T any] struct {
	mu    sync.Mutex
	items []T
	head  int // bir sonraki yazma pozisyonu
	size  int // mevcut eleman sayısı, her zaman <= cap(items)
}

// New, verilen kapasitede boş bir Ring oluşturur.
// capacity < 1 ise 1'e yükseltilir — sıfır kapasiteli buffer anlamsızdır,
// asıl validation config katmanında yapılır.
func New[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring[T]{items: make([]T, capacity)}
}

// Append, buffer'a bir eleman ekler — O(1).
// Buffer doluysa en eski eleman üzerine yazılır.
func (r *Ring[T]) Append(item T) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[r.head] = item
	r.head = (r.head + 1) % len(r.items)
	if r.size < len(r.items) {
		r.size++
	}
}

// Snapshot, mevcut içeriğin sıralı (en eski → en yeni) kopyasını döner.
// Dönen slice caller'a aittir — eşzamanlı Append'lerden etkilenmez.
func (r *Ring[T]) Snapshot() []T {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]T, 0, r.size)
	start := r.head - r.size
	if start < 0 {
		start += len(r.items)
	}
	for i := 0; i < r.size; i++ {
		out = append(out, r.items[(start+i)%len(r.items)])
	}
	return out
}

// Clear, buffer'ı boşaltır. Kapasite korunur.
func (r *Ring[T]) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	var zero T
	for i := range r.items {
		r.items[i] = zero // eski referansları bırak, GC toplayabilsin
	}
	r.head = 0
	r.size = 0
}

// Len, mevcut eleman sayısını döner.
func (r *Ring[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.size
}

// Cap, buffer kapasitesini döner.
func (r *Ring[T]) Cap() int {
	return len(r.items)
}
