package downsample

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akinalp/resmon/models"
)

var t0 = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

// seq, offsets saniyelerinde verilen CPU değerleriyle bir sample dizisi üretir.
func seq(cpus []float64, offsets []time.Duration) []models.MetricSample {
	samples := make([]models.MetricSample, len(cpus))
	for i := range cpus {
		samples[i] = models.MetricSample{
			Timestamp:  t0.Add(offsets[i]),
			CPUPercent: cpus[i],
		}
	}
	return samples
}

// regular, 1 saniye aralıklı n sample üretir.
func regular(cpus ...float64) []models.MetricSample {
	offsets := make([]time.Duration, len(cpus))
	for i := range cpus {
		offsets[i] = time.Duration(i) * time.Second
	}
	return seq(cpus, offsets)
}

func TestReduceIdentityWhenSmallEnough(t *testing.T) {
	in := regular(10, 20, 30)

	out := Reduce(in, 3)
	assert.Equal(t, in, out, "len == target: girdi olduğu gibi dönmeli")

	out = Reduce(in, 10)
	assert.Equal(t, in, out, "len < target: girdi olduğu gibi dönmeli")
}

func TestReduceRespectsTarget(t *testing.T) {
	in := regular(1, 2, 3, 4, 5, 6, 7, 8, 9, 10)

	for _, target := range []int{1, 2, 3, 5, 9} {
		out := Reduce(in, target)
		assert.LessOrEqual(t, len(out), target, "target=%d", target)
		assert.NotEmpty(t, out)
	}
}

func TestReduceConstantInputPreservesValue(t *testing.T) {
	in := regular(42, 42, 42, 42, 42, 42, 42, 42)

	out := Reduce(in, 3)
	require.NotEmpty(t, out)
	for _, s := range out {
		assert.InDelta(t, 42.0, s.CPUPercent, 1e-9, "sabit girdinin bucket mean'i sabit olmalı")
	}
}

func TestReduceBucketMean(t *testing.T) {
	// 4 sample, 2 bucket: [0s,1s] ve [2s,3s] → mean'ler (10+20)/2 ve (30+40)/2
	in := regular(10, 20, 30, 40)

	out := Reduce(in, 2)
	require.Len(t, out, 2)
	assert.InDelta(t, 15.0, out[0].CPUPercent, 1e-9)
	assert.InDelta(t, 35.0, out[1].CPUPercent, 1e-9)
}

func TestReduceIrregularSpacingUsesWallClock(t *testing.T) {
	// Burst başta (0-1sn içinde 4 sample), sonra 100. saniyede tek sample.
	// Bucket'lar zamana göre bölündüğünden burst tek bucket'a, geç sample
	// son bucket'a düşer — sayıya göre bölünseydi burst parçalanırdı.
	in := seq(
		[]float64{10, 20, 30, 40, 99},
		[]time.Duration{0, 250 * time.Millisecond, 500 * time.Millisecond, 750 * time.Millisecond, 100 * time.Second},
	)

	out := Reduce(in, 4)
	require.Len(t, out, 2, "boş bucket'lar atlanmalı, interpolate edilmemeli")
	assert.InDelta(t, 25.0, out[0].CPUPercent, 1e-9, "burst tek bucket'ta ortalanmalı")
	assert.InDelta(t, 99.0, out[1].CPUPercent, 1e-9)
}

func TestReduceTimestampsAscending(t *testing.T) {
	in := regular(1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12)

	out := Reduce(in, 5)
	for i := 1; i < len(out); i++ {
		assert.True(t, out[i].Timestamp.After(out[i-1].Timestamp),
			"downsample sonucu timestamp sırasını korumalı")
	}
}

func TestReduceDegradedPropagates(t *testing.T) {
	in := regular(1, 2, 3, 4)
	in[1].Degraded = true

	out := Reduce(in, 2)
	require.Len(t, out, 2)
	assert.True(t, out[0].Degraded, "bucket'ta degraded sample varsa temsilci de degraded")
	assert.False(t, out[1].Degraded)
}

func TestReduceEdgeCases(t *testing.T) {
	assert.Nil(t, Reduce(regular(1, 2, 3), 0), "target < 1 → nil")
	assert.Empty(t, Reduce(nil, 5), "boş girdi → boş çıktı")

	// Tüm sample'lar aynı timestamp'te — zaman ekseni bölünemez,
	// tek temsilci nokta döner.
	same := seq([]float64{10, 20, 30}, []time.Duration{0, 0, 0})
	out := Reduce(same, 2)
	require.Len(t, out, 1)
	assert.InDelta(t, 20.0, out[0].CPUPercent, 1e-9)
}
