package verdict

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategorizeRain(t *testing.T) {
	assert.Equal(t, RainNone, CategorizeRain(0))
	assert.Equal(t, RainNone, CategorizeRain(math.NaN()))
	assert.Equal(t, RainGerimis, CategorizeRain(0.4))
	assert.Equal(t, RainRingan, CategorizeRain(1.5))
	assert.Equal(t, RainSedang, CategorizeRain(5.0))
	assert.Equal(t, RainDeras, CategorizeRain(7.6))
	assert.Equal(t, RainDeras, CategorizeRain(20))
}

func TestSkyLabel(t *testing.T) {
	cases := []struct {
		name                   string
		prob, rain, acc3, acc6 float64
		humidity, uv           float64
		hour                   int
		want                   string
	}{
		{"heavy rain now", 90, 10, 12, 15, 95, 0, 14, "hujan deras"},
		{"moderate rain now", 80, 3.0, 4, 5, 90, 1, 14, "hujan sedang"},
		{"light rain now", 70, 1.2, 2, 3, 88, 1, 10, "hujan ringan"},
		{"drizzle now", 60, 0.4, 0.5, 0.8, 85, 2, 10, "hujan gerimis"},
		{"dry hour inside wet block", 50, 0.0, 4.0, 6.0, 80, 2, 11, "hujan sedang"},
		{"potential rain", 70, 0.0, 0.0, 0.0, 70, 3, 13, "hujan potensial"},
		{"clear daytime", 5, 0.0, 0.0, 0.0, 55, 8, 11, "cerah"},
		{"cloudy", 10, 0.0, 0.0, 0.0, 70, 3, 10, "berawan"},
		{"overcast humid", 10, 0.0, 0.0, 0.0, 92, 1, 15, "mendung"},
		{"overcast moderate prob", 45, 0.0, 0.0, 0.0, 50, 3, 15, "mendung"},
		{"night hour never clear", 5, 0.0, 0.0, 0.0, 55, 8, 22, "berawan"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := SkyLabel(tc.prob, tc.rain, tc.acc3, tc.acc6, tc.humidity, tc.uv, tc.hour)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestSkyLabelAllMissing(t *testing.T) {
	nan := math.NaN()
	got := SkyLabel(nan, nan, nan, nan, nan, nan, 12)
	assert.Equal(t, "berawan", got)
}
