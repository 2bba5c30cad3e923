package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.SQLGenerations.WithLabelValues(OutcomeOK).Inc()
	m.SQLGenerations.WithLabelValues(OutcomeOK).Inc()
	m.UnmappedDevices.Set(3)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `promo_data_sql_generations_total{outcome="ok"} 2`)
	assert.Contains(t, string(body), "promo_data_unmapped_devices 3")

	// 第二个实例不会重复注册
	assert.NotPanics(t, func() { New() })
}
