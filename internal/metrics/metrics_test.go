package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRegistry(t *testing.T) {
	InitRegistry()
	registry := GetRegistry()

	assert.NotNil(t, registry)
	assert.IsType(t, &prometheus.Registry{}, registry)
	assert.Same(t, registry, InitRegistry())
}

func TestRecordPrediction(t *testing.T) {
	InitRegistry()

	tests := []struct {
		name       string
		battingWin float64
		favourite  string
	}{
		{name: "batting favoured", battingWin: 0.8, favourite: "batting"},
		{name: "even counts as batting", battingWin: 0.5, favourite: "batting"},
		{name: "bowling favoured", battingWin: 0.2, favourite: "bowling"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.ToFloat64(PredictionsServedTotal.WithLabelValues(tt.favourite))
			RecordPrediction(tt.battingWin)
			after := testutil.ToFloat64(PredictionsServedTotal.WithLabelValues(tt.favourite))
			assert.Equal(t, before+1, after)
		})
	}
}

func TestRecordHTTPRequest(t *testing.T) {
	InitRegistry()

	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("/api/v1/predict", "POST", "200"))
	RecordHTTPRequest("/api/v1/predict", "POST", http.StatusOK, 0.01)
	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("/api/v1/predict", "POST", "200"))
	assert.Equal(t, before+1, after)
}

func TestSetModelLoaded(t *testing.T) {
	SetModelLoaded(true)
	assert.Equal(t, 1.0, testutil.ToFloat64(ModelLoaded))
	SetModelLoaded(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(ModelLoaded))
}

func TestHandler(t *testing.T) {
	RecordValidationRejection()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "winprob_validation_rejections_total"))
	assert.True(t, strings.Contains(body, "go_goroutines"))
}
