package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func findFamily(t *testing.T, families []*dto.MetricFamily, name string) *dto.MetricFamily {
	t.Helper()
	for _, family := range families {
		if family.GetName() == name {
			return family
		}
	}
	t.Fatalf("metric family %s not found", name)
	return nil
}

func labelValue(metric *dto.Metric, name string) string {
	for _, label := range metric.GetLabel() {
		if label.GetName() == name {
			return label.GetValue()
		}
	}
	return ""
}

func TestObserveHTTPRequest(t *testing.T) {
	m := New()

	m.ObserveHTTPRequest("/api/v1/products", http.MethodGet, http.StatusOK, 25*time.Millisecond)
	m.ObserveHTTPRequest("/api/v1/products", http.MethodGet, http.StatusOK, 40*time.Millisecond)

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	counters := findFamily(t, families, "http_requests_total")
	require.Len(t, counters.GetMetric(), 1)
	metric := counters.GetMetric()[0]
	require.Equal(t, "/api/v1/products", labelValue(metric, "route"))
	require.Equal(t, "200", labelValue(metric, "status"))
	require.Equal(t, float64(2), metric.GetCounter().GetValue())

	histograms := findFamily(t, families, "http_request_duration_seconds")
	require.Equal(t, uint64(2), histograms.GetMetric()[0].GetHistogram().GetSampleCount())
}

func TestTrackInflight(t *testing.T) {
	m := New()

	done := m.TrackInflight()
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	gauge := findFamily(t, families, "http_requests_in_flight")
	require.Equal(t, float64(1), gauge.GetMetric()[0].GetGauge().GetValue())

	done()
	families, err = m.Registry().Gather()
	require.NoError(t, err)
	gauge = findFamily(t, families, "http_requests_in_flight")
	require.Equal(t, float64(0), gauge.GetMetric()[0].GetGauge().GetValue())
}

func TestDomainCounters(t *testing.T) {
	m := New()

	m.CountCheckoutAttempt("placed")
	m.CountCheckoutAttempt("placed")
	m.CountCheckoutAttempt("out_of_stock")
	m.CountCartMutation("add")

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	checkouts := findFamily(t, families, "checkout_attempts_total")
	byOutcome := map[string]float64{}
	for _, metric := range checkouts.GetMetric() {
		byOutcome[labelValue(metric, "outcome")] = metric.GetCounter().GetValue()
	}
	require.Equal(t, float64(2), byOutcome["placed"])
	require.Equal(t, float64(1), byOutcome["out_of_stock"])

	carts := findFamily(t, families, "cart_mutations_total")
	require.Equal(t, "add", labelValue(carts.GetMetric()[0], "kind"))
}

func TestHandlerServesScrape(t *testing.T) {
	m := New()
	m.CountCartMutation("remove")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.Contains(rec.Body.String(), "cart_mutations_total"))
}
