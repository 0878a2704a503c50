package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestHTTPMetrics(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		status    int
		body      string
		wantPath  string
		wantTrack bool
	}{
		{"mentors feed", "/feed/mentors", http.StatusOK, `{"items":[]}`, "/feed/mentors", true},
		{"users feed unavailable", "/feed/users", http.StatusServiceUnavailable, `{}`, "/feed/users", true},
		{"unknown path collapses", "/wp-admin/login.php", http.StatusNotFound, "", "other", true},
		{"health excluded", "/health", http.StatusOK, `{"status":"up"}`, "", false},
		{"ready excluded", "/ready", http.StatusOK, "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metrics := NewMetrics()
			reg := prometheus.NewRegistry()
			if err := metrics.Register(reg); err != nil {
				t.Fatal(err)
			}

			h := HTTPMetrics(metrics)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, tt.path, nil))

			if !tt.wantTrack {
				if m := findMetric(t, reg, MetricHTTPRequestsTotal, nil); m != nil {
					t.Errorf("unexpected series %v", m)
				}
				return
			}

			labels := map[string]string{
				"method": http.MethodGet,
				"path":   tt.wantPath,
				"status": strconv.Itoa(tt.status),
			}
			if got := counterValue(t, reg, MetricHTTPRequestsTotal, labels); got != 1 {
				t.Errorf("requests_total%v = %v, want 1", labels, got)
			}

			hist := findMetric(t, reg, MetricHTTPResponseSizeBytes, labels)
			if hist == nil {
				t.Fatal("missing response size histogram")
			}
			if got := hist.GetHistogram().GetSampleSum(); got != float64(len(tt.body)) {
				t.Errorf("response size sum = %v, want %d", got, len(tt.body))
			}
			if findMetric(t, reg, MetricHTTPRequestDuration, labels) == nil {
				t.Error("missing duration histogram")
			}
		})
	}
}
