package prometheus

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordStoreOperation(t *testing.T) {
	before := testutil.ToFloat64(StoreOperationCounter.WithLabelValues("add", "employees", "ok"))
	RecordStoreOperation("add", "employees", "ok")
	after := testutil.ToFloat64(StoreOperationCounter.WithLabelValues("add", "employees", "ok"))
	assert.Equal(t, before+1, after)
}

func TestTrackStoreOperationObserves(t *testing.T) {
	TrackStoreOperation("get", "partners")(time.Now())
	assert.GreaterOrEqual(t, testutil.CollectAndCount(StoreOperationDuration), 1)
}

func TestMetricsMiddleware(t *testing.T) {
	e := echo.New()
	e.Use(MetricsMiddleware())
	e.GET("/api/things", func(c echo.Context) error {
		return c.NoContent(http.StatusAccepted)
	})

	counter := HTTPRequestCounter.WithLabelValues("/api/things", http.MethodGet, "202")
	before := testutil.ToFloat64(counter)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/things", nil))

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestPrometheusHandlerExposesMetrics(t *testing.T) {
	SetInfo("test", "memory")

	rec := httptest.NewRecorder()
	GetPrometheusHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `bizledger_info{store_driver="memory",version="test"} 1`))
}
