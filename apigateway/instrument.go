package gateway

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var instrumentOnce sync.Once
var instrumentHandler gin.HandlerFunc

// Instrumentation exposes request counters and latency histograms for the
// probe's own http surface. Registered once; gin engines built in tests
// share the same collectors.
func Instrumentation() gin.HandlerFunc {
	instrumentOnce.Do(func() {
		counterVec := prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "probe",
			Subsystem: "request",
			Name:      "requests_count",
			Help:      "Number of requests per each endpoint",
		}, []string{"code", "method", "handler", "host", "url"})

		resTime := prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "probe",
			Subsystem: "response",
			Name:      "response_time_hist",
			Help:      "probe response duration",
		})

		resSize := prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "probe",
			Subsystem: "response",
			Name:      "size_histogram",
			Help:      "probe response size",
		})

		reqSize := prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "probe",
			Subsystem: "request",
			Name:      "size_hist",
			Help:      "Request size instrumenter",
		})

		resTimeSum := prometheus.NewSummary(prometheus.SummaryOpts{
			Namespace: "probe",
			Subsystem: "response",
			Name:      "latency_summary",
			Help:      "Computes responses latency",
		})

		colls := []prometheus.Collector{counterVec, resTime, resSize, reqSize, resTimeSum}
		for _, v := range colls {
			if err := prometheus.Register(v); err != nil {
				panic(err)
			}
		}
		instrumentHandler = func(c *gin.Context) {
			if c.Request.URL.Path == "/metrics" {
				c.Next()
				return
			}
			start := time.Now()
			c.Next()
			duration := float64(time.Since(start)) * 1e-6 // to millisecond

			rSize := c.Writer.Size()
			rqSize := c.Request.ContentLength

			status := strconv.Itoa(c.Writer.Status())

			counterVec.WithLabelValues(status, c.Request.Method, c.HandlerName(), c.Request.Host, c.Request.URL.Path).Inc()
			resTime.Observe(duration)
			resSize.Observe(float64(rSize))
			reqSize.Observe(float64(rqSize))
			resTimeSum.Observe(duration)
		}
	})
	return instrumentHandler
}
