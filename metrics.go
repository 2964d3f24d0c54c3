package main

import (
	"github.com/gin-gonic/gin"
	prom "github.com/prometheus/client_golang/prometheus"
	promcollect "github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the server's Prometheus collectors on a private registry.
type Metrics struct {
	registry         *prom.Registry
	PageViews        *prom.CounterVec
	RevealSessions   prom.Gauge
	CountersFinished *prom.CounterVec
	QRGenerated      *prom.CounterVec
}

// NewMetrics registers every collector on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prom.NewRegistry(),
		PageViews: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "portfolio", Name: "page_views_total", Help: "Tracked page views by path",
		}, []string{"path"}),
		RevealSessions: prom.NewGauge(prom.GaugeOpts{
			Namespace: "portfolio", Name: "reveal_sessions_active", Help: "Open count-up streams",
		}),
		CountersFinished: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "portfolio", Name: "counters_finished_total", Help: "Counters that reached their target",
		}, []string{"group"}),
		QRGenerated: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "portfolio", Name: "qr_generated_total", Help: "QR codes encoded (cache misses)",
		}, []string{"name"}),
	}
	m.registry.MustRegister(m.PageViews, m.RevealSessions, m.CountersFinished, m.QRGenerated)
	m.registry.MustRegister(promcollect.NewGoCollector(), promcollect.NewProcessCollector(promcollect.ProcessCollectorOpts{}))
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
