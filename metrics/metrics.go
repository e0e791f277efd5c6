// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SheetFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "grades_sheet_fetches_total",
		Help: "Remote grade sheet fetches by result.",
	}, []string{"result"})

	Imports = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "grades_imports_total",
		Help: "Grade file imports by mode and result.",
	}, []string{"mode", "result"})

	StoreWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "grades_store_writes_total",
		Help: "Course store snapshot writes by result.",
	}, []string{"result"})

	Reports = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "grades_reports_total",
		Help: "Generated documents by format and result.",
	}, []string{"format", "result"})

	LoginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "grades_login_attempts_total",
		Help: "Teacher login attempts by result.",
	}, []string{"result"})
)

// Result maps an error to a label value.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
