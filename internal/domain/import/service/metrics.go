package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	commitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bizpulse_import_commits_total",
		Help: "Import commits by kind and outcome.",
	}, []string{"kind", "outcome"})

	rowsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bizpulse_import_rows_total",
		Help: "Records written by import commits.",
	}, []string{"kind"})

	validationErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bizpulse_import_validation_errors_total",
		Help: "Validation findings reported for selected files.",
	}, []string{"kind"})
)
