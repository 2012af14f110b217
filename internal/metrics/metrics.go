package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	fillsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "formpilot_fills_total",
		Help: "Total number of fill invocations executed",
	})
	fillErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "formpilot_fill_errors_total",
		Help: "Total number of field or action errors recorded during fills",
	})
	fieldsFilledTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "formpilot_fields_filled_total",
		Help: "Total number of form fields successfully written",
	})
	placeholdersTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "formpilot_placeholders_total",
		Help: "Total number of template placeholders resolved, by type",
	}, []string{"type"})
	defaultResolutionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "formpilot_default_resolutions_total",
		Help: "Total number of successful default-rule resolutions",
	})
)

// Register registers Prometheus collectors. Call once at startup.
func Register(registry *prometheus.Registry) {
	registry.MustRegister(fillsTotal, fillErrorsTotal, fieldsFilledTotal, placeholdersTotal, defaultResolutionsTotal)
}

// IncFill increments the fill invocations counter.
func IncFill() { fillsTotal.Inc() }

// AddFillErrors adds to the recorded fill errors counter.
func AddFillErrors(n int) { fillErrorsTotal.Add(float64(n)) }

// AddFieldsFilled adds to the successfully written fields counter.
func AddFieldsFilled(n int) { fieldsFilledTotal.Add(float64(n)) }

// IncPlaceholder increments the resolved placeholder counter for a type.
func IncPlaceholder(pType string) { placeholdersTotal.WithLabelValues(pType).Inc() }

// IncDefaultResolution increments the default-rule resolution counter.
func IncDefaultResolution() { defaultResolutionsTotal.Inc() }
