package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "mines_active_sessions",
			Help: "Live player sessions held by the registry",
		},
	)
	WagersSettled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mines_wagers_settled_total",
			Help: "Settled wagers by outcome",
		},
		[]string{"outcome"},
	)
	LedgerOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_operations_total",
			Help: "Balance mutations by operation and result",
		},
		[]string{"op", "result"},
	)
	SettlementCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "settlement_calls_total",
			Help: "Calls to the settlement platform by endpoint and result",
		},
		[]string{"endpoint", "result"},
	)
	SettlementReports = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "settlement_reports_total",
			Help: "Order report deliveries by result (delivered, retry, dead)",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(ActiveSessions)
	prometheus.MustRegister(WagersSettled)
	prometheus.MustRegister(LedgerOperations)
	prometheus.MustRegister(SettlementCalls)
	prometheus.MustRegister(SettlementReports)
}
