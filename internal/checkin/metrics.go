package checkin

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var checkinsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "kajian_checkins_total",
	Help: "Accepted check-ins by derived status.",
}, []string{"status"})

var checkinsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "kajian_checkins_rejected_total",
	Help: "Rejected check-in attempts by reason.",
}, []string{"reason"})
