package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	SkyStreamsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "astrochart",
			Subsystem: "sky",
			Name:      "streams_active",
			Help:      "Open sky websocket streams",
		},
	)

	SkyFramesSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "astrochart",
			Subsystem: "sky",
			Name:      "frames_total",
			Help:      "Sky snapshots written to websocket clients",
		},
	)

	SkyStreamsRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "astrochart",
			Subsystem: "sky",
			Name:      "streams_rejected_total",
			Help:      "Sky streams refused or ended by an error",
		},
		[]string{"reason"},
	)
)

// Register adds the sky stream collectors to reg once; nil means the default registerer.
func Register(reg prometheus.Registerer) {
	once.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		reg.MustRegister(SkyStreamsActive, SkyFramesSent, SkyStreamsRejected)
	})
}
