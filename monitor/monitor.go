// monitor/monitor.go
package monitor

import (
	"expvar"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wfunc/fighterselect/models"
)

type Metrics struct {
	OnlineSessions      prometheus.Gauge
	ActiveScreens       prometheus.Gauge
	MessagesReceived    prometheus.Counter
	MessageLatency      prometheus.Histogram
	FightersSelected    *prometheus.CounterVec
	LockedAttempts      *prometheus.CounterVec
	ClicksDiscarded     *prometheus.CounterVec
	SelectionsValidated prometheus.Counter
	SeatTransitions     *prometheus.CounterVec
}

func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		OnlineSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "online_sessions",
			Help:      "Number of connected clients",
		}),
		ActiveScreens: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_screens",
			Help:      "Number of open selection screens",
		}),
		MessagesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_received_total",
			Help:      "Total number of messages received",
		}),
		MessageLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "message_latency_seconds",
			Help:      "Message processing latency",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 10),
		}),
		FightersSelected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fighters_selected_total",
			Help:      "Confirmed fighter selections",
		}, []string{"player", "team"}),
		LockedAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "locked_selection_attempts_total",
			Help:      "Clicks on fighters that are still locked",
		}, []string{"player"}),
		ClicksDiscarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clicks_discarded_total",
			Help:      "Clicks dropped by a panel",
		}, []string{"player", "reason"}),
		SelectionsValidated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "selections_validated_total",
			Help:      "Selections validated by the screen owner",
		}),
		SeatTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "seat_transitions_total",
			Help:      "Per-player seat state changes",
		}, []string{"player", "from", "to"}),
	}

	reg.MustRegister(
		m.OnlineSessions,
		m.ActiveScreens,
		m.MessagesReceived,
		m.MessageLatency,
		m.FightersSelected,
		m.LockedAttempts,
		m.ClicksDiscarded,
		m.SelectionsValidated,
		m.SeatTransitions,
	)

	return m
}

// Monitor owns a registry and implements selection.Metrics on top of it.
type Monitor struct {
	metrics      *Metrics
	registry     *prometheus.Registry
	startTime    time.Time
	requestCount int64
	mutex        sync.Mutex
}

var publishOnce sync.Once

func NewMonitor(namespace string) *Monitor {
	reg := prometheus.NewRegistry()
	return &Monitor{
		metrics:   NewMetrics(namespace, reg),
		registry:  reg,
		startTime: time.Now(),
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Monitor) Registry() *prometheus.Registry { return m.registry }

func (m *Monitor) Metrics() *Metrics { return m.metrics }

// Handler serves the prometheus exposition format.
func (m *Monitor) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// PublishExpvar adds uptime and request counters to /debug/vars. Only the first
// monitor of the process is published.
func (m *Monitor) PublishExpvar() {
	publishOnce.Do(func() {
		// 添加expvar指标
		expvar.Publish("uptime", expvar.Func(func() interface{} {
			return time.Since(m.startTime).Seconds()
		}))

		expvar.Publish("requests", expvar.Func(func() interface{} {
			m.mutex.Lock()
			defer m.mutex.Unlock()
			return m.requestCount
		}))
	})
}

func (m *Monitor) IncOnlineSessions() {
	m.metrics.OnlineSessions.Inc()
}

func (m *Monitor) DecOnlineSessions() {
	m.metrics.OnlineSessions.Dec()
}

func (m *Monitor) SetActiveScreens(count int) {
	m.metrics.ActiveScreens.Set(float64(count))
}

func (m *Monitor) IncMessagesReceived() {
	m.metrics.MessagesReceived.Inc()
	m.mutex.Lock()
	m.requestCount++
	m.mutex.Unlock()
}

func (m *Monitor) ObserveMessageLatency(duration time.Duration) {
	m.metrics.MessageLatency.Observe(duration.Seconds())
}

// --- 实现 selection.Metrics 接口 ---

func (m *Monitor) FighterSelected(player models.Player, team models.Team) {
	m.metrics.FightersSelected.WithLabelValues(player.String(), string(team)).Inc()
}

func (m *Monitor) LockedSelectionAttempted(player models.Player) {
	m.metrics.LockedAttempts.WithLabelValues(player.String()).Inc()
}

func (m *Monitor) ClickDiscarded(player models.Player, reason string) {
	m.metrics.ClicksDiscarded.WithLabelValues(player.String(), reason).Inc()
}

func (m *Monitor) SelectionValidated() {
	m.metrics.SelectionsValidated.Inc()
}

func (m *Monitor) SeatStateChanged(player models.Player, from, to string) {
	m.metrics.SeatTransitions.WithLabelValues(player.String(), from, to).Inc()
}
