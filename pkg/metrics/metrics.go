package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pitstrategy"

type Metrics struct {
	registry             *prometheus.Registry
	commandsExecuted     *prometheus.CounterVec
	strategiesCalculated *prometheus.CounterVec
	chatsSeen            prometheus.Gauge
}

// New creates the metrics on a fresh registry. Process and go collectors
// are registered as well.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		commandsExecuted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_executed_total",
			Help:      "Executed commands",
		}, []string{"command", "success"}),
		strategiesCalculated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "strategies_calculated_total",
			Help:      "Calculated strategies by kind",
		}, []string{"kind"}),
		chatsSeen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "chats_seen",
			Help:      "Number of distinct chats the bot received commands from",
		}),
	}
	reg.MustRegister(
		m.commandsExecuted,
		m.strategiesCalculated,
		m.chatsSeen,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) CommandExecuted(command string, success bool) {
	m.commandsExecuted.WithLabelValues(command, strconv.FormatBool(success)).Inc()
}

func (m *Metrics) StrategyCalculated(kind string) {
	m.strategiesCalculated.WithLabelValues(kind).Inc()
}

func (m *Metrics) SetChatsSeen(n int) {
	m.chatsSeen.Set(float64(n))
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) CommandsExecuted() *prometheus.CounterVec {
	return m.commandsExecuted
}

func (m *Metrics) ChatsSeen() prometheus.Gauge {
	return m.chatsSeen
}
