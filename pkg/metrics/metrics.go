package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics коллектор метрик сервиса синхронизации бронирований
// Все методы безопасны для nil-получателя: при выключенных метриках
// компоненты получают nil и продолжают работать без записи метрик
type Metrics struct {
	registry *prometheus.Registry

	channelEvents    *prometheus.CounterVec
	channelDropped   *prometheus.CounterVec
	channelConnected prometheus.Gauge
	channelErrors    prometheus.Counter

	storeMerges   *prometheus.CounterVec
	storeSize     prometheus.Gauge
	fetchTotal    *prometheus.CounterVec
	fetchDuration prometheus.Histogram

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New создает коллектор метрик с собственным registry
func New(serviceName string) *Metrics {
	registry := prometheus.NewRegistry()
	constLabels := prometheus.Labels{"service": serviceName}

	m := &Metrics{
		registry: registry,
		channelEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "booking_sync_channel_events_total",
			Help:        "Push channel events accepted for merge, by event kind",
			ConstLabels: constLabels,
		}, []string{"kind"}),
		channelDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "booking_sync_channel_events_dropped_total",
			Help:        "Push channel events dropped at the boundary, by reason",
			ConstLabels: constLabels,
		}, []string{"reason"}),
		channelConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "booking_sync_channel_connected",
			Help:        "1 when a push channel session is live",
			ConstLabels: constLabels,
		}),
		channelErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "booking_sync_channel_transport_errors_total",
			Help:        "Transport-level push channel failures",
			ConstLabels: constLabels,
		}),
		storeMerges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "booking_sync_store_merges_total",
			Help:        "Store upserts by result (updated, inserted, rejected, stale)",
			ConstLabels: constLabels,
		}, []string{"result"}),
		storeSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "booking_sync_store_size",
			Help:        "Number of bookings currently held in the store",
			ConstLabels: constLabels,
		}),
		fetchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "booking_sync_fetch_total",
			Help:        "Full list fetches by result (applied, failed, discarded)",
			ConstLabels: constLabels,
		}, []string{"result"}),
		fetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        "booking_sync_fetch_duration_seconds",
			Help:        "Duration of full list fetches",
			ConstLabels: constLabels,
			Buckets:     prometheus.DefBuckets,
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "booking_sync_http_requests_total",
			Help:        "HTTP requests by route and status code",
			ConstLabels: constLabels,
		}, []string{"route", "method", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "booking_sync_http_request_duration_seconds",
			Help:        "HTTP request duration by route",
			ConstLabels: constLabels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.channelEvents,
		m.channelDropped,
		m.channelConnected,
		m.channelErrors,
		m.storeMerges,
		m.storeSize,
		m.fetchTotal,
		m.fetchDuration,
		m.httpRequests,
		m.httpDuration,
	)

	return m
}

// Handler возвращает http.Handler для эндпоинта /metrics
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry возвращает registry (используется в тестах)
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ChannelEventAccepted учитывает событие, прошедшее нормализацию
func (m *Metrics) ChannelEventAccepted(kind string) {
	if m == nil {
		return
	}
	m.channelEvents.WithLabelValues(kind).Inc()
}

// ChannelEventDropped учитывает отброшенное событие
func (m *Metrics) ChannelEventDropped(reason string) {
	if m == nil {
		return
	}
	m.channelDropped.WithLabelValues(reason).Inc()
}

// ChannelConnected выставляет состояние соединения
func (m *Metrics) ChannelConnected(connected bool) {
	if m == nil {
		return
	}
	if connected {
		m.channelConnected.Set(1)
		return
	}
	m.channelConnected.Set(0)
}

// ChannelTransportError учитывает ошибку транспорта
func (m *Metrics) ChannelTransportError() {
	if m == nil {
		return
	}
	m.channelErrors.Inc()
}

// StoreMerge учитывает результат upsert
func (m *Metrics) StoreMerge(result string) {
	if m == nil {
		return
	}
	m.storeMerges.WithLabelValues(result).Inc()
}

// StoreSize выставляет текущий размер хранилища
func (m *Metrics) StoreSize(n int) {
	if m == nil {
		return
	}
	m.storeSize.Set(float64(n))
}

// FetchObserved учитывает завершенную загрузку списка
func (m *Metrics) FetchObserved(result string, duration time.Duration) {
	if m == nil {
		return
	}
	m.fetchTotal.WithLabelValues(result).Inc()
	m.fetchDuration.Observe(duration.Seconds())
}

// HTTPRequestObserved учитывает обработанный HTTP запрос
func (m *Metrics) HTTPRequestObserved(route, method string, code int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(route, method).Observe(duration.Seconds())
}
