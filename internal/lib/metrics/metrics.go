// Package metrics содержит счетчики платежного сервиса.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "eltawla"

// Metrics набор коллекторов одного экземпляра сервиса.
type Metrics struct {
	Payments         *prometheus.CounterVec
	GatewayErrors    *prometheus.CounterVec
	Unrecorded       prometheus.Counter
	UnknownStatus    prometheus.Counter
	MethodOperations *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
}

// New создает коллекторы и регистрирует их в reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Payments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_total",
			Help:      "Payments processed, by outcome.",
		}, []string{"outcome"}),
		GatewayErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gateway_errors_total",
			Help:      "Gateway rejections, by normalized code.",
		}, []string{"code"}),
		Unrecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_unrecorded_total",
			Help:      "Charges accepted by the gateway that could not be stored.",
		}),
		UnknownStatus: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_unknown_status_total",
			Help:      "Payments whose gateway status is not recognized.",
		}),
		MethodOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_method_operations_total",
			Help:      "Payment method operations, by operation and result.",
		}, []string{"operation", "result"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	if reg != nil {
		reg.MustRegister(m.Payments, m.GatewayErrors, m.Unrecorded, m.UnknownStatus, m.MethodOperations, m.RequestDuration)
	}
	return m
}

// ObservePayment учитывает итог платежа.
func (m *Metrics) ObservePayment(outcome string) {
	if m == nil {
		return
	}
	m.Payments.WithLabelValues(outcome).Inc()
}

// ObserveGatewayError учитывает отказ шлюза.
func (m *Metrics) ObserveGatewayError(code string) {
	if m == nil {
		return
	}
	m.GatewayErrors.WithLabelValues(code).Inc()
}

// ObserveUnrecorded учитывает списание без записи в базе.
func (m *Metrics) ObserveUnrecorded() {
	if m == nil {
		return
	}
	m.Unrecorded.Inc()
}

// ObserveUnknownStatus учитывает неизвестный статус платежа.
func (m *Metrics) ObserveUnknownStatus() {
	if m == nil {
		return
	}
	m.UnknownStatus.Inc()
}

// ObserveMethodOperation учитывает операцию над способом оплаты.
func (m *Metrics) ObserveMethodOperation(operation string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.MethodOperations.WithLabelValues(operation, result).Inc()
}

// ObserveRequest учитывает длительность HTTP запроса.
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}
