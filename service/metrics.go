package service

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics 服务指标
type Metrics struct {
	Requests  *prometheus.CounterVec   // 按操作与错误码计数
	Duration  *prometheus.HistogramVec // 操作耗时
	PoolQueue prometheus.GaugeFunc     // 等待执行的任务数
}

// NewMetrics 创建指标并注册到 reg，reg 为 nil 时不注册
func NewMetrics(namespace string, reg prometheus.Registerer, waiting func() int) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Total number of stego operations by result code",
			},
			[]string{"op", "code"},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Stego operation duration in seconds",
				Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"op"},
		),
		PoolQueue: prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "pool_waiting",
				Help:      "Number of tasks waiting for a worker",
			},
			func() float64 {
				if waiting == nil {
					return 0
				}
				return float64(waiting())
			},
		),
	}

	if reg != nil {
		reg.MustRegister(m.Requests, m.Duration, m.PoolQueue)
	}
	return m
}

// observe 记录一次操作
func (m *Metrics) observe(op string, code int, start time.Time) {
	m.Requests.WithLabelValues(op, strconv.Itoa(code)).Inc()
	m.Duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
