package metric

import "github.com/prometheus/client_golang/prometheus"

// StatsSource is what the collector reads at scrape time.
type StatsSource interface {
	SubsystemCount() int
	OperationCounts() map[string]int
}

// Collector exports coordinator table sizes as gauges.
type Collector struct {
	src        StatsSource
	subsystems *prometheus.Desc
	operations *prometheus.Desc
}

// NewCollector creates a collector over src.
func NewCollector(src StatsSource) *Collector {
	return &Collector{
		src: src,
		subsystems: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "subsystems_registered"),
			"Subsystems currently registered with the coordinator.",
			nil, nil,
		),
		operations: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "operations"),
			"Operation records held by the coordinator, by status.",
			[]string{"status"}, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.subsystems
	ch <- c.operations
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.subsystems, prometheus.GaugeValue, float64(c.src.SubsystemCount()))
	for status, n := range c.src.OperationCounts() {
		ch <- prometheus.MustNewConstMetric(c.operations, prometheus.GaugeValue, float64(n), status)
	}
}
