package metrics

import (
	"fmt"

	dto "github.com/prometheus/client_model/go"
)

// Summary is the compact JSON view of the HTTP collectors.
type Summary struct {
	RequestsTotal int            `json:"requests_total"`
	ByRoute       map[string]int `json:"by_route"`
	AvgLatencyMs  float64        `json:"avg_latency_ms"`
}

// Summary gathers the registry and folds the HTTP series into request
// counts per "METHOD route" and an overall average latency.
func (m *Metrics) Summary() (Summary, error) {
	out := Summary{ByRoute: map[string]int{}}
	if m == nil {
		return out, nil
	}

	families, err := m.Registry.Gather()
	if err != nil {
		return out, fmt.Errorf("gather metrics: %w", err)
	}

	var latencySum float64
	var latencyCount uint64
	for _, mf := range families {
		switch mf.GetName() {
		case "http_requests_total":
			for _, metric := range mf.GetMetric() {
				labels := labelMap(metric)
				n := int(metric.GetCounter().GetValue())
				out.RequestsTotal += n
				out.ByRoute[labels["method"]+" "+labels["route"]] += n
			}
		case "http_request_duration_seconds":
			for _, metric := range mf.GetMetric() {
				latencySum += metric.GetHistogram().GetSampleSum()
				latencyCount += metric.GetHistogram().GetSampleCount()
			}
		}
	}
	if latencyCount > 0 {
		out.AvgLatencyMs = round2(latencySum / float64(latencyCount) * 1000)
	}
	return out, nil
}

func labelMap(m *dto.Metric) map[string]string {
	out := make(map[string]string, len(m.GetLabel()))
	for _, lp := range m.GetLabel() {
		out[lp.GetName()] = lp.GetValue()
	}
	return out
}
