package shared

import (
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const maxLatencySamples = 1000

// OperationStats aggregates calls of one named operation.
type OperationStats struct {
	Calls          int64         `json:"calls"`
	Failures       int64         `json:"failures"`
	TotalDuration  time.Duration `json:"total_duration"`
	AverageLatency time.Duration `json:"average_latency"`
	P95Latency     time.Duration `json:"p95_latency"`
	MaxLatency     time.Duration `json:"max_latency"`
}

// ServiceMetrics tracks per-operation success and latency for one service.
type ServiceMetrics struct {
	serviceName string
	mutex       sync.RWMutex
	operations  map[string]*OperationStats
	samples     map[string][]time.Duration
	counters    map[string]int64
	lastUpdated time.Time
}

// ServiceMetricsSnapshot is a lock-free copy of ServiceMetrics.
type ServiceMetricsSnapshot struct {
	ServiceName string                    `json:"service_name"`
	Operations  map[string]OperationStats `json:"operations"`
	Counters    map[string]int64          `json:"counters"`
	LastUpdated time.Time                 `json:"last_updated"`
}

func NewServiceMetrics(serviceName string) *ServiceMetrics {
	return &ServiceMetrics{
		serviceName: serviceName,
		operations:  make(map[string]*OperationStats),
		samples:     make(map[string][]time.Duration),
		counters:    make(map[string]int64),
		lastUpdated: time.Now(),
	}
}

// RecordOperation records one call of operation.
func (m *ServiceMetrics) RecordOperation(operation string, success bool, duration time.Duration) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	stats, ok := m.operations[operation]
	if !ok {
		stats = &OperationStats{}
		m.operations[operation] = stats
	}

	stats.Calls++
	if !success {
		stats.Failures++
	}
	stats.TotalDuration += duration
	stats.AverageLatency = time.Duration(int64(stats.TotalDuration) / stats.Calls)
	if duration > stats.MaxLatency {
		stats.MaxLatency = duration
	}

	samples := append(m.samples[operation], duration)
	if len(samples) > maxLatencySamples {
		samples = samples[len(samples)-maxLatencySamples:]
	}
	m.samples[operation] = samples
	stats.P95Latency = percentile(samples, 0.95)

	m.lastUpdated = time.Now()
}

// IncrementCounter bumps a named counter such as "cache_hit_vehicle".
func (m *ServiceMetrics) IncrementCounter(key string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.counters[key]++
	m.lastUpdated = time.Now()
}

func (m *ServiceMetrics) Counter(key string) int64 {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.counters[key]
}

// SuccessRate returns the success percentage across all operations.
func (m *ServiceMetrics) SuccessRate() float64 {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var calls, failures int64
	for _, stats := range m.operations {
		calls += stats.Calls
		failures += stats.Failures
	}
	if calls == 0 {
		return 0
	}
	return float64(calls-failures) / float64(calls) * 100.0
}

func (m *ServiceMetrics) Snapshot() ServiceMetricsSnapshot {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	operations := make(map[string]OperationStats, len(m.operations))
	for name, stats := range m.operations {
		operations[name] = *stats
	}
	counters := make(map[string]int64, len(m.counters))
	for key, value := range m.counters {
		counters[key] = value
	}

	return ServiceMetricsSnapshot{
		ServiceName: m.serviceName,
		Operations:  operations,
		Counters:    counters,
		LastUpdated: m.lastUpdated,
	}
}

// LogSummary logs one line per operation plus the counters.
func (m *ServiceMetrics) LogSummary() {
	snapshot := m.Snapshot()

	for name, stats := range snapshot.Operations {
		logrus.WithFields(logrus.Fields{
			"service_name":    snapshot.ServiceName,
			"operation":       name,
			"calls":           stats.Calls,
			"failures":        stats.Failures,
			"average_latency": stats.AverageLatency,
			"p95_latency":     stats.P95Latency,
			"max_latency":     stats.MaxLatency,
		}).Info("Service operation metrics")
	}

	logrus.WithFields(logrus.Fields{
		"service_name": snapshot.ServiceName,
		"counters":     snapshot.Counters,
		"success_rate": m.SuccessRate(),
	}).Info("Service metrics summary")
}

func (m *ServiceMetrics) Reset() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.operations = make(map[string]*OperationStats)
	m.samples = make(map[string][]time.Duration)
	m.counters = make(map[string]int64)
	m.lastUpdated = time.Now()
}

func percentile(samples []time.Duration, p float64) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	sorted := make([]time.Duration, len(samples))
	copy(sorted, samples)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	index := int(float64(len(sorted)) * p)
	if index >= len(sorted) {
		index = len(sorted) - 1
	}
	return sorted[index]
}

// DatabaseMetrics tracks store query outcomes.
type DatabaseMetrics struct {
	mutex            sync.RWMutex
	TotalQueries     int64         `json:"total_queries"`
	FailedQueries    int64         `json:"failed_queries"`
	SlowQueries      int64         `json:"slow_queries"`
	Retries          int64         `json:"retries"`
	TotalQueryTime   time.Duration `json:"total_query_time"`
	AverageQueryTime time.Duration `json:"average_query_time"`
	slowQueryCeiling time.Duration
}

func NewDatabaseMetrics(slowQueryThreshold time.Duration) *DatabaseMetrics {
	return &DatabaseMetrics{slowQueryCeiling: slowQueryThreshold}
}

func (dm *DatabaseMetrics) RecordQuery(success bool, queryTime time.Duration) {
	dm.mutex.Lock()
	defer dm.mutex.Unlock()

	dm.TotalQueries++
	dm.TotalQueryTime += queryTime
	dm.AverageQueryTime = time.Duration(int64(dm.TotalQueryTime) / dm.TotalQueries)
	if !success {
		dm.FailedQueries++
	}
	if dm.slowQueryCeiling > 0 && queryTime > dm.slowQueryCeiling {
		dm.SlowQueries++
	}
}

func (dm *DatabaseMetrics) RecordRetry() {
	dm.mutex.Lock()
	defer dm.mutex.Unlock()
	dm.Retries++
}

// DatabaseMetricsSnapshot is a copy safe to serialize.
type DatabaseMetricsSnapshot struct {
	TotalQueries     int64         `json:"total_queries"`
	FailedQueries    int64         `json:"failed_queries"`
	SlowQueries      int64         `json:"slow_queries"`
	Retries          int64         `json:"retries"`
	AverageQueryTime time.Duration `json:"average_query_time"`
}

func (dm *DatabaseMetrics) Snapshot() DatabaseMetricsSnapshot {
	dm.mutex.RLock()
	defer dm.mutex.RUnlock()

	return DatabaseMetricsSnapshot{
		TotalQueries:     dm.TotalQueries,
		FailedQueries:    dm.FailedQueries,
		SlowQueries:      dm.SlowQueries,
		Retries:          dm.Retries,
		AverageQueryTime: dm.AverageQueryTime,
	}
}

// HTTPMetrics tracks outbound provider requests.
type HTTPMetrics struct {
	mutex             sync.RWMutex
	totalRequests     int64
	failedRequests    int64
	retryAttempts     int64
	totalResponseTime time.Duration
	statusCodeCounts  map[int]int64
}

type HTTPMetricsSnapshot struct {
	TotalRequests       int64         `json:"total_requests"`
	FailedRequests      int64         `json:"failed_requests"`
	RetryAttempts       int64         `json:"retry_attempts"`
	AverageResponseTime time.Duration `json:"average_response_time"`
	StatusCodeCounts    map[int]int64 `json:"status_code_counts"`
}

func NewHTTPMetrics() *HTTPMetrics {
	return &HTTPMetrics{statusCodeCounts: make(map[int]int64)}
}

// RecordHTTPRequest records one attempt. statusCode is 0 for transport errors.
func (hm *HTTPMetrics) RecordHTTPRequest(success bool, statusCode int, responseTime time.Duration) {
	hm.mutex.Lock()
	defer hm.mutex.Unlock()

	hm.totalRequests++
	hm.totalResponseTime += responseTime
	if !success {
		hm.failedRequests++
	}
	hm.statusCodeCounts[statusCode]++
}

func (hm *HTTPMetrics) RecordRetryAttempt() {
	hm.mutex.Lock()
	defer hm.mutex.Unlock()
	hm.retryAttempts++
}

func (hm *HTTPMetrics) Snapshot() HTTPMetricsSnapshot {
	hm.mutex.RLock()
	defer hm.mutex.RUnlock()

	codes := make(map[int]int64, len(hm.statusCodeCounts))
	for code, count := range hm.statusCodeCounts {
		codes[code] = count
	}

	var average time.Duration
	if hm.totalRequests > 0 {
		average = time.Duration(int64(hm.totalResponseTime) / hm.totalRequests)
	}

	return HTTPMetricsSnapshot{
		TotalRequests:       hm.totalRequests,
		FailedRequests:      hm.failedRequests,
		RetryAttempts:       hm.retryAttempts,
		AverageResponseTime: average,
		StatusCodeCounts:    codes,
	}
}

// ExtractionMetrics counts per-field success when scraping vehicle pages.
type ExtractionMetrics struct {
	mutex    sync.Mutex
	attempts map[string]int
	found    map[string]int
}

func NewExtractionMetrics() *ExtractionMetrics {
	return &ExtractionMetrics{
		attempts: make(map[string]int),
		found:    make(map[string]int),
	}
}

func (m *ExtractionMetrics) RecordField(field string, found bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.attempts[field]++
	if found {
		m.found[field]++
	}
}

// FieldSuccessRate returns the percentage of pages where field was found.
func (m *ExtractionMetrics) FieldSuccessRate(field string) float64 {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.attempts[field] == 0 {
		return 0
	}
	return float64(m.found[field]) / float64(m.attempts[field]) * 100.0
}

func (m *ExtractionMetrics) LogSummary() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	rates := make(map[string]float64, len(m.attempts))
	for field, attempts := range m.attempts {
		rates[field] = float64(m.found[field]) / float64(attempts) * 100.0
	}

	logrus.WithFields(logrus.Fields{
		"component":     "ExtractionMetrics",
		"field_success": rates,
	}).Info("Vehicle page extraction summary")
}
