package stats_collector

var _ StatsCollector = (*noopCollector)(nil)

type noopCollector struct {
}

func (col *noopCollector) IncRemoteCalls(string, string)      {}
func (col *noopCollector) ObserveRateLimitWait(float64)       {}
func (col *noopCollector) IncCacheLookups(string, string)     {}
func (col *noopCollector) IncCacheInvalidations(float64)      {}
func (col *noopCollector) IncPromptOperations(string, string) {}
func (col *noopCollector) AddPromptRows(string, float64)      {}
func (col *noopCollector) IncFileRequests(string, string)     {}

func NewNoopStatsCollector() StatsCollector {
	return &noopCollector{}
}
