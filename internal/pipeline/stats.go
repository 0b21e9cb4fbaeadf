package pipeline

// RunStats tracks aggregate counters across a batch run.
type RunStats struct {
	Total            int
	Current          int
	Rendered         int
	Skipped          int
	Failed           int
	Segments         int     // Segments across all rendered plans.
	OutputSeconds    float64 // Planned output length across rendered plans.
	TotalOutputBytes int64
}

// OK reports whether no track failed.
func (s *RunStats) OK() bool {
	return s.Failed == 0
}
