package domain

// Feed describes one upstream category listing. Feeds are loaded once at
// process start and never mutated.
type Feed struct {
	// Name identifies the feed in logs and metrics.
	Name string `json:"name"`
	// Path is the category path plus filter query fragment, ready to be
	// suffixed with offset/limit parameters.
	Path string `json:"path"`
}
