package knowledge

// Document is one retrievable unit in the vector store.
type Document struct {
	ID       string            // unique identifier; re-ingesting the same ID upserts
	Content  string            // text that gets embedded and retrieved
	Metadata map[string]string // free-form metadata stored as JSONB
}

// Result is a single search hit with its cosine similarity score (0-1).
type Result struct {
	Document   Document
	Similarity float64
}

// SearchConfig holds the resolved search parameters after all options are
// applied.
type SearchConfig struct {
	TopK      int
	Threshold float64
}

// SearchOption configures search behavior using the functional options
// pattern.
type SearchOption func(*SearchConfig)

// WithTopK sets the maximum number of results to return. Default is 5.
func WithTopK(k int) SearchOption {
	return func(c *SearchConfig) {
		if k > 0 {
			c.TopK = k
		}
	}
}

// WithThreshold excludes results whose similarity is below the given value.
// Default is 0 (no filtering).
func WithThreshold(min float64) SearchOption {
	return func(c *SearchConfig) {
		c.Threshold = min
	}
}

// NewSearchConfig applies opts over the defaults.
func NewSearchConfig(opts ...SearchOption) *SearchConfig {
	cfg := &SearchConfig{TopK: 5}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
