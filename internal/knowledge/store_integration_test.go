package knowledge

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brewchat/brewchat/internal/log"
	"github.com/brewchat/brewchat/internal/testutil"
)

// fixedEmbedder maps exact texts to pre-registered vectors, so the cosine
// similarity the database computes is known ahead of time and the tests run
// without a model API key.
type fixedEmbedder struct {
	vectors map[string][]float32
}

func (e *fixedEmbedder) Name() string { return "fixed-test-embedder" }

func (e *fixedEmbedder) Register(api.Registry) {}

func (e *fixedEmbedder) Embed(_ context.Context, req *ai.EmbedRequest) (*ai.EmbedResponse, error) {
	resp := &ai.EmbedResponse{}
	for _, doc := range req.Input {
		text := doc.Content[0].Text
		vec, ok := e.vectors[text]
		if !ok {
			return nil, fmt.Errorf("no vector registered for %q", text)
		}
		resp.Embeddings = append(resp.Embeddings, &ai.Embedding{Embedding: vec})
	}
	return resp, nil
}

// unitVector builds a unit vector whose cosine similarity against
// unitVector(1) equals the given value.
func unitVector(similarity float64) []float32 {
	v := make([]float32, VectorDimension)
	v[0] = float32(similarity)
	v[1] = float32(math.Sqrt(1 - similarity*similarity))
	return v
}

func TestStoreSearchThresholdLimitOrder_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	tdb, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	const query = "floral coffee"
	embedder := &fixedEmbedder{vectors: map[string][]float32{
		query:          unitVector(1),
		"yirgacheffe":  unitVector(0.9),
		"geisha":       unitVector(0.8),
		"bourbon":      unitVector(0.7),
		"caturra":      unitVector(0.6),
		"brew-station": unitVector(0.3),
	}}

	store, err := NewStore(tdb.Pool, embedder, log.NewNop())
	require.NoError(t, err)

	docs := []Document{
		{ID: "brew-station", Content: "brew-station"},
		{ID: "caturra", Content: "caturra"},
		{ID: "bourbon", Content: "bourbon"},
		{ID: "geisha", Content: "geisha"},
		{ID: "yirgacheffe", Content: "yirgacheffe"},
	}
	require.NoError(t, store.Add(ctx, docs))

	// The threshold excludes the 0.3 document even with room to spare.
	results, err := store.Search(ctx, query, WithTopK(10), WithThreshold(0.4))
	require.NoError(t, err)
	require.Len(t, results, 4)
	for _, res := range results {
		assert.NotEqual(t, "brew-station", res.Document.ID,
			"sub-threshold document must not be returned")
	}
	for i := 1; i < len(results); i++ {
		assert.LessOrEqual(t, results[i].Similarity, results[i-1].Similarity,
			"similarities must be non-increasing")
	}
	assert.InDelta(t, 0.9, results[0].Similarity, 1e-3)

	// The result cap truncates after ordering, keeping the best documents.
	results, err = store.Search(ctx, query, WithTopK(3), WithThreshold(0.4))
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "yirgacheffe", results[0].Document.ID)
	assert.Equal(t, "geisha", results[1].Document.ID)
	assert.Equal(t, "bourbon", results[2].Document.ID)
}

func TestStoreSearchTieBreaksByID_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	tdb, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	const query = "house blend"
	embedder := &fixedEmbedder{vectors: map[string][]float32{
		query:     unitVector(1),
		"same-a":  unitVector(0.8),
		"same-z":  unitVector(0.8),
		"distant": unitVector(0.5),
	}}

	store, err := NewStore(tdb.Pool, embedder, log.NewNop())
	require.NoError(t, err)

	// Inserted z before a to rule out insertion-order luck.
	require.NoError(t, store.Add(ctx, []Document{
		{ID: "blend-z", Content: "same-z"},
		{ID: "blend-a", Content: "same-a"},
		{ID: "blend-m", Content: "distant"},
	}))

	for i := 0; i < 5; i++ {
		results, err := store.Search(ctx, query, WithTopK(3), WithThreshold(0.4))
		require.NoError(t, err)
		require.Len(t, results, 3)
		assert.Equal(t, "blend-a", results[0].Document.ID, "equal-distance ties order by id")
		assert.Equal(t, "blend-z", results[1].Document.ID)
		assert.Equal(t, "blend-m", results[2].Document.ID)
	}
}

func TestStoreAddUpsertsByID_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	tdb, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	const query = "decaf"
	embedder := &fixedEmbedder{vectors: map[string][]float32{
		query:      unitVector(1),
		"original": unitVector(0.9),
		"updated":  unitVector(0.9),
	}}

	store, err := NewStore(tdb.Pool, embedder, log.NewNop())
	require.NoError(t, err)

	require.NoError(t, store.Add(ctx, []Document{{ID: "doc-1", Content: "original"}}))
	require.NoError(t, store.Add(ctx, []Document{{ID: "doc-1", Content: "updated", Metadata: map[string]string{"rev": "2"}}}))

	var count int
	require.NoError(t, tdb.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count))
	assert.Equal(t, 1, count, "re-ingesting the same id must update in place")

	results, err := store.Search(ctx, query, WithTopK(1))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "updated", results[0].Document.Content)
	assert.Equal(t, "2", results[0].Document.Metadata["rev"])
}
