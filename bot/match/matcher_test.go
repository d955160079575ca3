package match

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"OrbitCS/bot/catalog"
	"OrbitCS/entity"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func simpleCatalog(t *testing.T, keys ...string) *catalog.Catalog {
	t.Helper()
	commands := make([]*entity.Command, 0, len(keys))
	for _, key := range keys {
		commands = append(commands, &entity.Command{Key: key, Kind: entity.KindSimple, Response: "ok"})
	}
	cat, err := catalog.New(commands...)
	require.NoError(t, err)
	return cat
}

// fakeEmbedder returns canned vectors per exact (normalized) text.
type fakeEmbedder struct {
	vectors map[string][]float32
	err     error
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	vec, ok := f.vectors[text]
	if !ok {
		return nil, fmt.Errorf("no vector for %q", text)
	}
	return vec, nil
}

func TestLexicalFloorInclusive(t *testing.T) {
	cat := simpleCatalog(t, "abcdefghij")
	m, err := NewMatcher(context.Background(), cat, nil, testLogger())
	require.NoError(t, err)

	// Two edits on ten runes is exactly 0.80 and must pass.
	result := m.Match(context.Background(), "abcdefghXX", StrategyLexical)
	require.True(t, result.Matched())
	assert.Equal(t, "abcdefghij", result.CommandKey)
	assert.InDelta(t, 0.80, result.Score, 1e-9)
	assert.Equal(t, entity.MatchLexical, result.Method)

	// Three edits is 0.70 and must not.
	result = m.Match(context.Background(), "abcdefgXXX", StrategyLexical)
	assert.False(t, result.Matched())
}

func TestLexicalExactMatch(t *testing.T) {
	cat := simpleCatalog(t, "order_status", "cancel_order")
	m, err := NewMatcher(context.Background(), cat, nil, testLogger())
	require.NoError(t, err)

	result := m.Match(context.Background(), "Order_Status", StrategyLexical)
	require.True(t, result.Matched())
	assert.Equal(t, "order_status", result.CommandKey)
	assert.InDelta(t, 1.0, result.Score, 1e-9)
}

func TestLexicalTieKeepsFirstLoaded(t *testing.T) {
	cat := simpleCatalog(t, "abcda", "abcdb")
	m, err := NewMatcher(context.Background(), cat, nil, testLogger())
	require.NoError(t, err)

	// Equidistant from both keys; the first catalog entry wins.
	result := m.Match(context.Background(), "abcdc", StrategyLexical)
	require.True(t, result.Matched())
	assert.Equal(t, "abcda", result.CommandKey)
}

func TestMatchIsDeterministic(t *testing.T) {
	cat := simpleCatalog(t, "abcda", "abcdb", "order_status")
	m, err := NewMatcher(context.Background(), cat, nil, testLogger())
	require.NoError(t, err)

	first := m.Match(context.Background(), "abcdc", StrategyLexical)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, m.Match(context.Background(), "abcdc", StrategyLexical))
	}
}

func TestLexicalEmptyInput(t *testing.T) {
	cat := simpleCatalog(t, "order_status")
	m, err := NewMatcher(context.Background(), cat, nil, testLogger())
	require.NoError(t, err)

	result := m.Match(context.Background(), "please", StrategyLexical)
	assert.False(t, result.Matched())
}

func TestSemanticMatch(t *testing.T) {
	cat, err := catalog.New(
		&entity.Command{Key: "book_appointment", Kind: entity.KindSimple, Response: "ok",
			Samples: []string{"reserve a slot"}},
		&entity.Command{Key: "order_status", Kind: entity.KindSimple, Response: "ok"},
	)
	require.NoError(t, err)

	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"book_appointment": {1, 0, 0},
		"reserve a slot":   {0, 1, 0},
		"order_status":     {0, 0, 1},
		"get me a haircut": {0, 0.8, 0.6},
		"something else":   {-1, 0, 0},
	}}

	m, err := NewMatcher(context.Background(), cat, embedder, testLogger())
	require.NoError(t, err)

	// Closest to the booking sample vector.
	result := m.Match(context.Background(), "get me a haircut", StrategySemantic)
	require.True(t, result.Matched())
	assert.Equal(t, "book_appointment", result.CommandKey)
	assert.InDelta(t, 0.8, result.Score, 1e-6)
	assert.Equal(t, entity.MatchSemantic, result.Method)

	// Nothing above the routing floor.
	result = m.Match(context.Background(), "something else", StrategySemantic)
	assert.False(t, result.Matched())
}

func TestSemanticFloorBoundary(t *testing.T) {
	cat := simpleCatalog(t, "order_status")

	// cosine({1,1,1,1}, {1,0,0,0}) = 1/2 exactly; {1,2,0,0} lands at
	// 1/sqrt(5), just under the routing floor.
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"order_status":       {1, 0, 0, 0},
		"where are my goods": {1, 1, 1, 1},
		"something else":     {1, 2, 0, 0},
	}}

	m, err := NewMatcher(context.Background(), cat, embedder, testLogger())
	require.NoError(t, err)

	// Exactly 0.50 routes.
	result := m.Match(context.Background(), "where are my goods", StrategySemantic)
	require.True(t, result.Matched())
	assert.Equal(t, "order_status", result.CommandKey)
	assert.Equal(t, 0.5, result.Score)

	// Below 0.50 does not.
	result = m.Match(context.Background(), "something else", StrategySemantic)
	assert.False(t, result.Matched())
}

func TestBlendedWeights(t *testing.T) {
	cat := simpleCatalog(t, "order_status")

	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"order_status":      {1, 0},
		"status of my order": {0.9, 0.43588989},
	}}

	m, err := NewMatcher(context.Background(), cat, embedder, testLogger())
	require.NoError(t, err)

	result := m.Match(context.Background(), "status of my order", StrategyBlended)
	require.True(t, result.Matched())
	assert.Equal(t, "order_status", result.CommandKey)
	assert.Equal(t, entity.MatchBlended, result.Method)

	// 0.7 * cosine + 0.3 * lexical similarity against the key.
	expected := 0.7*0.9 + 0.3*lexicalScore("status of my order", "order_status")
	assert.InDelta(t, expected, result.Score, 1e-6)
}

func TestEmbedderErrorFallsBackToLexical(t *testing.T) {
	cat := simpleCatalog(t, "order_status")

	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"order_status": {1, 0},
	}}
	m, err := NewMatcher(context.Background(), cat, embedder, testLogger())
	require.NoError(t, err)

	embedder.err = fmt.Errorf("embedding service down")

	result := m.Match(context.Background(), "order_status", StrategySemantic)
	require.True(t, result.Matched())
	assert.Equal(t, entity.MatchLexical, result.Method)
	assert.Equal(t, "order_status", result.CommandKey)
}

func TestNilEmbedderUsesLexicalForEveryStrategy(t *testing.T) {
	cat := simpleCatalog(t, "order_status")
	m, err := NewMatcher(context.Background(), cat, nil, testLogger())
	require.NoError(t, err)

	for _, strategy := range []Strategy{StrategySemantic, StrategyBlended} {
		result := m.Match(context.Background(), "order_status", strategy)
		require.True(t, result.Matched(), "strategy %s", strategy)
		assert.Equal(t, entity.MatchLexical, result.Method)
	}
}
