// Package match resolves free-form user text to a catalog command via a
// hybrid of normalized edit-distance and embedding cosine similarity.
package match

import (
	"context"
	"log/slog"
	"math"
	"strings"

	"github.com/agnivade/levenshtein"

	"OrbitCS/bot/catalog"
	"OrbitCS/entity"
	"OrbitCS/internal/lib/sl"
)

// Strategy selects how Match scores candidates.
type Strategy string

const (
	StrategyLexical  Strategy = "lexical"
	StrategySemantic Strategy = "semantic"
	StrategyBlended  Strategy = "blended"
)

// Acceptance floors. Lexical candidates below 0.80 are never considered;
// semantic and blended candidates route at 0.50, with 0.65 acting as an
// advisory confidence line that is reported but never rejects.
const (
	lexicalFloor      = 0.80
	semanticFloor     = 0.50
	semanticConfident = 0.65

	semanticWeight = 0.7
	lexicalWeight  = 0.3
)

// Embedder turns text into a fixed-length vector. Implementations must be
// deterministic for identical input so Match stays a pure function.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// indexEntry is one precomputed embedding: a command key or one of the
// command's declared sample phrases, both owned by Key.
type indexEntry struct {
	Key    string
	Text   string
	Vector []float32
}

// Matcher is stateless after construction: the catalog and the embedding
// index are read-only, so concurrent Match calls are safe.
type Matcher struct {
	catalog  *catalog.Catalog
	embedder Embedder
	index    []indexEntry
	log      *slog.Logger
}

// NewMatcher precomputes embeddings for every command key and sample
// phrase. A nil embedder yields a lexical-only matcher.
func NewMatcher(ctx context.Context, cat *catalog.Catalog, embedder Embedder, log *slog.Logger) (*Matcher, error) {
	m := &Matcher{
		catalog:  cat,
		embedder: embedder,
		log:      log.With(sl.Module("matcher")),
	}
	if embedder == nil {
		return m, nil
	}

	for _, key := range cat.Keys() {
		cmd, _ := cat.Get(key)
		texts := append([]string{key}, cmd.Samples...)
		for _, text := range texts {
			vec, err := embedder.Embed(ctx, Normalize(text))
			if err != nil {
				return nil, err
			}
			if len(vec) == 0 {
				continue
			}
			m.index = append(m.index, indexEntry{Key: key, Text: text, Vector: vec})
		}
	}

	m.log.Info("embedding index built", slog.Int("entries", len(m.index)), slog.Int("commands", cat.Len()))
	return m, nil
}

// Match resolves text to the best catalog command under the given strategy.
// The zero MatchResult means nothing cleared the acceptance floor.
func (m *Matcher) Match(ctx context.Context, text string, strategy Strategy) entity.MatchResult {
	input := Normalize(text)
	if input == "" {
		return entity.MatchResult{Method: entity.MatchMethod(strategy)}
	}

	switch strategy {
	case StrategySemantic:
		return m.matchSemantic(ctx, input)
	case StrategyBlended:
		return m.matchBlended(ctx, input)
	default:
		return m.matchLexical(input)
	}
}

func (m *Matcher) matchLexical(input string) entity.MatchResult {
	result := entity.MatchResult{Method: entity.MatchLexical}
	for _, key := range m.catalog.Keys() {
		score := lexicalScore(input, strings.ToLower(key))
		// Strictly greater keeps the first candidate on ties.
		if score >= lexicalFloor && score > result.Score {
			result.CommandKey = key
			result.Score = score
		}
	}
	return result
}

func (m *Matcher) matchSemantic(ctx context.Context, input string) entity.MatchResult {
	vec, ok := m.embedInput(ctx, input)
	if !ok {
		return m.matchLexical(input)
	}

	result := entity.MatchResult{Method: entity.MatchSemantic}
	best := 0.0
	for i := range m.index {
		score := cosine(vec, m.index[i].Vector)
		if score > best {
			best = score
			if score >= semanticFloor {
				result.CommandKey = m.index[i].Key
				result.Score = score
			}
		}
	}

	if result.Matched() && result.Score < semanticConfident {
		m.log.Debug("low-confidence semantic match",
			slog.String("command", result.CommandKey),
			slog.Float64("score", result.Score),
		)
	}
	return result
}

func (m *Matcher) matchBlended(ctx context.Context, input string) entity.MatchResult {
	vec, ok := m.embedInput(ctx, input)
	if !ok {
		return m.matchLexical(input)
	}

	// Best semantic score per command, over both key and sample vectors.
	semantic := make(map[string]float64, m.catalog.Len())
	for i := range m.index {
		score := cosine(vec, m.index[i].Vector)
		if score > semantic[m.index[i].Key] {
			semantic[m.index[i].Key] = score
		}
	}

	result := entity.MatchResult{Method: entity.MatchBlended}
	for _, key := range m.catalog.Keys() {
		combined := semanticWeight*semantic[key] + lexicalWeight*lexicalScore(input, strings.ToLower(key))
		if combined >= semanticFloor && combined > result.Score {
			result.CommandKey = key
			result.Score = combined
		}
	}

	if result.Matched() && result.Score < semanticConfident {
		m.log.Debug("low-confidence blended match",
			slog.String("command", result.CommandKey),
			slog.Float64("score", result.Score),
		)
	}
	return result
}

func (m *Matcher) embedInput(ctx context.Context, input string) ([]float32, bool) {
	if m.embedder == nil || len(m.index) == 0 {
		return nil, false
	}
	vec, err := m.embedder.Embed(ctx, input)
	if err != nil || len(vec) == 0 {
		if err != nil {
			m.log.Warn("embedding input failed, falling back to lexical", sl.Err(err))
		}
		return nil, false
	}
	return vec, true
}

// lexicalScore is the normalized edit-distance similarity in [0,1].
func lexicalScore(a, b string) float64 {
	if a == b {
		return 1
	}
	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	if longest == 0 {
		return 0
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(longest)
}

// cosine computes cosine similarity between two vectors of equal length.
func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
