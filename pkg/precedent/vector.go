package precedent

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"

	chromem "github.com/philippgille/chromem-go"
	"github.com/google/uuid"
)

// embeddingDim is the dimension of the local hashing embedder.
const embeddingDim = 256

// VectorAnalyzer is the production Analyzer. Semantic comparison goes
// through a chromem-go in-memory vector index; entity extraction and
// intent classification remain lexical and are shared with the
// rule-based analyzer.
type VectorAnalyzer struct {
	lexical *RuleBasedAnalyzer
	embed   chromem.EmbeddingFunc
}

// NewVectorAnalyzer creates a vector-backed analyzer with the local
// hashing embedder. Pass a custom embedding function to use an external
// embedding model instead.
func NewVectorAnalyzer(embed chromem.EmbeddingFunc) *VectorAnalyzer {
	if embed == nil {
		embed = hashingEmbedding
	}
	return &VectorAnalyzer{
		lexical: NewRuleBasedAnalyzer(),
		embed:   embed,
	}
}

// ExtractEntities extracts typed entities from case text.
func (v *VectorAnalyzer) ExtractEntities(ctx context.Context, text string) ([]Entity, error) {
	return v.lexical.ExtractEntities(ctx, text)
}

// ClassifyIntent classifies the intent of an action description.
func (v *VectorAnalyzer) ClassifyIntent(ctx context.Context, action string) (IntentResult, error) {
	return v.lexical.ClassifyIntent(ctx, action)
}

// SemanticScores indexes the documents in an ephemeral collection and
// runs one similarity query against it. The collection lives only for
// the duration of the call; precedent sets change between queries so
// nothing is worth caching.
func (v *VectorAnalyzer) SemanticScores(ctx context.Context, query string, docs map[string]string) (map[string]SemanticResult, error) {
	out := make(map[string]SemanticResult, len(docs))
	if len(docs) == 0 || strings.TrimSpace(query) == "" {
		return out, nil
	}

	db := chromem.NewDB()
	collection, err := db.CreateCollection("match-"+uuid.NewString(), nil, v.embed)
	if err != nil {
		return nil, fmt.Errorf("creating collection: %w", err)
	}

	for id, text := range docs {
		if strings.TrimSpace(text) == "" {
			continue
		}
		if err := collection.AddDocument(ctx, chromem.Document{ID: id, Content: text}); err != nil {
			return nil, fmt.Errorf("indexing document %s: %w", id, err)
		}
	}

	count := collection.Count()
	if count == 0 {
		return out, nil
	}

	results, err := collection.Query(ctx, query, count, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("querying collection: %w", err)
	}

	queryTokens := tokenSet(query)
	for _, r := range results {
		score := clampUnit(float64(r.Similarity))
		_, shared := jaccard(queryTokens, tokenSet(r.Content))
		out[r.ID] = SemanticResult{
			Score:           score,
			MatchingPhrases: shared,
			Distance:        1 - score,
		}
	}
	return out, nil
}

// hashingEmbedding is a deterministic local embedding function. Each
// token hashes into a fixed-dimension bag-of-words vector; the result is
// L2-normalized so cosine similarity behaves.
func hashingEmbedding(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, embeddingDim)
	for tok := range tokenSet(text) {
		h := fnv.New32a()
		h.Write([]byte(tok))
		vec[h.Sum32()%embeddingDim]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		// A zero vector breaks cosine similarity; give empty text a
		// fixed direction instead.
		vec[0] = 1
		return vec, nil
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec, nil
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
