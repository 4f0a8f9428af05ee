package vector

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/oakline/assessmap/internal/corpus"
	"github.com/oakline/assessmap/internal/embedding"
)

// Mirror copies corpus embeddings into an Index.
type Mirror struct {
	index Index
	cache *embedding.Cache
}

// NewMirror creates a Mirror writing through the given cache.
func NewMirror(index Index, cache *embedding.Cache) *Mirror {
	return &Mirror{index: index, cache: cache}
}

// SyncCorpus embeds every question and option in the registry and upserts
// them. IDs are derived from the entry content, so repeated syncs update
// points in place. Returns the number of entries written.
func (m *Mirror) SyncCorpus(ctx context.Context, reg *corpus.Registry) (int, error) {
	var entries []Entry

	for _, cat := range reg.Categories() {
		for _, q := range reg.Questions(cat) {
			v := m.cache.GetOrCompute(ctx, q)
			if v.IsZero() {
				return 0, fmt.Errorf("embed question %q: empty vector", q)
			}
			entries = append(entries, Entry{
				ID:       entryID(KindQuestion, string(cat), q, q),
				Text:     q,
				Category: string(cat),
				Question: q,
				Kind:     KindQuestion,
				Vector:   v.Values,
			})
			opts, _ := reg.QuestionOptions(cat, q)
			for _, opt := range opts {
				v := m.cache.GetOrCompute(ctx, opt)
				if v.IsZero() {
					return 0, fmt.Errorf("embed option %q: empty vector", opt)
				}
				entries = append(entries, Entry{
					ID:       entryID(KindOption, string(cat), q, opt),
					Text:     opt,
					Category: string(cat),
					Question: q,
					Kind:     KindOption,
					Vector:   v.Values,
				})
			}
		}

		// Shared-option categories have no per-question tables; their
		// options apply to every question and are written once per
		// category with an empty Question payload.
		if shared, ok := reg.SharedOptions(cat); ok {
			for _, opt := range shared {
				v := m.cache.GetOrCompute(ctx, opt)
				if v.IsZero() {
					return 0, fmt.Errorf("embed option %q: empty vector", opt)
				}
				entries = append(entries, Entry{
					ID:       entryID(KindOption, string(cat), "", opt),
					Text:     opt,
					Category: string(cat),
					Kind:     KindOption,
					Vector:   v.Values,
				})
			}
		}
	}

	if err := m.index.Upsert(ctx, entries); err != nil {
		return 0, fmt.Errorf("upsert corpus: %w", err)
	}
	return len(entries), nil
}

// Search embeds the query through the cache and searches the index.
func (m *Mirror) Search(ctx context.Context, query string, topK int) ([]SearchResult, error) {
	v := m.cache.GetOrCompute(ctx, query)
	if v.IsZero() {
		return nil, fmt.Errorf("embed query: empty vector")
	}
	return m.index.Search(ctx, v.Values, topK)
}

// entryID derives a stable UUID-shaped identifier from entry content.
func entryID(kind, category, question, text string) string {
	sum := sha256.Sum256([]byte(kind + "\x00" + category + "\x00" + question + "\x00" + text))

	b := sum[:16]
	b[6] = (b[6] & 0x0f) | 0x40
	b[8] = (b[8] & 0x3f) | 0x80

	var out [36]byte
	hex.Encode(out[0:8], b[0:4])
	out[8] = '-'
	hex.Encode(out[9:13], b[4:6])
	out[13] = '-'
	hex.Encode(out[14:18], b[6:8])
	out[18] = '-'
	hex.Encode(out[19:23], b[8:10])
	out[23] = '-'
	hex.Encode(out[24:36], b[10:16])
	return string(out[:])
}
