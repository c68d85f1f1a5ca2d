package serviceImp

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/advisorpages/trainingBuilder-sub002/entities"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/ai"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/kb/repository"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/kb/service"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/topic/matcher"
)

const chunkRunes = 1000

var ErrEmptyDocument = errors.New("document has no text")

type Svc struct{ r repository.KBRepository }

func New(r repository.KBRepository) *Svc { return &Svc{r: r} }

// chunkText cuts text into pieces of roughly maxRunes, breaking at the next
// newline or space once the limit is reached.
func chunkText(text string, maxRunes int) []string {
	if maxRunes <= 0 {
		maxRunes = chunkRunes
	}
	parts := []string{}
	cur := strings.Builder{}
	count := 0
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			parts = append(parts, s)
		}
		cur.Reset()
		count = 0
	}
	for _, r := range text {
		cur.WriteRune(r)
		count++
		if r == '\n' && count >= maxRunes/2 || (r == ' ' || r == '\n') && count >= maxRunes {
			flush()
		}
	}
	flush()
	return parts
}

func (s *Svc) UpsertDocument(ctx context.Context, in service.DocumentInput) (*entities.KBDocument, int, error) {
	chs := chunkText(in.Text, chunkRunes)
	if len(chs) == 0 {
		return nil, 0, ErrEmptyDocument
	}
	d := &entities.KBDocument{
		Title:     strings.TrimSpace(in.Title),
		Tags:      strings.TrimSpace(in.Tags),
		Category:  strings.TrimSpace(in.Category),
		SourceURL: strings.TrimSpace(in.SourceURL),
	}
	rows := make([]entities.KBChunk, len(chs))
	for i := range chs {
		rows[i] = entities.KBChunk{Ord: i, Text: chs[i]}
	}
	if err := s.r.CreateDocWithChunks(ctx, d, rows); err != nil {
		return nil, 0, fmt.Errorf("store document: %w", err)
	}
	return d, len(rows), nil
}

// Search ranks chunks by the share of query terms they contain, with the
// document title and tags counting toward each chunk.
func (s *Svc) Search(ctx context.Context, query string, k int) ([]service.Hit, error) {
	q := matcher.Tokens(query)
	if len(q) == 0 || k <= 0 {
		return nil, nil
	}
	chunks, err := s.r.AllChunks(ctx)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, nil
	}
	ids := make([]uint, 0)
	seen := map[uint]bool{}
	for _, ch := range chunks {
		if !seen[ch.DocID] {
			seen[ch.DocID] = true
			ids = append(ids, ch.DocID)
		}
	}
	docs, err := s.r.DocsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	hits := make([]service.Hit, 0, len(chunks))
	for _, ch := range chunks {
		d := docs[ch.DocID]
		terms := matcher.Tokens(d.Title + " " + d.Tags + " " + ch.Text)
		hit := 0
		for w := range q {
			if _, ok := terms[w]; ok {
				hit++
			}
		}
		if hit == 0 {
			continue
		}
		sc := math.Round(float64(hit)/float64(len(q))*1000) / 1000
		hits = append(hits, service.Hit{Chunk: ch, Doc: d, Score: sc})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

func (s *Svc) ListDocs(ctx context.Context) ([]entities.KBDocument, error) {
	return s.r.ListDocs(ctx)
}

// Retrieve exposes the knowledge base as a generation context source.
func (s *Svc) Retrieve(ctx context.Context, query string, k int) ([]ai.Snippet, error) {
	hits, err := s.Search(ctx, query, k)
	if err != nil {
		return nil, err
	}
	out := make([]ai.Snippet, 0, len(hits))
	for _, h := range hits {
		out = append(out, ai.Snippet{
			SourceID: fmt.Sprintf("kb:%d", h.Doc.DocID),
			Title:    h.Doc.Title,
			Text:     h.Chunk.Text,
			Score:    h.Score,
		})
	}
	return out, nil
}

var _ ai.Retriever = (*Svc)(nil)
