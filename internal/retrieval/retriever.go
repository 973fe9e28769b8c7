package retrieval

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/boxabirds/docqa/internal/clients/embed"
	"github.com/boxabirds/docqa/internal/data/repos/store"
	types "github.com/boxabirds/docqa/internal/domain"
	"github.com/boxabirds/docqa/internal/pkg/dbctx"
	"github.com/boxabirds/docqa/internal/pkg/logger"
)

// ScoredEntity is an entity hit with its query similarity.
type ScoredEntity struct {
	Entity     *types.Entity
	Similarity float64
}

// ScoredTextUnit is a budget-selected chunk with its query similarity.
type ScoredTextUnit struct {
	TextUnit   *types.TextUnit
	Similarity float64
}

// RetrievedContext is everything one query pulled out of the store. Slices
// are never nil.
type RetrievedContext struct {
	Entities         []ScoredEntity
	TextUnits        []ScoredTextUnit
	Relationships    []types.Relationship
	CommunityReports []types.CommunityReport
}

// Entity-linked candidates are capped to bound query-time re-embedding.
const maxLinkedCandidates = 100

// Stores bundles the read-side repos the retriever queries.
type Stores struct {
	Entities  store.EntityRepo
	TextUnits store.TextUnitRepo
	Graph     store.GraphRepo
	Reports   store.ReportRepo
}

// Retriever answers a query with hybrid local-search context: entity-linked
// chunks, direct vector hits, graph edges and community summaries.
type Retriever interface {
	Retrieve(ctx context.Context, query string, collectionID int) (*RetrievedContext, error)
}

type retriever struct {
	cfg      Config
	embedder embed.Embedder
	stores   Stores
	log      *logger.Logger
}

func New(cfg Config, embedder embed.Embedder, stores Stores, log *logger.Logger) (Retriever, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder required")
	}
	if stores.Entities == nil || stores.TextUnits == nil || stores.Graph == nil || stores.Reports == nil {
		return nil, fmt.Errorf("all store repos required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &retriever{
		cfg:      cfg.withDefaults(),
		embedder: embedder,
		stores:   stores,
		log:      log.With("service", "Retriever"),
	}, nil
}

func (r *retriever) Retrieve(ctx context.Context, query string, collectionID int) (*RetrievedContext, error) {
	if strings.TrimSpace(query) == "" {
		return nil, NewError(KindInvalidRequest, fmt.Errorf("empty query"))
	}
	if collectionID <= 0 {
		return nil, NewError(KindInvalidRequest, fmt.Errorf("missing collection id"))
	}

	qv, err := r.embedder.Embed(ctx, query)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, NewError(KindEmbeddingUnavailable, err)
	}

	// The entity channel chains into its linked-chunk fetch; the direct
	// chunk channel runs alongside it.
	var (
		entityHits []store.EntityHit
		linked     []*types.TextUnit
		entityErr  error
		directHits []store.TextUnitHit
		directErr  error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hits, err := r.stores.Entities.NearestByEmbedding(dbctx.Context{Ctx: gctx}, collectionID, qv, r.cfg.TopKEntities)
		if err != nil {
			entityErr = err
			return nil
		}
		entityHits = hits

		units, err := r.stores.TextUnits.GetByIDs(dbctx.Context{Ctx: gctx}, collectionID, linkedTextUnitIDs(hits))
		if err != nil {
			// Entities stay usable for graph context even when their
			// chunks cannot be loaded.
			r.log.Warn("Linked text-unit fetch failed", "error", err.Error())
			return nil
		}
		linked = units
		return nil
	})
	g.Go(func() error {
		hits, err := r.stores.TextUnits.NearestByEmbedding(dbctx.Context{Ctx: gctx}, collectionID, qv, r.cfg.DirectTextUnitK)
		if err != nil {
			directErr = err
			return nil
		}
		directHits = hits
		return nil
	})
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if entityErr != nil && directErr != nil {
		return nil, NewError(KindRetrievalUnavailable,
			fmt.Errorf("entity channel: %v; direct channel: %v", entityErr, directErr))
	}
	if entityErr != nil {
		r.log.Warn("Entity channel failed; continuing with direct hits", "error", entityErr.Error())
	}
	if directErr != nil {
		r.log.Warn("Direct chunk channel failed; continuing with entity-linked chunks", "error", directErr.Error())
	}

	// Chunk selection and graph context are independent once the entity
	// hits are in.
	var (
		selected []ScoredTextUnit
		rels     []types.Relationship
		reports  []types.CommunityReport
	)
	g2, gctx2 := errgroup.WithContext(ctx)
	g2.Go(func() error {
		selected = r.rankAndSelect(gctx2, qv, directHits, linked)
		return nil
	})
	g2.Go(func() error {
		rels, reports = r.graphContext(gctx2, collectionID, entityHits)
		return nil
	})
	_ = g2.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entities := make([]ScoredEntity, 0, len(entityHits))
	for _, h := range entityHits {
		entities = append(entities, ScoredEntity{Entity: h.Entity, Similarity: h.Similarity})
	}

	return &RetrievedContext{
		Entities:         entities,
		TextUnits:        selected,
		Relationships:    rels,
		CommunityReports: reports,
	}, nil
}

// rankAndSelect merges both chunk channels, scores entity-linked chunks the
// direct channel did not cover, and greedily fills the token budget in
// similarity order. Ties resolve to the lower id so identical inputs select
// identically.
func (r *retriever) rankAndSelect(ctx context.Context, qv []float32, direct []store.TextUnitHit, linked []*types.TextUnit) []ScoredTextUnit {
	seen := make(map[string]struct{}, len(direct))
	cands := make([]ScoredTextUnit, 0, len(direct)+len(linked))
	for _, h := range direct {
		seen[h.TextUnit.ID] = struct{}{}
		cands = append(cands, ScoredTextUnit{TextUnit: h.TextUnit, Similarity: h.Similarity})
	}

	for _, tu := range linked {
		if _, ok := seen[tu.ID]; ok {
			// The direct channel already scored this chunk with the same
			// cosine the store reports; that score stands.
			continue
		}
		if strings.TrimSpace(tu.Text) == "" {
			continue
		}
		sim, ok := r.chunkSimilarity(ctx, qv, tu)
		if !ok {
			continue
		}
		cands = append(cands, ScoredTextUnit{TextUnit: tu, Similarity: sim})
	}

	sort.Slice(cands, func(i, j int) bool {
		if cands[i].Similarity != cands[j].Similarity {
			return cands[i].Similarity > cands[j].Similarity
		}
		return cands[i].TextUnit.ID < cands[j].TextUnit.ID
	})

	selected := make([]ScoredTextUnit, 0, r.cfg.TopKTextUnits)
	total := 0
	for _, c := range cands {
		if len(selected) == r.cfg.TopKTextUnits {
			break
		}
		tokens := c.TextUnit.TokenCount()
		if total+tokens > r.cfg.TextUnitTokenBudget {
			break
		}
		selected = append(selected, c)
		total += tokens
	}
	return selected
}

// chunkSimilarity prefers the stored embedding and re-embeds the chunk text
// only when the indexer left the column null. A chunk that cannot be scored
// is dropped from ranking; its entities still reach the graph context.
func (r *retriever) chunkSimilarity(ctx context.Context, qv []float32, tu *types.TextUnit) (float64, bool) {
	if tu.Embedding != nil {
		if vec := tu.Embedding.Slice(); len(vec) > 0 {
			return cosine(qv, vec), true
		}
	}
	vec, err := r.embedder.Embed(ctx, tu.Text)
	if err != nil {
		r.log.Warn("Chunk re-embedding failed; dropping candidate",
			"text_unit_id", tu.ID,
			"error", err.Error(),
		)
		return 0, false
	}
	return cosine(qv, vec), true
}

// graphContext loads relationships and community reports for the retrieved
// entities. Failures here degrade to empty lists; they never fail the query.
func (r *retriever) graphContext(ctx context.Context, collectionID int, hits []store.EntityHit) ([]types.Relationship, []types.CommunityReport) {
	rels := []types.Relationship{}
	reports := []types.CommunityReport{}

	names := make([]string, 0, len(hits))
	ids := make([]string, 0, len(hits))
	seenName := make(map[string]struct{}, len(hits))
	for _, h := range hits {
		ids = append(ids, h.Entity.ID)
		if h.Entity.Name == "" {
			continue
		}
		if _, ok := seenName[h.Entity.Name]; ok {
			continue
		}
		seenName[h.Entity.Name] = struct{}{}
		names = append(names, h.Entity.Name)
	}

	if len(names) > 0 {
		got, err := r.stores.Graph.RelationshipsForNames(dbctx.Context{Ctx: ctx}, collectionID, names, r.cfg.TopKRelationships)
		if err != nil {
			r.log.Warn("Relationship lookup failed; continuing without edges", "error", err.Error())
		} else {
			rels = dedupRelationships(got)
		}
	}

	var communities []int
	if len(ids) > 0 {
		byEntity, err := r.stores.Graph.CommunitiesForEntities(dbctx.Context{Ctx: ctx}, collectionID, ids)
		if err != nil {
			r.log.Warn("Community lookup failed; falling back to top-ranked reports", "error", err.Error())
		} else {
			seen := make(map[int]struct{}, len(byEntity))
			for _, c := range byEntity {
				if _, ok := seen[c]; ok {
					continue
				}
				seen[c] = struct{}{}
				communities = append(communities, c)
			}
			sort.Ints(communities)
		}
	}

	var (
		got []types.CommunityReport
		err error
	)
	if len(communities) > 0 {
		got, err = r.stores.Reports.ForCommunities(dbctx.Context{Ctx: ctx}, collectionID, communities, r.cfg.TopKCommunityReports)
	} else {
		got, err = r.stores.Reports.TopRanked(dbctx.Context{Ctx: ctx}, collectionID, r.cfg.TopKCommunityReports)
	}
	if err != nil {
		r.log.Warn("Report lookup failed; continuing without summaries", "error", err.Error())
	} else {
		reports = got
	}

	return rels, reports
}

func linkedTextUnitIDs(hits []store.EntityHit) []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, h := range hits {
		for _, id := range h.Entity.TextUnitIDList() {
			if id == "" {
				continue
			}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
			if len(ids) == maxLinkedCandidates {
				return ids
			}
		}
	}
	return ids
}

func dedupRelationships(rels []types.Relationship) []types.Relationship {
	type key struct{ source, target, description string }
	seen := make(map[key]struct{}, len(rels))
	out := make([]types.Relationship, 0, len(rels))
	for _, rel := range rels {
		k := key{rel.Source, rel.Target, rel.Description}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, rel)
	}
	return out
}

func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
