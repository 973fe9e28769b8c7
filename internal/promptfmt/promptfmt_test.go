package promptfmt

import (
	"strings"
	"testing"
	"unicode/utf8"

	types "github.com/boxabirds/docqa/internal/domain"
	"github.com/boxabirds/docqa/internal/retrieval"
)

func unit(id, file string, page int, text string, score float64) retrieval.ScoredTextUnit {
	f := file
	start := page
	end := page + 1
	return retrieval.ScoredTextUnit{
		TextUnit: &types.TextUnit{
			ID:          id,
			DocumentIDs: types.StringListJSON([]string{"doc-" + id}),
			Text:        text,
			SourceFile:  &f,
			PageStart:   &start,
			PageEnd:     &end,
		},
		Similarity: score,
	}
}

func TestFormatRendersAllSections(t *testing.T) {
	rc := &retrieval.RetrievedContext{
		Entities: []retrieval.ScoredEntity{
			{Entity: &types.Entity{Name: "Gradient Descent", Type: "ALGORITHM", Description: "Iterative optimizer."}, Similarity: 0.9},
			{Entity: &types.Entity{Name: "  "}, Similarity: 0.5},
		},
		TextUnits: []retrieval.ScoredTextUnit{unit("tu1", "paper.pdf", 3, "Convergence holds.", 0.8)},
		Relationships: []types.Relationship{
			{Source: "Gradient Descent", Target: "Convexity", Description: "requires", Weight: 2},
		},
		CommunityReports: []types.CommunityReport{
			{Community: 4, Title: "Optimization", FullContent: "Covers optimizers."},
		},
	}

	prompt, sources := New(0).Format(rc)

	for _, want := range []string{
		"## Community Summaries",
		"### Optimization\nCovers optimizers.",
		"## Entities",
		"- **Gradient Descent** (ALGORITHM): Iterative optimizer.",
		"## Relationships",
		"- Gradient Descent -- requires --> Convexity (weight 2)",
		"## Source Texts",
		"[1] [paper.pdf, pages 3..4]\nConvergence holds.",
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}

	idx := func(s string) int { return strings.Index(prompt, s) }
	if !(idx("## Community Summaries") < idx("## Entities") &&
		idx("## Entities") < idx("## Relationships") &&
		idx("## Relationships") < idx("## Source Texts")) {
		t.Fatalf("sections out of order:\n%s", prompt)
	}

	if len(sources) != 1 {
		t.Fatalf("len(sources) = %d, want 1", len(sources))
	}
	src := sources[0]
	if src.FileName != "paper.pdf" || src.FileID == nil || *src.FileID != "doc-tu1" {
		t.Fatalf("unexpected source identity: %+v", src)
	}
	if src.PageNumber == nil || *src.PageNumber != 3 || src.PageEnd == nil || *src.PageEnd != 4 {
		t.Fatalf("unexpected source pages: %+v", src)
	}
	if src.TextSnippet != "Convergence holds." || src.RelevanceScore != 0.8 {
		t.Fatalf("unexpected snippet or score: %+v", src)
	}
}

func TestFormatEmptyContext(t *testing.T) {
	prompt, sources := New(0).Format(&retrieval.RetrievedContext{
		Entities:         []retrieval.ScoredEntity{},
		TextUnits:        []retrieval.ScoredTextUnit{},
		Relationships:    []types.Relationship{},
		CommunityReports: []types.CommunityReport{},
	})
	if prompt != "" {
		t.Fatalf("prompt = %q, want empty", prompt)
	}
	if sources == nil || len(sources) != 0 {
		t.Fatalf("sources = %#v, want empty non-nil slice", sources)
	}
}

func TestFormatDropsLowestValueSectionFirst(t *testing.T) {
	rc := &retrieval.RetrievedContext{
		Entities:      []retrieval.ScoredEntity{{Entity: &types.Entity{Name: "Adam", Type: "ALGORITHM"}}},
		TextUnits:     []retrieval.ScoredTextUnit{unit("tu1", "paper.pdf", 1, "Short.", 0.9)},
		Relationships: []types.Relationship{{Source: "Adam", Target: "SGD", Description: "extends", Weight: 1}},
		CommunityReports: []types.CommunityReport{
			{Community: 1, Title: "Huge", FullContent: strings.Repeat("r", 400)},
		},
	}

	prompt, _ := New(200).Format(rc)

	if strings.Contains(prompt, "## Community Summaries") {
		t.Fatalf("reports should drop first:\n%s", prompt)
	}
	for _, want := range []string{"## Entities", "## Relationships", "## Source Texts"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q after dropping reports:\n%s", want, prompt)
		}
	}
}

func TestFormatDropsSectionsBeforeSourceTexts(t *testing.T) {
	long := strings.Repeat("x", 120)
	rc := &retrieval.RetrievedContext{
		Entities:      []retrieval.ScoredEntity{{Entity: &types.Entity{Name: "E", Description: long}}},
		TextUnits:     []retrieval.ScoredTextUnit{unit("tu1", "paper.pdf", 1, long, 0.9)},
		Relationships: []types.Relationship{{Source: "A", Target: "B", Description: long, Weight: 1}},
		CommunityReports: []types.CommunityReport{
			{Community: 1, Title: "C", FullContent: long},
		},
	}

	prompt, _ := New(220).Format(rc)

	for _, gone := range []string{"## Community Summaries", "## Entities", "## Relationships"} {
		if strings.Contains(prompt, gone) {
			t.Fatalf("%s should be dropped under budget:\n%s", gone, prompt)
		}
	}
	if !strings.Contains(prompt, "## Source Texts") || !strings.Contains(prompt, long) {
		t.Fatalf("source texts must survive the budget:\n%s", prompt)
	}
}

func TestFormatHardTruncatesOversizedSourceTexts(t *testing.T) {
	// Multibyte text: the budget counts runes, not bytes.
	text := strings.Repeat("é", 600)
	rc := &retrieval.RetrievedContext{
		Entities:         []retrieval.ScoredEntity{},
		TextUnits:        []retrieval.ScoredTextUnit{unit("tu1", "paper.pdf", 1, text, 0.9)},
		Relationships:    []types.Relationship{},
		CommunityReports: []types.CommunityReport{},
	}

	prompt, _ := New(100).Format(rc)
	if got := utf8.RuneCountInString(prompt); got != 100 {
		t.Fatalf("prompt runes = %d, want exactly 100", got)
	}
}

func TestFormatSourceDefaults(t *testing.T) {
	long := strings.Repeat("s", 700)
	rc := &retrieval.RetrievedContext{
		Entities:         []retrieval.ScoredEntity{},
		Relationships:    []types.Relationship{},
		CommunityReports: []types.CommunityReport{},
		TextUnits: []retrieval.ScoredTextUnit{
			{TextUnit: &types.TextUnit{ID: "tu1", Text: long}, Similarity: 1.7},
			{TextUnit: &types.TextUnit{ID: "tu2", Text: "short"}, Similarity: -0.2},
		},
	}

	_, sources := New(0).Format(rc)
	if len(sources) != 2 {
		t.Fatalf("len(sources) = %d, want 2", len(sources))
	}

	first := sources[0]
	if first.FileID != nil {
		t.Fatalf("FileID = %q, want nil without document ids", *first.FileID)
	}
	if first.FileName != "Unknown" {
		t.Fatalf("FileName = %q, want Unknown", first.FileName)
	}
	if got := utf8.RuneCountInString(first.TextSnippet); got != 500 {
		t.Fatalf("snippet runes = %d, want capped at 500", got)
	}
	if first.RelevanceScore != 1 {
		t.Fatalf("score = %v, want clamped to 1", first.RelevanceScore)
	}

	second := sources[1]
	if second.RelevanceScore != 0 {
		t.Fatalf("score = %v, want clamped to 0", second.RelevanceScore)
	}
	if second.PageNumber != nil || second.PageEnd != nil {
		t.Fatalf("pages should stay nil when the chunk has none: %+v", second)
	}
}

func TestFormatFallbackTitlesAndHeaders(t *testing.T) {
	file := "notes.pdf"
	rc := &retrieval.RetrievedContext{
		Entities:      []retrieval.ScoredEntity{},
		Relationships: []types.Relationship{},
		CommunityReports: []types.CommunityReport{
			{Community: 7, Summary: "Summary only."},
		},
		TextUnits: []retrieval.ScoredTextUnit{
			{TextUnit: &types.TextUnit{ID: "tu1", Text: "Body.", SourceFile: &file}, Similarity: 0.4},
		},
	}

	prompt, _ := New(0).Format(rc)
	if !strings.Contains(prompt, "### Community 7\nSummary only.") {
		t.Fatalf("untitled report should fall back to its community number:\n%s", prompt)
	}
	if !strings.Contains(prompt, "[1] [notes.pdf]\nBody.") {
		t.Fatalf("pageless chunk should render a bare file header:\n%s", prompt)
	}
}
