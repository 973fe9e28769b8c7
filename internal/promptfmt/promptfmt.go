package promptfmt

import (
	"fmt"
	"strings"
	"unicode/utf8"

	types "github.com/boxabirds/docqa/internal/domain"
	"github.com/boxabirds/docqa/internal/retrieval"
)

// DefaultCharBudget bounds the assembled context block.
const DefaultCharBudget = 24000

// Snippets quoted back to the client are capped well below chunk size.
const snippetRunes = 500

// Source is one citation on the info event. Entries mirror the selected
// text units in rank order.
type Source struct {
	FileID         *string `json:"file_id"`
	FileName       string  `json:"file_name"`
	PageNumber     *int    `json:"page_number"`
	PageEnd        *int    `json:"page_end"`
	TextSnippet    string  `json:"text_snippet"`
	RelevanceScore float64 `json:"relevance_score"`
}

type Formatter struct {
	charBudget int
}

func New(charBudget int) *Formatter {
	if charBudget <= 0 {
		charBudget = DefaultCharBudget
	}
	return &Formatter{charBudget: charBudget}
}

// Format renders the retrieved context as the prompt block and derives the
// citation list. Over budget, whole sections drop in importance order
// (summaries, then entities, then relationships); source texts are cut last
// because they carry the quoted evidence.
func (f *Formatter) Format(rc *retrieval.RetrievedContext) (string, []Source) {
	sources := buildSources(rc)
	if rc == nil {
		return "", sources
	}

	sections := []string{
		reportsSection(rc.CommunityReports),
		entitiesSection(rc.Entities),
		relationshipsSection(rc.Relationships),
		textsSection(rc.TextUnits),
	}

	prompt := joinSections(sections)
	for drop := 0; utf8.RuneCountInString(prompt) > f.charBudget && drop < 3; drop++ {
		sections[drop] = ""
		prompt = joinSections(sections)
	}
	if utf8.RuneCountInString(prompt) > f.charBudget {
		prompt = truncateRunes(prompt, f.charBudget)
	}
	return prompt, sources
}

func buildSources(rc *retrieval.RetrievedContext) []Source {
	if rc == nil || len(rc.TextUnits) == 0 {
		return []Source{}
	}
	out := make([]Source, 0, len(rc.TextUnits))
	for _, stu := range rc.TextUnits {
		tu := stu.TextUnit

		var fileID *string
		if ids := tu.DocumentIDList(); len(ids) > 0 {
			id := ids[0]
			fileID = &id
		}
		fileName := "Unknown"
		if tu.SourceFile != nil && strings.TrimSpace(*tu.SourceFile) != "" {
			fileName = *tu.SourceFile
		}

		out = append(out, Source{
			FileID:         fileID,
			FileName:       fileName,
			PageNumber:     tu.PageStart,
			PageEnd:        tu.PageEnd,
			TextSnippet:    truncateRunes(tu.Text, snippetRunes),
			RelevanceScore: clamp01(stu.Similarity),
		})
	}
	return out
}

func reportsSection(reports []types.CommunityReport) string {
	if len(reports) == 0 {
		return ""
	}
	entries := make([]string, 0, len(reports))
	for i := range reports {
		rep := &reports[i]
		title := strings.TrimSpace(rep.Title)
		if title == "" {
			title = fmt.Sprintf("Community %d", rep.Community)
		}
		entries = append(entries, "### "+title+"\n"+rep.BodyText())
	}
	return "## Community Summaries\n" + strings.Join(entries, "\n\n")
}

func entitiesSection(entities []retrieval.ScoredEntity) string {
	lines := make([]string, 0, len(entities))
	for _, se := range entities {
		e := se.Entity
		name := strings.TrimSpace(e.Name)
		if name == "" {
			continue
		}
		line := "- **" + name + "**"
		if t := strings.TrimSpace(e.Type); t != "" {
			line += " (" + t + ")"
		}
		if desc := strings.TrimSpace(e.Description); desc != "" {
			line += ": " + desc
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return ""
	}
	return "## Entities\n" + strings.Join(lines, "\n")
}

func relationshipsSection(rels []types.Relationship) string {
	if len(rels) == 0 {
		return ""
	}
	lines := make([]string, 0, len(rels))
	for i := range rels {
		rel := &rels[i]
		lines = append(lines, fmt.Sprintf("- %s -- %s --> %s (weight %g)",
			rel.Source, rel.Description, rel.Target, rel.Weight))
	}
	return "## Relationships\n" + strings.Join(lines, "\n")
}

func textsSection(units []retrieval.ScoredTextUnit) string {
	if len(units) == 0 {
		return ""
	}
	entries := make([]string, 0, len(units))
	for i, stu := range units {
		tu := stu.TextUnit
		entry := fmt.Sprintf("[%d]", i+1)
		if header := sourceHeader(tu); header != "" {
			entry += " " + header + "\n" + tu.Text
		} else {
			entry += " " + tu.Text
		}
		entries = append(entries, entry)
	}
	return "## Source Texts\n" + strings.Join(entries, "\n\n")
}

func sourceHeader(tu *types.TextUnit) string {
	if tu.SourceFile == nil && tu.PageStart == nil {
		return ""
	}
	file := "Unknown"
	if tu.SourceFile != nil && strings.TrimSpace(*tu.SourceFile) != "" {
		file = *tu.SourceFile
	}
	if tu.PageStart == nil {
		return "[" + file + "]"
	}
	start := *tu.PageStart
	end := start
	if tu.PageEnd != nil {
		end = *tu.PageEnd
	}
	return fmt.Sprintf("[%s, pages %d..%d]", file, start, end)
}

func joinSections(sections []string) string {
	blocks := make([]string, 0, len(sections))
	for _, s := range sections {
		if s != "" {
			blocks = append(blocks, s)
		}
	}
	return strings.Join(blocks, "\n\n")
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
