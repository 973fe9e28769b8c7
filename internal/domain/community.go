package domain

// Community is a cluster of entities at some hierarchy level.
type Community struct {
	ID           string `gorm:"primaryKey" json:"id"`
	CollectionID int    `gorm:"not null;index" json:"collection_id"`

	Community int    `gorm:"column:community;not null;index" json:"community"`
	Level     int    `gorm:"not null;default:0" json:"level"`
	Title     string `gorm:"type:text;not null;default:''" json:"title"`
}

func (Community) TableName() string { return "communities" }

// CommunityReport is an indexer-authored summary of one community, ranked by
// importance. Unique per (collection_id, community, level).
type CommunityReport struct {
	ID           string `gorm:"primaryKey" json:"id"`
	CollectionID int    `gorm:"not null;index;index:idx_community_reports_scope,unique,priority:1" json:"collection_id"`

	Community   int     `gorm:"column:community;not null;index:idx_community_reports_scope,unique,priority:2" json:"community"`
	Level       int     `gorm:"not null;default:0;index:idx_community_reports_scope,unique,priority:3" json:"level"`
	Title       string  `gorm:"type:text;not null;default:''" json:"title"`
	Summary     string  `gorm:"type:text;not null;default:''" json:"summary"`
	FullContent string  `gorm:"column:full_content;type:text;not null;default:''" json:"full_content"`
	Rank        float64 `gorm:"not null;default:0" json:"rank"`
}

func (CommunityReport) TableName() string { return "community_reports" }

// BodyText prefers the full report body, falling back to the summary.
func (r *CommunityReport) BodyText() string {
	if r.FullContent != "" {
		return r.FullContent
	}
	return r.Summary
}
