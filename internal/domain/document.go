package domain

type Document struct {
	ID           string `gorm:"primaryKey" json:"id"`
	CollectionID int    `gorm:"not null;index" json:"collection_id"`

	Title            string `gorm:"type:text;not null;default:''" json:"title"`
	Source           string `gorm:"type:text;not null;default:''" json:"source,omitempty"`
	OriginalFilename string `gorm:"type:text;not null;default:''" json:"original_filename,omitempty"`
	PDFPath          string `gorm:"column:pdf_path;type:text;not null;default:''" json:"pdf_path,omitempty"`
	RawContent       string `gorm:"type:text;not null;default:''" json:"-"`
}

func (Document) TableName() string { return "documents" }
