package document

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"github.com/omnimind-labs/omnimind/internal/domain"
)

// DocumentModel is the documents table row.
type DocumentModel struct {
	ID        string         `gorm:"primaryKey" json:"id"`
	Filename  string         `gorm:"not null" json:"filename"`
	Content   string         `json:"content"`
	MimeType  string         `gorm:"column:mime_type" json:"mime_type"`
	CreatedAt time.Time      `gorm:"not null;index:idx_documents_created_at,sort:desc" json:"created_at"`
	Metadata  datatypes.JSON `gorm:"column:metadata" json:"metadata"`

	Tags []TagModel `gorm:"foreignKey:DocID;constraint:OnDelete:CASCADE" json:"tags"`
}

func (DocumentModel) TableName() string { return "documents" }

// TagModel is the tags table row. A document owns zero or more tags.
type TagModel struct {
	ID    uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	DocID string `gorm:"column:doc_id;not null;index:idx_tags_doc_id" json:"doc_id"`
	Tag   string `gorm:"column:tag;not null" json:"tag"`
}

func (TagModel) TableName() string { return "tags" }

func toModel(doc *domain.Document) (*DocumentModel, error) {
	meta := doc.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return nil, err
	}

	return &DocumentModel{
		ID:        doc.ID,
		Filename:  doc.Filename,
		Content:   doc.Content,
		MimeType:  doc.MimeType,
		CreatedAt: doc.CreatedAt,
		Metadata:  datatypes.JSON(raw),
	}, nil
}

func fromModel(m *DocumentModel) domain.Document {
	doc := domain.Document{
		ID:        m.ID,
		Filename:  m.Filename,
		Content:   m.Content,
		MimeType:  m.MimeType,
		CreatedAt: m.CreatedAt,
		Metadata:  map[string]any{},
	}
	if len(m.Metadata) > 0 {
		// A row with corrupt metadata still hydrates; metadata stays empty.
		_ = json.Unmarshal(m.Metadata, &doc.Metadata)
	}

	tags := make([]string, 0, len(m.Tags))
	for _, t := range m.Tags {
		tags = append(tags, t.Tag)
	}
	doc.Tags = domain.DedupTags(tags)
	return doc
}
