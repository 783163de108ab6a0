package content

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Record is a content item of some registered type.
type Record struct {
	ID        uint
	Type      string
	Title     string
	Body      string
	Blocks    []string
	Meta      map[string]string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MetaValue returns the stored value for key, or "" when unset.
func (r Record) MetaValue(key string) string {
	if r.Meta == nil {
		return ""
	}
	return r.Meta[key]
}

// RecordRow is the persisted form of a Record.
type RecordRow struct {
	gorm.Model
	Type    string `gorm:"size:64;index:idx_records_type_created,priority:1;not null"`
	Title   string `gorm:"size:512;not null;default:''"`
	Body    string `gorm:"type:text"`
	Content string `gorm:"type:text"`
}

// TableName defines the table name for RecordRow.
func (RecordRow) TableName() string {
	return "records"
}

// MetaRow stores one custom field value.
type MetaRow struct {
	ID       uint   `gorm:"primaryKey"`
	RecordID uint   `gorm:"uniqueIndex:idx_record_meta_key,priority:1;not null"`
	Key      string `gorm:"column:meta_key;size:191;uniqueIndex:idx_record_meta_key,priority:2;not null"`
	Value    string `gorm:"column:meta_value;type:text"`
}

// TableName defines the table name for MetaRow.
func (MetaRow) TableName() string {
	return "record_meta"
}

const (
	blockOpen  = "<!-- block:"
	blockClose = " /-->"
)

// SerializeBlocks renders a block list into the stored content form.
func SerializeBlocks(blocks []string) string {
	if len(blocks) == 0 {
		return ""
	}

	lines := make([]string, 0, len(blocks))
	for _, name := range blocks {
		lines = append(lines, blockOpen+name+blockClose)
	}
	return strings.Join(lines, "\n")
}

// ParseBlocks reads the block names back out of stored content. Anything that is not a block
// comment is ignored.
func ParseBlocks(content string) []string {
	var blocks []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, blockOpen) || !strings.HasSuffix(line, blockClose) {
			continue
		}
		name := strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(line, blockOpen), blockClose))
		if name != "" {
			blocks = append(blocks, name)
		}
	}
	return blocks
}

func toRecord(row *RecordRow, meta []MetaRow) *Record {
	if row == nil {
		return nil
	}

	record := &Record{
		ID:        row.ID,
		Type:      row.Type,
		Title:     row.Title,
		Body:      row.Body,
		Blocks:    ParseBlocks(row.Content),
		Meta:      make(map[string]string, len(meta)),
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
	for _, m := range meta {
		record.Meta[m.Key] = m.Value
	}
	return record
}
