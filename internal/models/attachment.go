package models

import (
	"path/filepath"
	"strings"
	"time"
)

// AttachmentKind routes a stored file into its physical storage area.
type AttachmentKind string

const (
	AttachmentKindDocument AttachmentKind = "document"
	AttachmentKindPhoto    AttachmentKind = "photo"
)

// KindForFilename classifies an upload by its extension: PDFs are
// documents, anything else is treated as a photo.
func KindForFilename(name string) AttachmentKind {
	if strings.EqualFold(filepath.Ext(name), ".pdf") {
		return AttachmentKindDocument
	}
	return AttachmentKindPhoto
}

// Attachment is one uploaded file bound to exactly one article.
type Attachment struct {
	ID           int64          `db:"id" json:"id"`
	ArticleID    int64          `db:"article_id" json:"article_id"`
	Kind         AttachmentKind `db:"kind" json:"kind"`
	FileName     string         `db:"file_name" json:"file_name"`
	OriginalName string         `db:"original_name" json:"original_name"`
	UploadedAt   time.Time      `db:"uploaded_at" json:"uploaded_at"`
}
