// internal/domain/models/activity.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Activity is one tracked coding event sent by the editor extension.
//
// Records are append-only. Timestamp is the only time source used for
// aggregation; Date is kept for older readers and is always derived from
// Timestamp when the record is written.
type Activity struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID       string             `bson:"user_id" json:"userId"` // user _id hex; not enforced as a reference
	FileName     string             `bson:"file_name" json:"fileName"`
	FileType     string             `bson:"file_type,omitempty" json:"fileType,omitempty"`
	ProjectName  string             `bson:"project_name,omitempty" json:"projectName,omitempty"`
	Language     string             `bson:"language,omitempty" json:"language,omitempty"`
	Duration     int64              `bson:"duration" json:"duration"` // seconds
	LinesAdded   int64              `bson:"lines_added" json:"linesAdded"`
	LinesRemoved int64              `bson:"lines_removed" json:"linesRemoved"`
	Timestamp    time.Time          `bson:"timestamp" json:"timestamp"`
	Date         time.Time          `bson:"date" json:"date"`
	BatchID      string             `bson:"batch_id,omitempty" json:"batchId,omitempty"`
	CreatedAt    time.Time          `bson:"created_at" json:"createdAt"`
}

// Defaults applied to optional activity fields at ingestion and read time.
const (
	UnknownLanguage    = "Unknown"
	UnknownFileType    = "unknown"
	UnknownProjectName = "Unknown Project"
)

// LanguageOrUnknown returns the activity language, or UnknownLanguage when unset.
func (a Activity) LanguageOrUnknown() string {
	if a.Language == "" {
		return UnknownLanguage
	}
	return a.Language
}

// LinesChanged is the sum of added and removed lines.
func (a Activity) LinesChanged() int64 {
	return a.LinesAdded + a.LinesRemoved
}

// DateOf returns the UTC calendar day that contains t, as midnight UTC.
func DateOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
