package domain

import "time"

const (
	MaxFileSize       = 4 << 20
	MaxFilesPerUpload = 5
)

// File is an attachment. Data is only populated when the content is downloaded.
type File struct {
	Id           string    `bson:"_id" json:"id"`
	TaskId       string    `bson:"taskId" json:"taskId"`
	OriginalName string    `bson:"originalName" json:"originalName"`
	MimeType     string    `bson:"mimeType" json:"mimeType"`
	Size         int64     `bson:"size" json:"size"`
	Data         []byte    `bson:"data,omitempty" json:"-"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
}

type Files []*File
