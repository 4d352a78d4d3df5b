package domain

import "time"

type Comment struct {
	Id        string    `bson:"_id" json:"id"`
	Content   string    `bson:"content" json:"content"`
	TaskId    string    `bson:"taskId" json:"taskId"`
	UserId    string    `bson:"userId" json:"userId"`
	User      *Author   `bson:"-" json:"user,omitempty"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

type Comments []*Comment
