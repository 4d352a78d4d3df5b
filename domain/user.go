package domain

import (
	"encoding/json"
	"io"
	"time"
)

type User struct {
	Id        string    `bson:"_id" json:"id"`
	Name      string    `bson:"name" json:"name"`
	Email     string    `bson:"email" json:"email"`
	Password  string    `bson:"password" json:"-"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

type Users []*User

func (u *User) ToJSON(w io.Writer) error {
	e := json.NewEncoder(w)
	return e.Encode(u)
}

func (u *Users) ToJSON(w io.Writer) error {
	e := json.NewEncoder(w)
	return e.Encode(u)
}

// Author is the public view of a user attached to comments.
type Author struct {
	Id   string `bson:"_id" json:"id"`
	Name string `bson:"name" json:"name"`
}
