package models

import (
	"time"
)

type Student struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"-" db:"user_id"`
	Name      string    `json:"name" db:"name"`
	Note      string    `json:"note,omitempty" db:"note"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type CreateStudentRequest struct {
	Name string `json:"name"`
	Note string `json:"note,omitempty"`
}
