package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Exchange is one question paired with the answer that was delivered for it.
type Exchange struct {
	User      string `json:"user"`
	Assistant string `json:"assistant"`
}

// Position is the widget's last window position. It is stored verbatim.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Interaction is a durable record of one answered question.
type Interaction struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	FullAnswer string    `json:"full_answer,omitempty"`
	Backend    string    `json:"backend"`
	Truncated  bool      `json:"truncated"`
	ErrorKind  string    `json:"error_kind,omitempty"`
}
