package model

import (
	"fmt"
	"strings"
	"time"
)

// Kind is the fixed set of loggable care events.
type Kind string

const (
	KindMilk Kind = "milk"
	KindPee  Kind = "pee"
	KindPoop Kind = "poop"
)

// Kinds lists every valid kind in display order.
var Kinds = []Kind{KindMilk, KindPee, KindPoop}

// ParseKind normalises user input into a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindMilk:
		return KindMilk, nil
	case KindPee:
		return KindPee, nil
	case KindPoop:
		return KindPoop, nil
	}
	return "", fmt.Errorf("unknown event kind %q", s)
}

// Label returns the kind's display name.
func (k Kind) Label() string {
	switch k {
	case KindMilk:
		return "Milk"
	case KindPee:
		return "Pee"
	case KindPoop:
		return "Poop"
	}
	return string(k)
}

// Event is one logged occurrence of Milk/Pee/Poop for a baby.
// Rows are append-only: inserted on submit, never updated, removed only
// by an explicit delete.
type Event struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	BabyName   string    `gorm:"index;not null" json:"baby_name"`
	Kind       Kind      `gorm:"index;not null" json:"kind"`
	OccurredAt time.Time `gorm:"index;not null" json:"occurred_at"`
	Note       string    `gorm:"type:text" json:"note,omitempty"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}
