package model

import "time"

// Baby holds per-baby details beyond the name string carried on events.
// A row is created lazily the first time a name is used.
type Baby struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Name      string     `gorm:"uniqueIndex;not null" json:"name"`
	BirthDate *time.Time `gorm:"type:date" json:"birth_date,omitempty"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

// WeightEntry is one weight measurement, at most one per baby per day.
type WeightEntry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	BabyName  string    `gorm:"index;not null;uniqueIndex:uidx_weight_baby_date" json:"baby_name"`
	Date      time.Time `gorm:"type:date;not null;uniqueIndex:uidx_weight_baby_date" json:"date"`
	Pounds    float64   `gorm:"not null" json:"pounds"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
