package models

import "time"

// Kudo is one thanks from a participant to a free-text handle. Date is the
// civil date (YYYY-MM-DD) the kudo counts against.
type Kudo struct {
	ID              string    `gorm:"primaryKey;size:64" json:"id"`
	ParticipantID   string    `gorm:"size:64;not null;index:idx_kudo_giver_date" json:"participant_id"`
	RecipientHandle string    `gorm:"size:255;not null" json:"recipient_handle"`
	Date            string    `gorm:"size:10;not null;index:idx_kudo_giver_date" json:"date"`
	CreatedAt       time.Time `json:"created_at"`
}

func RecipientHandles(kudos []Kudo) []string {
	out := make([]string, 0, len(kudos))
	for _, k := range kudos {
		out = append(out, k.RecipientHandle)
	}
	return out
}
