package models

import (
	"time"

	"github.com/google/uuid"
)

// ReplyRecord is one reply attempt, written to the reply journal.
// The journal is an audit trail only; it is never read back for dedup.
type ReplyRecord struct {
	ID          string
	Bot         string
	RawText     string
	Street      string
	Number      string
	City        string
	MonthlyRent float64
	Success     bool
	Error       string
	AttemptedAt time.Time
}

// NewReplyRecord snapshots offer for the journal. A nil err means success.
func NewReplyRecord(bot, raw string, offer HousingOffer, err error) *ReplyRecord {
	r := &ReplyRecord{
		ID:          uuid.NewString(),
		Bot:         bot,
		RawText:     raw,
		Street:      offer.Address.Street,
		Number:      offer.Address.Number,
		City:        offer.Address.City,
		MonthlyRent: offer.MonthlyPrice,
		Success:     err == nil,
		AttemptedAt: time.Now(),
	}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}
