package storage

import (
	"errors"

	"home-rush/models"
)

// ReplyJournal records reply attempts. It is an audit trail only: nothing
// reads it back to decide whether to reply.
type ReplyJournal interface {
	Record(r *models.ReplyRecord) error
	Close() error
}

// MultiJournal fans a record out to several journals.
type MultiJournal []ReplyJournal

func (m MultiJournal) Record(r *models.ReplyRecord) error {
	var errs []error
	for _, j := range m {
		if err := j.Record(r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m MultiJournal) Close() error {
	var errs []error
	for _, j := range m {
		if err := j.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NopJournal discards every record.
type NopJournal struct{}

func (NopJournal) Record(*models.ReplyRecord) error { return nil }
func (NopJournal) Close() error                     { return nil }
