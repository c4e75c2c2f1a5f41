// Package ledger owns the create/retrieve/correct lifecycle of one
// observation set per (subject, date). It is generic over the observation
// kind so daily classroom attendance and parent meeting attendance share one
// state machine.
package ledger

import (
	"context"
	"time"

	"registro/attendance/internal/model"
)

// Store is the slice of the record store the ledger needs. Fetch returns all
// observations for the subject whose date falls in [from, to] inclusive;
// Upsert writes the batch keyed by (subject, person, date) and must be
// idempotent, committing nothing on failure.
type Store[S model.Status] interface {
	Fetch(ctx context.Context, subjectID string, from, to time.Time) ([]model.Observation[S], error)
	Upsert(ctx context.Context, observations []model.Observation[S]) error
}

type Ledger[S model.Status] struct {
	store Store[S]
	now   func() time.Time
}

func New[S model.Status](store Store[S]) *Ledger[S] {
	return &Ledger[S]{store: store, now: time.Now}
}

// NewWithClock pins the ledger's notion of "today". Used by tests and by
// callers that need a stable cutoff across one session.
func NewWithClock[S model.Status](store Store[S], now func() time.Time) *Ledger[S] {
	return &Ledger[S]{store: store, now: now}
}

// Load returns the observation set for the subject and date. A date with no
// prior save yields an empty set, not an error; that is the expected state
// for "not yet recorded". Dates after today are rejected.
func (l *Ledger[S]) Load(ctx context.Context, subjectID string, date time.Time) (*model.ObservationSet[S], error) {
	day := model.Day(date)
	if day.After(model.Day(l.now())) {
		return nil, model.ErrInvalidDate
	}
	rows, err := l.store.Fetch(ctx, subjectID, day, day)
	if err != nil {
		return nil, err
	}
	set := model.NewObservationSet[S](subjectID, day)
	for _, obs := range rows {
		set.Entries[obs.PersonID] = obs
		if obs.RecordedAt.After(set.RecordedAt) {
			set.RecordedBy = obs.RecordedBy
			set.RecordedAt = obs.RecordedAt
		}
	}
	return set, nil
}

// SetStatus records or replaces one person's status in memory. Nothing is
// persisted until Save.
func (l *Ledger[S]) SetStatus(set *model.ObservationSet[S], personID string, status S, note string) {
	obs := set.Entries[personID]
	obs.SubjectID = set.SubjectID
	obs.PersonID = personID
	obs.Date = set.Date
	obs.Status = status
	obs.Note = note
	set.Entries[personID] = obs
}

// MarkAllPresent replaces the in-memory set with one present-equivalent entry
// per listed person, discarding any partial statuses entered before.
func (l *Ledger[S]) MarkAllPresent(set *model.ObservationSet[S], personIDs []string, present S) {
	set.Entries = make(map[string]model.Observation[S], len(personIDs))
	for _, personID := range personIDs {
		set.Entries[personID] = model.Observation[S]{
			SubjectID: set.SubjectID,
			PersonID:  personID,
			Date:      set.Date,
			Status:    present,
		}
	}
}

// Save persists the whole set as one batched upsert and stamps provenance
// with the current recorder. Saving an empty set fails with
// ErrEmptyObservationSet; future dates fail with ErrInvalidDate. Resaving a
// past date is a first-class correction, not a special case.
func (l *Ledger[S]) Save(ctx context.Context, set *model.ObservationSet[S], recordedBy string) (*model.ObservationSet[S], error) {
	if set.Date.After(model.Day(l.now())) {
		return nil, model.ErrInvalidDate
	}
	if len(set.Entries) == 0 {
		return nil, model.ErrEmptyObservationSet
	}
	now := l.now().UTC()
	batch := make([]model.Observation[S], 0, len(set.Entries))
	for personID, obs := range set.Entries {
		obs.SubjectID = set.SubjectID
		obs.PersonID = personID
		obs.Date = set.Date
		obs.RecordedBy = recordedBy
		obs.RecordedAt = now
		batch = append(batch, obs)
		set.Entries[personID] = obs
	}
	if err := l.store.Upsert(ctx, batch); err != nil {
		return nil, err
	}
	set.RecordedBy = recordedBy
	set.RecordedAt = now
	return set, nil
}
