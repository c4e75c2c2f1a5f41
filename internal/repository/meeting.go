package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"registro/attendance/internal/model"
)

// MeetingStore persists parent meeting attendance with the same batched
// upsert strategy as the daily store, keyed by (meeting, student). The
// observation date is the meeting's scheduled date.
type MeetingStore struct {
	*Store
}

func NewMeetingStore(store *Store) *MeetingStore {
	return &MeetingStore{Store: store}
}

func (s *MeetingStore) Fetch(ctx context.Context, meetingID string, from, to time.Time) ([]model.Observation[model.MeetingStatus], error) {
	rows, err := s.pool.Query(ctx, `
		SELECT r.meeting_id, r.student_id, m.scheduled_on, r.attended, r.family_member, r.other_family_member_name, r.created_by, r.created_at
		FROM meeting_records r
		JOIN meetings m ON m.id = r.meeting_id
		WHERE r.meeting_id = $1 AND m.scheduled_on >= $2 AND m.scheduled_on <= $3
		ORDER BY r.student_id
	`, meetingID, from, to)
	if err != nil {
		return nil, storeErr("fetch meeting attendance", err)
	}
	defer rows.Close()

	var observations []model.Observation[model.MeetingStatus]
	for rows.Next() {
		var obs model.Observation[model.MeetingStatus]
		var code *int16
		if err := rows.Scan(&obs.SubjectID, &obs.PersonID, &obs.Date, &obs.Status.Attended, &code, &obs.Status.OtherName, &obs.RecordedBy, &obs.RecordedAt); err != nil {
			return nil, storeErr("scan meeting attendance", err)
		}
		// A no-show row has no family member attached.
		if code != nil {
			relation, err := decodeRelation(*code)
			if err != nil {
				return nil, storeErr("decode meeting attendance", err)
			}
			obs.Status.Relation = relation
		}
		obs.Date = model.Day(obs.Date)
		observations = append(observations, obs)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("fetch meeting attendance", err)
	}
	return observations, nil
}

func (s *MeetingStore) Upsert(ctx context.Context, observations []model.Observation[model.MeetingStatus]) error {
	err := s.WithTx(ctx, func(tx pgx.Tx) error {
		for _, obs := range observations {
			var code *int16
			if obs.Status.Relation != "" {
				encoded, err := encodeRelation(obs.Status.Relation)
				if err != nil {
					return err
				}
				code = &encoded
			}
			_, err := tx.Exec(ctx, `
				INSERT INTO meeting_records (id, meeting_id, student_id, attended, family_member, other_family_member_name, created_by, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
				ON CONFLICT (meeting_id, student_id) DO UPDATE SET
					attended = EXCLUDED.attended,
					family_member = EXCLUDED.family_member,
					other_family_member_name = EXCLUDED.other_family_member_name,
					created_by = EXCLUDED.created_by,
					created_at = EXCLUDED.created_at
			`, uuid.New(), obs.SubjectID, obs.PersonID, obs.Status.Attended, code, obs.Status.OtherName, obs.RecordedBy, obs.RecordedAt)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return storeErr("upsert meeting attendance", err)
	}
	return nil
}
