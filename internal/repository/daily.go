package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"registro/attendance/internal/model"
)

// DailyStore persists daily classroom attendance. One row per
// (student, date); saves are batched upserts inside a single transaction so a
// failed batch commits nothing.
type DailyStore struct {
	*Store
}

func NewDailyStore(store *Store) *DailyStore {
	return &DailyStore{Store: store}
}

func (s *DailyStore) Fetch(ctx context.Context, classroomID string, from, to time.Time) ([]model.Observation[model.DailyStatus], error) {
	rows, err := s.pool.Query(ctx, `
		SELECT classroom_id, student_id, date, status, note, created_by, created_at
		FROM attendance_records
		WHERE classroom_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date, student_id
	`, classroomID, from, to)
	if err != nil {
		return nil, storeErr("fetch attendance", err)
	}
	defer rows.Close()

	var observations []model.Observation[model.DailyStatus]
	for rows.Next() {
		var obs model.Observation[model.DailyStatus]
		var code int16
		if err := rows.Scan(&obs.SubjectID, &obs.PersonID, &obs.Date, &code, &obs.Note, &obs.RecordedBy, &obs.RecordedAt); err != nil {
			return nil, storeErr("scan attendance", err)
		}
		status, err := decodeDailyStatus(code)
		if err != nil {
			return nil, storeErr("decode attendance", err)
		}
		obs.Status = status
		obs.Date = model.Day(obs.Date)
		observations = append(observations, obs)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("fetch attendance", err)
	}
	return observations, nil
}

func (s *DailyStore) Upsert(ctx context.Context, observations []model.Observation[model.DailyStatus]) error {
	err := s.WithTx(ctx, func(tx pgx.Tx) error {
		for _, obs := range observations {
			code, err := encodeDailyStatus(obs.Status)
			if err != nil {
				return err
			}
			_, err = tx.Exec(ctx, `
				INSERT INTO attendance_records (id, classroom_id, student_id, date, status, note, created_by, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
				ON CONFLICT (student_id, date) DO UPDATE SET
					classroom_id = EXCLUDED.classroom_id,
					status = EXCLUDED.status,
					note = EXCLUDED.note,
					created_by = EXCLUDED.created_by,
					created_at = EXCLUDED.created_at
			`, uuid.New(), obs.SubjectID, obs.PersonID, obs.Date, code, obs.Note, obs.RecordedBy, obs.RecordedAt)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return storeErr("upsert attendance", err)
	}
	return nil
}

// MarkedDates lists the dates within a month that already have at least one
// record for the classroom.
func (s *DailyStore) MarkedDates(ctx context.Context, classroomID string, year int, month time.Month) ([]time.Time, error) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT date
		FROM attendance_records
		WHERE classroom_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date
	`, classroomID, first, last)
	if err != nil {
		return nil, storeErr("marked dates", err)
	}
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var date time.Time
		if err := rows.Scan(&date); err != nil {
			return nil, storeErr("scan marked dates", err)
		}
		dates = append(dates, model.Day(date))
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("marked dates", err)
	}
	return dates, nil
}
