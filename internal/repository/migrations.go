package repository

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RunMigrations applies the schema idempotently at startup.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	log.Println("running database migrations")

	statements := []string{
		`CREATE TABLE IF NOT EXISTS classrooms (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			level TEXT NOT NULL,
			active BOOLEAN NOT NULL DEFAULT TRUE
		)`,
		`CREATE TABLE IF NOT EXISTS students (
			id UUID PRIMARY KEY,
			classroom_id UUID NOT NULL REFERENCES classrooms (id) ON DELETE CASCADE,
			display_name TEXT NOT NULL,
			identity_number TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS staff (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			role TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS staff_assignments (
			staff_id UUID NOT NULL REFERENCES staff (id) ON DELETE CASCADE,
			classroom_id UUID REFERENCES classrooms (id) ON DELETE CASCADE,
			level TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS meetings (
			id UUID PRIMARY KEY,
			classroom_id UUID NOT NULL REFERENCES classrooms (id) ON DELETE CASCADE,
			title TEXT NOT NULL,
			scheduled_on DATE NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS attendance_records (
			id UUID PRIMARY KEY,
			classroom_id UUID NOT NULL REFERENCES classrooms (id) ON DELETE CASCADE,
			student_id UUID NOT NULL REFERENCES students (id) ON DELETE CASCADE,
			date DATE NOT NULL,
			status SMALLINT NOT NULL,
			note TEXT NOT NULL DEFAULT '',
			created_by TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			UNIQUE (student_id, date)
		)`,
		`CREATE TABLE IF NOT EXISTS meeting_records (
			id UUID PRIMARY KEY,
			meeting_id UUID NOT NULL REFERENCES meetings (id) ON DELETE CASCADE,
			student_id UUID NOT NULL REFERENCES students (id) ON DELETE CASCADE,
			attended BOOLEAN NOT NULL,
			family_member SMALLINT,
			other_family_member_name TEXT NOT NULL DEFAULT '',
			created_by TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			UNIQUE (meeting_id, student_id)
		)`,
		`CREATE INDEX IF NOT EXISTS attendance_records_classroom_date_idx
			ON attendance_records (classroom_id, date)`,
	}

	for _, statement := range statements {
		if _, err := pool.Exec(ctx, statement); err != nil {
			log.Printf("migration failed: %v", err)
			return err
		}
	}

	log.Println("database migrations completed")
	return nil
}
