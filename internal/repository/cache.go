package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"registro/attendance/internal/model"
)

const (
	cacheKeyClassroomsActive = "attendance:classrooms:active"
	cacheKeyClassroomsAll    = "attendance:classrooms:all"
	cacheKeyStudentsPrefix   = "attendance:students:"
)

// CachedDirectory fronts the directory queries with a short-TTL redis cache.
// Classrooms and rosters are administrative reference data, immutable during
// a reporting session, so a stale read within the TTL is acceptable. Staff
// lookups are never cached. With no redis client configured every call passes
// straight through.
type CachedDirectory struct {
	store  *Store
	client *redis.Client
	ttl    time.Duration
}

func NewCachedDirectory(store *Store, client *redis.Client, ttl time.Duration) *CachedDirectory {
	return &CachedDirectory{store: store, client: client, ttl: ttl}
}

func (d *CachedDirectory) ListClassrooms(ctx context.Context, activeOnly bool) ([]model.Classroom, error) {
	key := cacheKeyClassroomsAll
	if activeOnly {
		key = cacheKeyClassroomsActive
	}
	var cached []model.Classroom
	if d.getJSON(ctx, key, &cached) {
		return cached, nil
	}
	classrooms, err := d.store.ListClassrooms(ctx, activeOnly)
	if err != nil {
		return nil, err
	}
	d.setJSON(ctx, key, classrooms)
	return classrooms, nil
}

func (d *CachedDirectory) ListStudents(ctx context.Context, classroomID string) ([]model.Student, error) {
	key := cacheKeyStudentsPrefix + classroomID
	var cached []model.Student
	if d.getJSON(ctx, key, &cached) {
		return cached, nil
	}
	students, err := d.store.ListStudents(ctx, classroomID)
	if err != nil {
		return nil, err
	}
	d.setJSON(ctx, key, students)
	return students, nil
}

func (d *CachedDirectory) ListMeetings(ctx context.Context) ([]model.Meeting, error) {
	return d.store.ListMeetings(ctx)
}

func (d *CachedDirectory) GetStaff(ctx context.Context, staffID string) (model.Staff, error) {
	return d.store.GetStaff(ctx, staffID)
}

// Warm refreshes the cached classroom list and every active classroom's
// roster. Called periodically by the cache warm job.
func (d *CachedDirectory) Warm(ctx context.Context) error {
	if d.client == nil {
		return nil
	}
	classrooms, err := d.store.ListClassrooms(ctx, true)
	if err != nil {
		return err
	}
	d.setJSON(ctx, cacheKeyClassroomsActive, classrooms)
	for _, classroom := range classrooms {
		students, err := d.store.ListStudents(ctx, classroom.ID)
		if err != nil {
			return err
		}
		d.setJSON(ctx, cacheKeyStudentsPrefix+classroom.ID, students)
	}
	return nil
}

func (d *CachedDirectory) getJSON(ctx context.Context, key string, value any) bool {
	if d.client == nil {
		return false
	}
	payload, err := d.client.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(payload, value) == nil
}

func (d *CachedDirectory) setJSON(ctx context.Context, key string, value any) {
	if d.client == nil {
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return
	}
	// Cache writes are best effort; a miss just falls back to the store.
	_ = d.client.Set(ctx, key, payload, d.ttl).Err()
}
