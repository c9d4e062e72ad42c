// Package recordstore keeps every collection in memory and persists it as one JSON
// document per collection in a kv.Store. A mutation is applied in memory only once
// the whole collection has been written.
package recordstore

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/pkg/errors"

	"github.com/breakthefear/btf/core"
	"github.com/breakthefear/btf/core/academy"
	"github.com/breakthefear/btf/core/activity"
	"github.com/breakthefear/btf/core/payment"
	"github.com/breakthefear/btf/core/student"
	"github.com/breakthefear/btf/storage/kv"
)

// collection keys, without the configured prefix
const (
	batchesKey      = "batches"
	coursesKey      = "courses"
	monthsKey       = "months"
	institutionsKey = "institutions"
	studentsKey     = "students"
	paymentsKey     = "payments"
	activitiesKey   = "activities"
	usersKey        = "users"
)

type (
	DB struct {
		mu    sync.RWMutex
		store kv.Store
		fees  core.FeesConfig

		batches      *table[academy.Batch]
		courses      *table[academy.Course]
		months       *table[academy.Month]
		institutions *table[academy.Institution]
		students     *table[student.Student]
		payments     *table[payment.Payment]
		activities   *table[activity.Activity]
		users        *table[userRecord]
	}

	table[T any] struct {
		key  string
		rows []T
	}
)

// Open loads every collection from store. A document that does not parse is an error.
func Open(ctx context.Context, store kv.Store, conf *core.Config) (*DB, error) {
	prefix := conf.Storage.KeyPrefix
	db := &DB{
		store:        store,
		fees:         conf.Fees,
		batches:      &table[academy.Batch]{key: prefix + batchesKey},
		courses:      &table[academy.Course]{key: prefix + coursesKey},
		months:       &table[academy.Month]{key: prefix + monthsKey},
		institutions: &table[academy.Institution]{key: prefix + institutionsKey},
		students:     &table[student.Student]{key: prefix + studentsKey},
		payments:     &table[payment.Payment]{key: prefix + paymentsKey},
		activities:   &table[activity.Activity]{key: prefix + activitiesKey},
		users:        &table[userRecord]{key: prefix + usersKey},
	}

	loaders := []func(context.Context, kv.Store) error{
		db.batches.load, db.courses.load, db.months.load, db.institutions.load,
		db.students.load, db.payments.load, db.activities.load, db.users.load,
	}
	for _, load := range loaders {
		if err := load(ctx, store); err != nil {
			return nil, err
		}
	}
	return db, nil
}

func (db *DB) Close() error {
	return db.store.Close()
}

func (t *table[T]) load(ctx context.Context, store kv.Store) error {
	data, err := store.Get(ctx, t.key)
	if err != nil {
		return errors.Wrapf(err, "loading %s", t.key)
	}
	t.rows = make([]T, 0)
	if data == nil {
		return nil
	}
	if err = json.Unmarshal(data, &t.rows); err != nil {
		return errors.Wrapf(err, "parsing %s", t.key)
	}
	return nil
}

// save writes rows as the new content of the collection, then swaps them in.
func (t *table[T]) save(ctx context.Context, store kv.Store, rows []T) error {
	if rows == nil {
		rows = make([]T, 0)
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return errors.Wrapf(err, "encoding %s", t.key)
	}
	if err = store.Set(ctx, t.key, data); err != nil {
		return errors.Wrapf(err, "saving %s", t.key)
	}
	t.rows = rows
	return nil
}

// all returns a copy of the rows matching keep (every row when keep is nil).
func (t *table[T]) all(keep func(T) bool) []T {
	out := make([]T, 0, len(t.rows))
	for _, row := range t.rows {
		if keep == nil || keep(row) {
			out = append(out, row)
		}
	}
	return out
}

func (t *table[T]) index(match func(T) bool) int {
	for i, row := range t.rows {
		if match(row) {
			return i
		}
	}
	return -1
}

func (t *table[T]) exists(match func(T) bool) bool {
	return t.index(match) >= 0
}

func (t *table[T]) insert(ctx context.Context, store kv.Store, row T) error {
	rows := make([]T, 0, len(t.rows)+1)
	rows = append(rows, t.rows...)
	return t.save(ctx, store, append(rows, row))
}

func (t *table[T]) replace(ctx context.Context, store kv.Store, i int, row T) error {
	rows := t.all(nil)
	rows[i] = row
	return t.save(ctx, store, rows)
}

func (t *table[T]) remove(ctx context.Context, store kv.Store, i int) error {
	rows := make([]T, 0, len(t.rows))
	rows = append(rows, t.rows[:i]...)
	rows = append(rows, t.rows[i+1:]...)
	return t.save(ctx, store, rows)
}
