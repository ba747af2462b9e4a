// Package testutil holds fixtures shared by package tests: a small
// GDELT-style events table and an isolated repository root.
package testutil

import (
	"context"
	"testing"
)

// Execer runs a statement that returns no rows. *executor.Executor
// satisfies it.
type Execer interface {
	Exec(ctx context.Context, query string, args ...any) error
}

// EventsSchema creates the events table.
const EventsSchema = `CREATE TABLE events (
	globaleventid INTEGER PRIMARY KEY,
	year INTEGER,
	actor1name TEXT,
	actor2name TEXT,
	tone REAL
)`

// Event is one row of the events fixture. A nil Actor2 is stored as NULL.
type Event struct {
	ID     int64
	Year   int64
	Actor1 string
	Actor2 any
	Tone   float64
}

// Events is the fixture content, in insertion order.
//
// Two rows are from 2015 and one from 2016; one row has no second actor, so
// COUNT(actor2name) is 2 while COUNT(*) is 3.
var Events = []Event{
	{ID: 470747760, Year: 2015, Actor1: "USA", Actor2: "CHINA", Tone: 1.5},
	{ID: 470747761, Year: 2015, Actor1: "FRANCE", Actor2: nil, Tone: 2.5},
	{ID: 470747762, Year: 2016, Actor1: "USA", Actor2: "RUSSIA", Tone: -1.0},
}

// SeedEvents creates the events table on db and inserts Events.
func SeedEvents(t testing.TB, db Execer) {
	t.Helper()
	ctx := context.Background()

	if err := db.Exec(ctx, EventsSchema); err != nil {
		t.Fatalf("create events: %v", err)
	}
	for _, e := range Events {
		if err := db.Exec(ctx, `INSERT INTO events VALUES (?, ?, ?, ?, ?)`,
			e.ID, e.Year, e.Actor1, e.Actor2, e.Tone); err != nil {
			t.Fatalf("insert event %d: %v", e.ID, err)
		}
	}
}
