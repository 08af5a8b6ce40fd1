package dataset

import (
	"sync/atomic"
	"time"
)

// Snapshot is one complete, immutable generation of the analytics data.
// Temporal and Geo hold the quality-filtered views most aggregations read;
// TemporalRaw and GeoRaw keep every row as delivered by the source. Bot
// classification must read the raw geo table: the quality filter drops
// exactly the short sessions the classifier looks for.
type Snapshot struct {
	Temporal    Table
	TemporalRaw Table
	Geo         Table
	GeoRaw      Table

	LoadedAt time.Time
}

// NewSnapshot returns an empty snapshot with the table kinds set.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Temporal:    Table{Kind: KindTemporal},
		TemporalRaw: Table{Kind: KindTemporal},
		Geo:         Table{Kind: KindGeo},
		GeoRaw:      Table{Kind: KindGeo},
	}
}

// Empty reports whether no sub-table holds any rows.
func (s *Snapshot) Empty() bool {
	return s.TemporalRaw.Empty() && s.GeoRaw.Empty()
}

// Store holds the current snapshot behind a single swappable reference.
// Readers take the snapshot once at the start of a request and use it
// throughout; a concurrent Swap never affects rows they already hold.
type Store struct {
	current atomic.Pointer[Snapshot]
}

// NewStore returns a store primed with an empty snapshot so that readers
// never observe nil before the first refresh completes.
func NewStore() *Store {
	s := &Store{}
	s.current.Store(NewSnapshot())
	return s
}

// Current returns the live snapshot.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// Swap atomically replaces the live snapshot.
func (s *Store) Swap(sn *Snapshot) {
	s.current.Store(sn)
}
