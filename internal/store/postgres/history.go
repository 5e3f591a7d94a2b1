package postgres

import (
	"sort"

	"roomrelay/internal/domain"
)

// reorderHistory implements the history fetch discipline: of candidates
// (already narrowed to a room and to ts < fetchBefore), it keeps the limit
// most recent by ts and returns them in ascending order — "the limit most
// recent events strictly older than fetch_before, in chronological order."
// Ties in ts preserve their original relative order in candidates, matching
// "collisions break by database insertion order". Store.History calls this
// on rows already narrowed and limited by SQL (ORDER BY ts DESC LIMIT); the
// in-memory fake EventStore used in history_test.go calls it on an
// unfiltered candidate set, exercising the same logic both ways.
func reorderHistory(candidates []domain.PersistedEvent, limit int64) []domain.PersistedEvent {
	if limit <= 0 {
		return []domain.PersistedEvent{}
	}

	ascending := make([]domain.PersistedEvent, len(candidates))
	copy(ascending, candidates)
	sort.SliceStable(ascending, func(i, j int) bool {
		return ascending[i].Ts < ascending[j].Ts
	})

	if int64(len(ascending)) > limit {
		ascending = ascending[len(ascending)-int(limit):]
	}

	return ascending
}
