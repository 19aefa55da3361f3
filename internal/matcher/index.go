package matcher

import (
	"expense-reconciliation-service/internal/models"
)

// RecordIndex groups records by their match key. Records sharing a key
// keep their source order, so repeated keys pair first-come first-served
// and each occurrence is consumed at most once.
type RecordIndex struct {
	byKey map[models.MatchKey][]*models.Record
	total int
}

// NewRecordIndex builds an index over the given records
func NewRecordIndex(records []*models.Record) *RecordIndex {
	index := &RecordIndex{
		byKey: make(map[models.MatchKey][]*models.Record),
		total: len(records),
	}

	for _, record := range records {
		key := record.Key()
		index.byKey[key] = append(index.byKey[key], record)
	}

	return index
}

// Get returns the remaining records for a key in source order
func (ri *RecordIndex) Get(key models.MatchKey) []*models.Record {
	return ri.byKey[key]
}

// Count returns how many unconsumed records remain for a key
func (ri *RecordIndex) Count(key models.MatchKey) int {
	return len(ri.byKey[key])
}

// Take consumes and returns the oldest remaining record for a key. It
// returns false once every occurrence of the key has been consumed.
func (ri *RecordIndex) Take(key models.MatchKey) (*models.Record, bool) {
	queue := ri.byKey[key]
	if len(queue) == 0 {
		return nil, false
	}

	record := queue[0]
	if len(queue) == 1 {
		delete(ri.byKey, key)
	} else {
		ri.byKey[key] = queue[1:]
	}
	return record, true
}

// Size returns the total number of indexed records
func (ri *RecordIndex) Size() int {
	return ri.total
}

// GetIndexStats returns statistics about key distribution
func (ri *RecordIndex) GetIndexStats() IndexStats {
	stats := IndexStats{
		TotalRecords: ri.total,
		UniqueKeys:   len(ri.byKey),
	}
	for _, queue := range ri.byKey {
		if len(queue) > stats.MaxOccurrences {
			stats.MaxOccurrences = len(queue)
		}
	}
	return stats
}

// IndexStats provides statistics about an index's key distribution
type IndexStats struct {
	TotalRecords   int
	UniqueKeys     int
	MaxOccurrences int
}
