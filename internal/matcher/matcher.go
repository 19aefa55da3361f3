// Package matcher implements exact-key matching between the bookkeeping
// export and the bank statement. Two records match when their normalized
// Payer and Description texts and their amounts are identical; there is no
// tolerance or fuzzy comparison. Matching respects multiplicity: a key
// occurring twice on one side and once on the other produces exactly one
// match, leaving one occurrence unmatched.
package matcher

import (
	"expense-reconciliation-service/internal/models"
	"expense-reconciliation-service/pkg/logger"
)

// MatchingEngine is the core engine responsible for record matching
type MatchingEngine struct {
	logger logger.Logger
}

// NewMatchingEngine creates a new matching engine
func NewMatchingEngine() *MatchingEngine {
	return &MatchingEngine{
		logger: logger.GetGlobalLogger().WithComponent("matcher"),
	}
}

// MatchResult represents the complete result of matching the two ledgers
type MatchResult struct {
	Matches              []*models.Match
	UnmatchedBookkeeping []*models.Record
	UnmatchedStatement   []*models.Record
	Summary              MatchSummary
}

// MatchSummary provides aggregate statistics about the matching pass
type MatchSummary struct {
	TotalBookkeeping     int `json:"total_bookkeeping"`
	TotalStatement       int `json:"total_statement"`
	MatchedPairs         int `json:"matched_pairs"`
	UnmatchedBookkeeping int `json:"unmatched_bookkeeping"`
	UnmatchedStatement   int `json:"unmatched_statement"`
}

// Match pairs bookkeeping records against statement records. Bookkeeping
// records are processed in source order and each consumes the oldest
// remaining statement record with the same key, so the match count per key
// is the minimum of the two occurrence counts. Unmatched records retain
// their source order.
func (me *MatchingEngine) Match(bookkeeping, statement []*models.Record) *MatchResult {
	statementIndex := NewRecordIndex(statement)

	stats := statementIndex.GetIndexStats()
	me.logger.WithFields(logger.Fields{
		"bookkeeping_records": len(bookkeeping),
		"statement_records":   stats.TotalRecords,
		"statement_keys":      stats.UniqueKeys,
		"max_occurrences":     stats.MaxOccurrences,
	}).Debug("Starting record matching")

	result := &MatchResult{}
	matched := make(map[*models.Record]bool)

	for _, record := range bookkeeping {
		counterpart, ok := statementIndex.Take(record.Key())
		if !ok {
			result.UnmatchedBookkeeping = append(result.UnmatchedBookkeeping, record)
			continue
		}

		matched[counterpart] = true
		result.Matches = append(result.Matches, &models.Match{
			Bookkeeping: record,
			Statement:   counterpart,
		})
	}

	for _, record := range statement {
		if !matched[record] {
			result.UnmatchedStatement = append(result.UnmatchedStatement, record)
		}
	}

	result.Summary = MatchSummary{
		TotalBookkeeping:     len(bookkeeping),
		TotalStatement:       len(statement),
		MatchedPairs:         len(result.Matches),
		UnmatchedBookkeeping: len(result.UnmatchedBookkeeping),
		UnmatchedStatement:   len(result.UnmatchedStatement),
	}

	me.logger.WithFields(logger.Fields{
		"matched_pairs":         result.Summary.MatchedPairs,
		"unmatched_bookkeeping": result.Summary.UnmatchedBookkeeping,
		"unmatched_statement":   result.Summary.UnmatchedStatement,
	}).Info("Record matching complete")

	return result
}

// MatchedBookkeepingPositions returns the original row positions of every
// matched bookkeeping record
func (mr *MatchResult) MatchedBookkeepingPositions() map[int]bool {
	positions := make(map[int]bool, len(mr.Matches))
	for _, match := range mr.Matches {
		positions[match.Bookkeeping.Position] = true
	}
	return positions
}

// MatchedStatementPositions returns the original row positions of every
// matched statement record
func (mr *MatchResult) MatchedStatementPositions() map[int]bool {
	positions := make(map[int]bool, len(mr.Matches))
	for _, match := range mr.Matches {
		positions[match.Statement.Position] = true
	}
	return positions
}
