package domain

import "sort"

// LibrarySnapshot is the in-memory copy of the remote list a chat pages
// through. Once built it is only replaced, never mutated in place.
type LibrarySnapshot struct {
	Games   []GameRecord
	Friends []FriendRecord
}

// DeletionSnapshot backs the removal menu. It has its own lifecycle,
// independent of the library snapshot, and supports optimistic removal.
type DeletionSnapshot struct {
	Games []GameRecord
}

// NewDeletionSnapshot orders games by id descending so the newest entries
// surface on the first page of the removal menu.
func NewDeletionSnapshot(games []GameRecord) *DeletionSnapshot {
	sorted := make([]GameRecord, len(games))
	copy(sorted, games)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID > sorted[j].ID })
	return &DeletionSnapshot{Games: sorted}
}

// Remove splices the game with the given id out of the snapshot. It reports
// whether anything was removed.
func (s *DeletionSnapshot) Remove(id int) bool {
	for i, game := range s.Games {
		if game.ID == id {
			s.Games = append(s.Games[:i], s.Games[i+1:]...)
			return true
		}
	}
	return false
}

// ClampPage forces page into [1, totalPages] for the given list length and
// page size. A list always has at least one page.
func ClampPage(page, count, pageSize int) (clamped, totalPages int) {
	totalPages = (count + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}
	return page, totalPages
}

// PageSlice returns the records visible on the (already clamped) page.
func PageSlice(games []GameRecord, page, pageSize int) []GameRecord {
	start := (page - 1) * pageSize
	if start >= len(games) {
		return nil
	}
	end := start + pageSize
	if end > len(games) {
		end = len(games)
	}
	return games[start:end]
}
