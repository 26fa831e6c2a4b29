package services

import (
	"sync"

	"github.com/Dosada05/swiss-tournaments/models"
)

// TournamentLocks serializes mutating operations per tournament. Pairing,
// result reporting and lifecycle changes for the same tournament must not
// interleave; different tournaments proceed independently.
type TournamentLocks struct {
	mu    sync.Mutex
	locks map[models.TournamentID]*sync.Mutex
}

func NewTournamentLocks() *TournamentLocks {
	return &TournamentLocks{locks: make(map[models.TournamentID]*sync.Mutex)}
}

func (l *TournamentLocks) lock(id models.TournamentID) func() {
	l.mu.Lock()
	m, ok := l.locks[id]
	if !ok {
		m = &sync.Mutex{}
		l.locks[id] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
