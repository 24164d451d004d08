package voting

import (
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/wouldwatch/internal/models"
	"github.com/desertthunder/wouldwatch/internal/shared"
)

// FlashDuration is how long a match stays on screen.
const FlashDuration = 2 * time.Second

// State is the voting flow state.
type State int

const (
	Idle State = iota
	Searching
	Voting
	Exhausted
)

func (s State) String() string {
	switch s {
	case Searching:
		return "SEARCHING"
	case Voting:
		return "VOTING"
	case Exhausted:
		return "EXHAUSTED"
	default:
		return "IDLE"
	}
}

// Ballot identifies a vote in flight.
//
// Queue names the candidate queue the ballot was cast against; it changes only when a search
// installs new results.
type Ballot struct {
	Queue     uint64
	Position  int
	Movie     models.Movie
	Direction models.Direction
	seq       uint64
}

// Vote is the request body for this ballot.
func (b Ballot) Vote() models.Vote {
	return models.Vote{MediaID: b.Movie.ID, Vote: b.Direction}
}

// Machine holds the candidate queue and the voter's position in it.
//
// The zero value is an idle machine.
type Machine struct {
	state    State
	queue    []models.Movie
	position int
	searched bool
	busy     bool
	query    string
	err      error

	generation uint64
	queueID    uint64
	ballotSeq  uint64
	pending    uint64
	flash      uint64
	flashSeq   uint64
}

// NewMachine creates an idle [Machine].
func NewMachine() *Machine {
	return &Machine{}
}

func (m *Machine) State() State       { return m.state }
func (m *Machine) Position() int      { return m.position }
func (m *Machine) Len() int           { return len(m.queue) }
func (m *Machine) Busy() bool         { return m.busy }
func (m *Machine) Query() string      { return m.query }
func (m *Machine) Generation() uint64 { return m.generation }

// Err is the inline error of the last failed search or vote, cleared by the next attempt.
func (m *Machine) Err() error { return m.err }

// Flashing reports whether a match flash is showing.
func (m *Machine) Flashing() bool { return m.flash != 0 }

// FlashID is the occurrence id of the showing flash, or 0.
func (m *Machine) FlashID() uint64 { return m.flash }

// Current returns the candidate being voted on.
func (m *Machine) Current() (models.Movie, bool) {
	if m.state != Voting || m.position >= len(m.queue) {
		return models.Movie{}, false
	}
	return m.queue[m.position], true
}

// Progress renders the 1-based position, e.g. "Movie 2 of 5".
func (m *Machine) Progress() string {
	if m.state != Voting {
		return ""
	}
	return fmt.Sprintf("Movie %d of %d", m.position+1, len(m.queue))
}

// StartSearch begins a search and returns its generation.
//
// A blank query is a validation error and changes nothing. Any earlier search still running
// is superseded. A vote in flight is not: it keeps the machine busy until it resolves.
func (m *Machine) StartSearch(query string) (uint64, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return 0, shared.NewValidationError("query", "Enter a movie title to search")
	}

	m.generation++
	m.state = Searching
	m.query = q
	m.err = nil
	return m.generation, nil
}

// SearchSucceeded installs results as the new queue. It reports false for a stale generation.
func (m *Machine) SearchSucceeded(generation uint64, results []models.Movie) bool {
	if generation != m.generation || m.state != Searching {
		return false
	}

	m.queue = append([]models.Movie(nil), results...)
	m.queueID++
	m.position = 0
	m.searched = true
	m.err = nil

	if len(m.queue) == 0 {
		m.state = Exhausted
	} else {
		m.state = Voting
	}
	return true
}

// SearchFailed keeps the previous queue and position and records err inline.
func (m *Machine) SearchFailed(generation uint64, err error) bool {
	if generation != m.generation || m.state != Searching {
		return false
	}

	m.err = err
	m.state = m.settledState()
	return true
}

func (m *Machine) settledState() State {
	switch {
	case !m.searched:
		return Idle
	case m.position >= len(m.queue):
		return Exhausted
	default:
		return Voting
	}
}

// BeginVote marks a vote on the current candidate as in flight.
//
// It reports false, doing nothing, outside VOTING or while another vote is in flight.
func (m *Machine) BeginVote(direction models.Direction) (Ballot, bool) {
	if m.state != Voting || m.busy || m.position >= len(m.queue) {
		return Ballot{}, false
	}

	m.ballotSeq++
	m.pending = m.ballotSeq
	m.busy = true
	m.err = nil
	return Ballot{
		Queue:     m.queueID,
		Position:  m.position,
		Movie:     m.queue[m.position],
		Direction: direction,
		seq:       m.ballotSeq,
	}, true
}

// VoteSucceeded resolves the ballot in flight.
//
// A match starts a new flash even when a search has replaced the queue since, and its
// occurrence id is returned; schedule [Machine.ClearFlash] with it after [FlashDuration].
// The position advances only while the ballot's queue is still installed. Ballots that are
// not in flight are ignored and return 0.
func (m *Machine) VoteSucceeded(b Ballot, match bool) uint64 {
	if !m.resolve(b) {
		return 0
	}

	var flash uint64
	if match {
		m.flashSeq++
		m.flash = m.flashSeq
		flash = m.flash
	}

	if b.Queue == m.queueID && b.Position == m.position {
		m.position++
		if m.position >= len(m.queue) && m.state == Voting {
			m.state = Exhausted
		}
	}
	return flash
}

// VoteFailed resolves the ballot in flight, leaving the position unchanged.
//
// err is recorded inline unless a search has replaced the queue since.
func (m *Machine) VoteFailed(b Ballot, err error) bool {
	if !m.resolve(b) {
		return false
	}

	if b.Queue == m.queueID {
		m.err = err
	}
	return true
}

func (m *Machine) resolve(b Ballot) bool {
	if !m.busy || b.seq == 0 || b.seq != m.pending {
		return false
	}
	m.busy = false
	m.pending = 0
	return true
}

// ClearFlash hides the flash with the given occurrence id. Older ids are ignored.
func (m *Machine) ClearFlash(id uint64) {
	if id != 0 && m.flash == id {
		m.flash = 0
	}
}
