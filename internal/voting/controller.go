package voting

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/wouldwatch/internal/models"
)

// Searcher finds voting candidates.
type Searcher interface {
	SearchMedia(ctx context.Context, query string) ([]models.Movie, error)
}

// Voter submits votes for a session.
type Voter interface {
	SubmitVote(ctx context.Context, sessionID string, vote models.Vote) (*models.VoteResult, error)
}

// Outcome describes what a call to [Controller.Vote] did.
type Outcome struct {
	// Ignored is set when the vote was suppressed (nothing to vote on, or a vote already in flight).
	Ignored bool
	Movie   models.Movie
	Match   bool
	State   State
}

// Controller runs a [Machine] against the backend with its own locking.
//
// Network calls happen outside the lock; the machine's busy flag keeps votes sequential.
type Controller struct {
	sessionID string
	searcher  Searcher
	voter     Voter
	logger    *log.Logger
	afterFunc func(time.Duration, func())

	mu      sync.Mutex
	machine *Machine
}

// NewController creates a controller for sessionID.
func NewController(sessionID string, searcher Searcher, voter Voter, logger *log.Logger) *Controller {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Controller{
		sessionID: sessionID,
		searcher:  searcher,
		voter:     voter,
		logger:    logger,
		afterFunc: func(d time.Duration, fn func()) { time.AfterFunc(d, fn) },
		machine:   NewMachine(),
	}
}

// SessionID returns the session votes are submitted to.
func (c *Controller) SessionID() string {
	return c.sessionID
}

// Snapshot is a copy of the machine's observable state.
type Snapshot struct {
	State    State
	Position int
	Len      int
	Current  *models.Movie
	Busy     bool
	Flashing bool
	Progress string
	Err      error
}

// Snapshot reads the machine under the lock.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		State:    c.machine.State(),
		Position: c.machine.Position(),
		Len:      c.machine.Len(),
		Busy:     c.machine.Busy(),
		Flashing: c.machine.Flashing(),
		Progress: c.machine.Progress(),
		Err:      c.machine.Err(),
	}
	if m, ok := c.machine.Current(); ok {
		s.Current = &m
	}
	return s
}

// Search replaces the queue with results for query.
//
// A failed search keeps the previous queue; the error is returned and also kept inline.
func (c *Controller) Search(ctx context.Context, query string) error {
	c.mu.Lock()
	generation, err := c.machine.StartSearch(query)
	c.mu.Unlock()
	if err != nil {
		return err
	}

	results, err := c.searcher.SearchMedia(ctx, query)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.machine.SearchFailed(generation, err)
		c.logger.Warn("search failed", "query", query, "error", err)
		return err
	}

	if !c.machine.SearchSucceeded(generation, results) {
		c.logger.Debug("discarding superseded search", "query", query)
	}
	return nil
}

// Vote submits direction for the current candidate and advances on success.
func (c *Controller) Vote(ctx context.Context, direction models.Direction) (Outcome, error) {
	c.mu.Lock()
	ballot, ok := c.machine.BeginVote(direction)
	state := c.machine.State()
	c.mu.Unlock()
	if !ok {
		return Outcome{Ignored: true, State: state}, nil
	}

	result, err := c.voter.SubmitVote(ctx, c.sessionID, ballot.Vote())

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.machine.VoteFailed(ballot, err)
		c.logger.Warn("vote failed", "movie", ballot.Movie.ID, "error", err)
		return Outcome{Movie: ballot.Movie, State: c.machine.State()}, err
	}

	match := result != nil && result.Match
	if flash := c.machine.VoteSucceeded(ballot, match); flash != 0 {
		c.afterFunc(FlashDuration, func() {
			c.mu.Lock()
			c.machine.ClearFlash(flash)
			c.mu.Unlock()
		})
	}

	return Outcome{Movie: ballot.Movie, Match: match, State: c.machine.State()}, nil
}
