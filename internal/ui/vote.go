package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/wouldwatch/internal/api"
	"github.com/desertthunder/wouldwatch/internal/models"
	"github.com/desertthunder/wouldwatch/internal/shared"
	"github.com/desertthunder/wouldwatch/internal/voting"
)

var (
	searchKey = key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search"))
)

type searchDone struct {
	generation uint64
	results    []models.Movie
}

type voteDone struct {
	ballot voting.Ballot
	match  bool
}

type voteView struct {
	base
	sessionID string
	machine   *voting.Machine
	search    textinput.Model
	inputErr  string
	// fallback is shown for the last failure when it has no displayable message.
	fallback string
}

func newVoteView(b base, sessionID string) *voteView {
	search := textinput.New()
	search.Placeholder = "Search for movies..."
	search.Prompt = "🔍 "
	return &voteView{base: b, sessionID: sessionID, machine: voting.NewMachine(), search: search}
}

func (v *voteView) Init() tea.Cmd {
	return v.search.Focus()
}

func (v *voteView) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case Msg:
		switch msg.kind {
		case MsgSearchDone:
			done, err := payload[searchDone](msg)
			if err != nil {
				if v.machine.SearchFailed(done.generation, err) {
					v.fallback = "Failed to search movies"
				}
				return nil
			}
			if v.machine.SearchSucceeded(done.generation, done.results) && v.machine.State() == voting.Voting {
				v.search.Blur()
			}
		case MsgVoteDone:
			done, err := payload[voteDone](msg)
			if err != nil {
				if v.machine.VoteFailed(done.ballot, err) {
					v.fallback = "Failed to submit vote"
				}
				return nil
			}
			if flash := v.machine.VoteSucceeded(done.ballot, done.match); flash != 0 {
				return v.later(voting.FlashDuration, MsgFlashExpired, flash)
			}
		case MsgFlashExpired:
			id, _ := msg.data.(uint64)
			v.machine.ClearFlash(id)
		}
		return nil

	case tea.KeyMsg:
		if v.search.Focused() {
			switch {
			case key.Matches(msg, v.keys().enter):
				return v.runSearch()
			case key.Matches(msg, v.keys().back):
				v.search.Blur()
				return nil
			}
			break
		}

		k := v.keys()
		switch {
		case key.Matches(msg, searchKey):
			return v.search.Focus()
		case key.Matches(msg, k.yes):
			return v.vote(models.Yes)
		case key.Matches(msg, k.no):
			return v.vote(models.No)
		case key.Matches(msg, k.matches):
			return v.navigate(SessionPath(v.sessionID, "matches"))
		case key.Matches(msg, k.back):
			return v.navigate(SessionPath(v.sessionID))
		case key.Matches(msg, k.quit):
			return tea.Quit
		}
		return nil
	}

	var cmd tea.Cmd
	v.search, cmd = v.search.Update(msg)
	return cmd
}

func (v *voteView) runSearch() tea.Cmd {
	query := v.search.Value()
	generation, err := v.machine.StartSearch(query)
	if err != nil {
		v.inputErr = inlineError(err, "")
		return nil
	}
	v.inputErr = ""

	backend, ctx, id := v.api(), v.ctx(), v.id
	return func() tea.Msg {
		results, err := backend.SearchMedia(ctx, query)
		return resultMsg(MsgSearchDone, id, searchDone{generation, results}, err)
	}
}

func (v *voteView) vote(direction models.Direction) tea.Cmd {
	ballot, ok := v.machine.BeginVote(direction)
	if !ok {
		return nil
	}

	backend, ctx, id, sessionID := v.api(), v.ctx(), v.id, v.sessionID
	return func() tea.Msg {
		res, err := backend.SubmitVote(ctx, sessionID, ballot.Vote())
		return resultMsg(MsgVoteDone, id, voteDone{ballot, res != nil && res.Match}, err)
	}
}

// inlineError renders validation and gateway failures as their message and hides anything else.
func inlineError(err error, fallback string) string {
	var verr *shared.ValidationError
	var rerr *api.RequestFailed
	switch {
	case errors.As(err, &verr):
		return verr.Message
	case errors.As(err, &rerr):
		return rerr.Error()
	case fallback != "":
		return fallback
	default:
		return err.Error()
	}
}

func (v *voteView) View() string {
	var b strings.Builder

	b.WriteString(styles.title.Render("Vote on Movies"))
	b.WriteString("\n")
	b.WriteString(v.search.View())
	if v.machine.State() == voting.Searching {
		b.WriteString("  " + styles.help.Render("Searching..."))
	}
	b.WriteString("\n")
	if v.inputErr != "" {
		b.WriteString(styles.err.Render(v.inputErr) + "\n")
	}
	if err := v.machine.Err(); err != nil {
		b.WriteString(styles.err.Render(inlineError(err, v.fallback)) + "\n")
	}
	b.WriteString("\n")

	if v.machine.Flashing() {
		b.WriteString(styles.accent.Render("🎉 It's a Match! 🎉") + "\n\n")
	}

	switch v.machine.State() {
	case voting.Voting:
		movie, _ := v.machine.Current()
		b.WriteString(styles.help.Render(v.machine.Progress()) + "\n")
		b.WriteString(styles.box.Render(movieCard(movie)) + "\n")
		if v.machine.Busy() {
			b.WriteString(styles.help.Render("Submitting vote...") + "\n")
		}
	case voting.Exhausted:
		b.WriteString(styles.title.Render("No more movies!") + "\n")
		b.WriteString("Search for more movies to continue voting.\n")
	case voting.Idle:
		b.WriteString(styles.title.Render("Start by searching for movies") + "\n")
		b.WriteString("Use the search bar above to find movies to vote on.\n")
	}

	k := v.keys()
	b.WriteString("\n")
	if v.search.Focused() {
		b.WriteString(v.helpView(k.enter, k.back))
	} else {
		b.WriteString(v.helpView(k.yes, k.no, searchKey, k.matches, k.back, k.quit))
	}
	return b.String()
}

func movieCard(m models.Movie) string {
	var b strings.Builder
	title := m.Title
	if y := m.Year(); y != "" {
		title = fmt.Sprintf("%s (%s)", title, y)
	}
	b.WriteString(styles.focus.Render(title) + "\n")
	if m.VoteAverage > 0 {
		fmt.Fprintf(&b, "★ %.1f\n", m.VoteAverage)
	}
	b.WriteString("\n" + m.Synopsis())
	if u := m.PosterURL(); u != "" {
		b.WriteString("\n\n" + styles.help.Render(u))
	}
	return b.String()
}
