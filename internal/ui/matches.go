package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/wouldwatch/internal/models"
)

type matchesView struct {
	base
	sessionID string
	list      list.Model
	count     int
	loading   bool
	err       string
}

func newMatchesView(b base, sessionID string) *matchesView {
	w, h := b.app.width-4, b.app.height-8
	return &matchesView{
		base:      b,
		sessionID: sessionID,
		list:      newList("Your Matches", nil, max(w, 20), max(h, 10)),
		loading:   true,
	}
}

func (v *matchesView) Init() tea.Cmd {
	backend, ctx, id, sessionID := v.api(), v.ctx(), v.id, v.sessionID
	return func() tea.Msg {
		matches, err := backend.GetMatches(ctx, sessionID)
		return resultMsg(MsgMatchesLoaded, id, matches, err)
	}
}

func (v *matchesView) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case Msg:
		if msg.kind != MsgMatchesLoaded {
			return nil
		}
		v.loading = false
		matches, err := payload[[]models.Match](msg)
		if err != nil {
			v.err = inlineError(err, "Failed to load matches")
			return nil
		}
		items := make([]list.Item, len(matches))
		for i, m := range matches {
			items[i] = matchItem{match: m}
		}
		v.count = len(items)
		return v.list.SetItems(items)

	case tea.WindowSizeMsg:
		v.list.SetSize(msg.Width-4, msg.Height-8)
		return nil

	case tea.KeyMsg:
		if v.list.FilterState() == list.Filtering {
			break
		}
		k := v.keys()
		switch {
		case key.Matches(msg, k.back):
			return v.navigate(SessionPath(v.sessionID))
		case key.Matches(msg, k.vote):
			return v.navigate(SessionPath(v.sessionID, "vote"))
		case key.Matches(msg, k.quit):
			return tea.Quit
		}
	}

	var cmd tea.Cmd
	v.list, cmd = v.list.Update(msg)
	return cmd
}

func (v *matchesView) View() string {
	if v.loading {
		return styles.help.Render("Loading matches...")
	}

	var b strings.Builder
	if v.err != "" {
		b.WriteString(styles.err.Render(v.err) + "\n\n")
	}

	if v.count == 0 {
		b.WriteString(styles.title.Render("No matches yet!") + "\n")
		b.WriteString("Keep voting to find movies you both want to watch.\n")
	} else {
		b.WriteString(v.list.View())
	}

	k := v.keys()
	b.WriteString("\n\n")
	b.WriteString(v.helpView(k.vote, k.back, k.quit))
	return b.String()
}
