package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/skip2/go-qrcode"

	"github.com/desertthunder/wouldwatch/internal/api"
	"github.com/desertthunder/wouldwatch/internal/guard"
	"github.com/desertthunder/wouldwatch/internal/models"
)

type lobbyView struct {
	base
	sessionID string
	link      string
	qr        string
	session   *models.VotingSession
	loading   bool
	err       string
	copyErr   string
	copied    uint64
	copySeq   uint64
}

func newLobbyView(b base, sessionID string) *lobbyView {
	link := api.ShareLink(b.app.deps.AppURL, sessionID)
	return &lobbyView{base: b, sessionID: sessionID, link: link, qr: qrText(link), loading: true}
}

// qrText renders link as a terminal QR code, or "" when it cannot be encoded.
func qrText(link string) string {
	q, err := qrcode.New(link, qrcode.Medium)
	if err != nil {
		return ""
	}
	return q.ToSmallString(false)
}

func (v *lobbyView) Init() tea.Cmd {
	backend, ctx, id, sessionID := v.api(), v.ctx(), v.id, v.sessionID
	return func() tea.Msg {
		session, err := backend.GetSession(ctx, sessionID)
		return resultMsg(MsgSessionLoaded, id, session, err)
	}
}

func (v *lobbyView) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case Msg:
		switch msg.kind {
		case MsgSessionLoaded:
			v.loading = false
			session, err := payload[*models.VotingSession](msg)
			if err != nil {
				v.err = err.Error()
				if v.err == "" {
					v.err = "Failed to load session"
				}
				return nil
			}
			v.session = session
		case MsgCopied:
			if _, err := payload[string](msg); err != nil {
				v.app.logger.Warn("clipboard write failed", "error", err)
				v.copyErr = "Could not copy link"
				return nil
			}
			v.copySeq++
			v.copied = v.copySeq
			v.copyErr = ""
			return v.later(CopiedDuration, MsgCopyExpired, v.copied)
		case MsgCopyExpired:
			if seq, _ := msg.data.(uint64); seq == v.copied {
				v.copied = 0
			}
		}
		return nil

	case tea.KeyMsg:
		k := v.keys()
		switch {
		case key.Matches(msg, k.quit):
			return tea.Quit
		case key.Matches(msg, k.back):
			return v.navigate(guard.DashboardPath)
		}
		if v.session == nil {
			return nil
		}
		switch {
		case key.Matches(msg, k.copy):
			return v.copyLink()
		case key.Matches(msg, k.vote), key.Matches(msg, k.enter):
			return v.navigate(SessionPath(v.sessionID, "vote"))
		case key.Matches(msg, k.matches):
			return v.navigate(SessionPath(v.sessionID, "matches"))
		}
	}
	return nil
}

func (v *lobbyView) copyLink() tea.Cmd {
	write, link, id := v.app.deps.Clipboard, v.link, v.id
	return func() tea.Msg {
		return resultMsg(MsgCopied, id, link, write(link))
	}
}

func (v *lobbyView) View() string {
	if v.loading {
		return styles.help.Render("Loading session...")
	}

	k := v.keys()
	if v.err != "" || v.session == nil {
		text := v.err
		if text == "" {
			text = "Session not found"
		}
		return fmt.Sprintf("%s\n\n%s", styles.err.Render(text), v.helpView(k.back))
	}

	var b strings.Builder
	b.WriteString(styles.title.Render("Session Lobby"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Session ID: %s\n", v.sessionID)
	fmt.Fprintf(&b, "Status:     %s\n", v.session.Status)
	fmt.Fprintf(&b, "Link:       %s ", v.link)
	switch {
	case v.copied != 0:
		b.WriteString(styles.ok.Render("✓ Copied!"))
	case v.copyErr != "":
		b.WriteString(styles.err.Render(v.copyErr))
	}
	b.WriteString("\n")

	if v.qr != "" {
		b.WriteString("\n" + v.qr)
	}

	b.WriteString("\n")
	b.WriteString(v.helpView(k.vote, k.matches, k.copy, k.back, k.quit))
	return b.String()
}
