package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/wouldwatch/internal/auth"
	"github.com/desertthunder/wouldwatch/internal/guard"
)

const (
	unexpectedError = "An unexpected error occurred"
	oauthProvider   = "google"
)

type loginView struct {
	base
	email    textinput.Model
	password textinput.Model
	focus    int
	signUp   bool
	busy     bool
	err      string
	notice   string
}

func newLoginView(b base) *loginView {
	email := textinput.New()
	email.Placeholder = "Enter your email"
	email.Prompt = "Email    "

	password := textinput.New()
	password.Placeholder = "Enter your password"
	password.Prompt = "Password "
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	return &loginView{base: b, email: email, password: password}
}

func (v *loginView) Init() tea.Cmd {
	return v.email.Focus()
}

func (v *loginView) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, v.keys().tab), msg.Type == tea.KeyUp, msg.Type == tea.KeyDown:
			return v.cycle()
		case key.Matches(msg, v.keys().toggle):
			v.signUp = !v.signUp
			v.err, v.notice = "", ""
			return nil
		case key.Matches(msg, v.keys().google):
			return v.oauth()
		case key.Matches(msg, v.keys().enter):
			if v.focus == 0 {
				return v.cycle()
			}
			return v.submit()
		case msg.Type == tea.KeyEsc:
			return tea.Quit
		}

	case Msg:
		switch msg.kind {
		case MsgSignInDone:
			v.busy = false
			res, _ := payload[auth.Result](msg)
			return v.finish(res)
		case MsgOAuthStarted:
			authURL, err := payload[string](msg)
			if err != nil {
				v.err = errorText(err)
				return nil
			}
			v.notice = fmt.Sprintf("Continue in your browser to sign in.\n%s", authURL)
			return nil
		}
		return nil
	}

	var cmd tea.Cmd
	if v.focus == 0 {
		v.email, cmd = v.email.Update(msg)
	} else {
		v.password, cmd = v.password.Update(msg)
	}
	return cmd
}

func (v *loginView) cycle() tea.Cmd {
	v.focus = (v.focus + 1) % 2
	if v.focus == 0 {
		v.password.Blur()
		return v.email.Focus()
	}
	v.email.Blur()
	return v.password.Focus()
}

func (v *loginView) submit() tea.Cmd {
	if v.busy {
		return nil
	}

	email := strings.TrimSpace(v.email.Value())
	password := v.password.Value()
	if email == "" || password == "" {
		v.err = "Email and password are required"
		return nil
	}

	v.busy = true
	v.err, v.notice = "", ""

	a, ctx, id, signUp := v.app.deps.Auth, v.ctx(), v.id, v.signUp
	return func() tea.Msg {
		var res auth.Result
		if signUp {
			res = a.SignUp(ctx, email, password)
		} else {
			res = a.SignIn(ctx, email, password)
		}
		return resultMsg(MsgSignInDone, id, res, nil)
	}
}

func (v *loginView) finish(res auth.Result) tea.Cmd {
	switch {
	case res.Err != nil:
		v.err = errorText(res.Err)
		return nil
	case res.ConfirmationPending:
		v.signUp = false
		v.notice = "Check your email to confirm your account, then sign in."
		return nil
	default:
		return v.navigate(guard.DashboardPath)
	}
}

func (v *loginView) oauth() tea.Cmd {
	v.err, v.notice = "", ""
	a, ctx, id := v.app.deps.Auth, v.ctx(), v.id
	return func() tea.Msg {
		authURL, err := a.SignInWithOAuth(ctx, oauthProvider)
		return resultMsg(MsgOAuthStarted, id, authURL, err)
	}
}

// errorText shows provider messages verbatim and hides anything else.
func errorText(err error) string {
	var perr *auth.ProviderError
	if errors.As(err, &perr) {
		return perr.Message
	}
	return unexpectedError
}

func (v *loginView) View() string {
	var b strings.Builder

	b.WriteString(styles.title.Render("Would Watch"))
	b.WriteString("\n")
	if v.signUp {
		b.WriteString("Create your account")
	} else {
		b.WriteString("Welcome back")
	}
	b.WriteString("\n\n")

	if v.err != "" {
		b.WriteString(styles.err.Render(v.err) + "\n\n")
	}
	if v.notice != "" {
		b.WriteString(styles.ok.Render(v.notice) + "\n\n")
	}

	b.WriteString(v.email.View() + "\n")
	b.WriteString(v.password.View() + "\n\n")

	switch {
	case v.busy:
		b.WriteString(styles.help.Render("Loading..."))
	case v.signUp:
		b.WriteString(styles.focus.Render("[ Sign Up ]"))
	default:
		b.WriteString(styles.focus.Render("[ Sign In ]"))
	}
	b.WriteString("\n\n")
	b.WriteString(v.helpView(v.keys().tab, v.keys().enter, v.keys().toggle, v.keys().google))
	return b.String()
}
