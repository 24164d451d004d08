package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/wouldwatch/internal/guard"
	"github.com/desertthunder/wouldwatch/internal/models"
)

const settingsSaved = "Settings saved successfully!"

type settingsView struct {
	base
	username textinput.Model
	pref     int
	focus    int
	loading  bool
	saving   bool
	err      string
	saved    uint64
	savedSeq uint64
}

func newSettingsView(b base) *settingsView {
	username := textinput.New()
	username.Placeholder = "Enter your username"
	username.Prompt = "Username "
	username.CharLimit = 50
	return &settingsView{base: b, username: username, loading: true}
}

func (v *settingsView) Init() tea.Cmd {
	backend, ctx, id := v.api(), v.ctx(), v.id
	return func() tea.Msg {
		profile, err := backend.GetProfile(ctx)
		return resultMsg(MsgProfileLoaded, id, profile, err)
	}
}

func (v *settingsView) preference() models.InvitePreference {
	return models.InvitePreferences[v.pref]
}

func (v *settingsView) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case Msg:
		switch msg.kind {
		case MsgProfileLoaded:
			v.loading = false
			profile, err := payload[*models.Profile](msg)
			if err != nil || profile == nil {
				v.err = "Failed to load profile"
				return nil
			}
			p := profile.Normalized()
			v.username.SetValue(p.Username)
			for i, pref := range models.InvitePreferences {
				if pref == p.InvitePreference {
					v.pref = i
				}
			}
			return v.username.Focus()
		case MsgProfileSaved:
			v.saving = false
			if _, err := payload[struct{}](msg); err != nil {
				v.err = "Failed to save settings"
				return nil
			}
			v.err = ""
			v.savedSeq++
			v.saved = v.savedSeq
			return v.later(SavedDuration, MsgSavedExpired, v.saved)
		case MsgSavedExpired:
			if seq, _ := msg.data.(uint64); seq == v.saved {
				v.saved = 0
			}
		}
		return nil

	case tea.KeyMsg:
		k := v.keys()
		switch {
		case key.Matches(msg, k.back):
			return v.navigate(guard.DashboardPath)
		case key.Matches(msg, k.tab):
			v.focus = (v.focus + 1) % 2
			if v.focus == 0 {
				return v.username.Focus()
			}
			v.username.Blur()
			return nil
		case key.Matches(msg, k.enter):
			return v.save()
		}

		if v.focus == 1 {
			switch {
			case key.Matches(msg, k.up):
				v.pref = (v.pref + len(models.InvitePreferences) - 1) % len(models.InvitePreferences)
			case key.Matches(msg, k.down):
				v.pref = (v.pref + 1) % len(models.InvitePreferences)
			case key.Matches(msg, k.quit):
				return tea.Quit
			}
			return nil
		}
	}

	var cmd tea.Cmd
	v.username, cmd = v.username.Update(msg)
	return cmd
}

func (v *settingsView) save() tea.Cmd {
	if v.saving || v.loading {
		return nil
	}
	v.saving = true
	v.err = ""

	profile := models.Profile{Username: strings.TrimSpace(v.username.Value()), InvitePreference: v.preference()}
	backend, ctx, id := v.api(), v.ctx(), v.id
	return func() tea.Msg {
		err := backend.UpdateProfile(ctx, profile)
		return resultMsg(MsgProfileSaved, id, struct{}{}, err)
	}
}

func (v *settingsView) View() string {
	if v.loading {
		return styles.help.Render("Loading settings...")
	}

	var b strings.Builder
	b.WriteString(styles.title.Render("Settings"))
	b.WriteString("\n")

	if v.err != "" {
		b.WriteString(styles.err.Render(v.err) + "\n\n")
	}
	if v.saved != 0 {
		b.WriteString(styles.ok.Render(settingsSaved) + "\n\n")
	}

	b.WriteString(v.username.View() + "\n\n")

	label := "Who can invite me to rooms?"
	if v.focus == 1 {
		label = styles.focus.Render(label)
	}
	b.WriteString(label + "\n")
	for i, pref := range models.InvitePreferences {
		mark := "( )"
		if i == v.pref {
			mark = "(•)"
		}
		fmt.Fprintf(&b, "  %s %s\n", mark, pref.Label())
	}

	b.WriteString("\n")
	if v.saving {
		b.WriteString(styles.help.Render("Saving...") + "\n")
	}
	k := v.keys()
	b.WriteString(v.helpView(k.tab, k.up, k.down, key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "save")), k.back))
	return b.String()
}
