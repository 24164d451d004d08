package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/desertthunder/wouldwatch/internal/models"
)

// Choice is the user's answer for one voting candidate.
type Choice string

const (
	ChoiceYes    Choice = "yes"
	ChoiceNo     Choice = "no"
	ChoiceSearch Choice = "search"
	ChoiceQuit   Choice = "quit"
)

// Prompter asks the user for input the flags did not provide.
type Prompter interface {
	Credentials(ctx context.Context, title string) (email, password string, err error)
	Query(ctx context.Context) (string, error)
	Ballot(ctx context.Context, movie models.Movie, progress string) (Choice, error)
}

// huhPrompter prompts with [huh] forms on the terminal.
type huhPrompter struct{}

func (huhPrompter) Credentials(ctx context.Context, title string) (string, string, error) {
	var email, password string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Placeholder("Enter your email").
				Value(&email).
				Validate(required("email")),
			huh.NewInput().
				Title("Password").
				Placeholder("Enter your password").
				EchoMode(huh.EchoModePassword).
				Value(&password).
				Validate(required("password")),
		).Title(title),
	)
	if err := runForm(ctx, form); err != nil {
		return "", "", err
	}
	return strings.TrimSpace(email), password, nil
}

func (huhPrompter) Query(ctx context.Context) (string, error) {
	var query string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Search for movies").
				Placeholder("e.g. Alien").
				Value(&query).
				Validate(required("search query")),
		),
	)
	if err := runForm(ctx, form); err != nil {
		return "", err
	}
	return strings.TrimSpace(query), nil
}

func (huhPrompter) Ballot(ctx context.Context, movie models.Movie, progress string) (Choice, error) {
	title := movie.Title
	if y := movie.Year(); y != "" {
		title = fmt.Sprintf("%s (%s)", title, y)
	}

	var choice Choice
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[Choice]().
				Title(fmt.Sprintf("%s: %s", progress, title)).
				Description(movie.Synopsis()).
				Options(
					huh.NewOption("👍 Yes", ChoiceYes),
					huh.NewOption("👎 No", ChoiceNo),
					huh.NewOption("🔍 New search", ChoiceSearch),
					huh.NewOption("Quit", ChoiceQuit),
				).
				Value(&choice),
		),
	)
	if err := runForm(ctx, form); err != nil {
		return "", err
	}
	return choice, nil
}

// runForm runs form, reporting a user abort as [context.Canceled].
func runForm(ctx context.Context, form *huh.Form) error {
	err := form.RunWithContext(ctx)
	if errors.Is(err, huh.ErrUserAborted) {
		return context.Canceled
	}
	return err
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}
