package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/wouldwatch/internal/models"
	"github.com/desertthunder/wouldwatch/internal/shared"
)

// ProfileShow prints the caller's profile.
func (r *Runner) ProfileShow(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.requireUser(ctx); err != nil {
		return err
	}

	profile, err := r.api.GetProfile(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(profile, true)
	}

	username := profile.Username
	if username == "" {
		username = "(not set)"
	}
	r.writePlain("Username:      %s\n", username)
	return r.writePlain("Who can invite: %s\n", profile.InvitePreference.Label())
}

// ProfileSet updates the username and invite preference, keeping current values for omitted flags.
func (r *Runner) ProfileSet(ctx context.Context, cmd *cli.Command) error {
	if !cmd.IsSet("username") && !cmd.IsSet("invite") {
		return fmt.Errorf("%w: --username or --invite", shared.ErrMissingArgument)
	}
	if _, err := r.requireUser(ctx); err != nil {
		return err
	}

	current, err := r.api.GetProfile(ctx)
	if err != nil {
		return err
	}
	profile := *current

	if cmd.IsSet("username") {
		profile.Username = strings.TrimSpace(cmd.String("username"))
	}
	if cmd.IsSet("invite") {
		pref, err := models.ParseInvitePreference(cmd.String("invite"))
		if err != nil {
			return fmt.Errorf("%w: %w", shared.ErrInvalidArgument, err)
		}
		profile.InvitePreference = pref
	}

	if err := r.api.UpdateProfile(ctx, profile); err != nil {
		return err
	}
	return r.writePlain("✓ Settings saved successfully!\n")
}

// ProfilePrivacy sets who may invite the caller to rooms.
func (r *Runner) ProfilePrivacy(ctx context.Context, cmd *cli.Command) error {
	pref, err := models.ParseInvitePreference(cmd.StringArg("preference"))
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrInvalidArgument, err)
	}
	if _, err := r.requireUser(ctx); err != nil {
		return err
	}

	if err := r.api.UpdatePrivacy(ctx, pref); err != nil {
		return err
	}
	return r.writePlain("✓ %s can now invite you to rooms\n", pref.Label())
}

func (r *Runner) writeUsers(users []models.UserSummary, asJSON bool, empty string) error {
	if asJSON {
		return r.writeJSON(users, true)
	}
	if len(users) == 0 {
		return r.writePlain("%s\n", empty)
	}

	for _, u := range users {
		name := u.Username
		if name == "" {
			name = "Anonymous"
		}
		mark := ""
		if u.IsFollowing {
			mark = " ✓ following"
		}
		r.writePlain("%-24s %-32s %s%s\n", name, u.Email, u.ID, mark)
	}
	return nil
}

// FriendsSearch searches users.
func (r *Runner) FriendsSearch(ctx context.Context, cmd *cli.Command) error {
	query := strings.TrimSpace(cmd.StringArg("query"))
	if query == "" {
		return fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}
	if _, err := r.requireUser(ctx); err != nil {
		return err
	}

	users, err := r.api.SearchUsers(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to search users: %w", err)
	}
	return r.writeUsers(users, cmd.Bool("json"), "No users found")
}

// FriendsFollow follows a user.
func (r *Runner) FriendsFollow(ctx context.Context, cmd *cli.Command) error {
	userID := cmd.StringArg("user")
	if _, err := r.requireUser(ctx); err != nil {
		return err
	}

	if err := r.api.Follow(ctx, userID); err != nil {
		return fmt.Errorf("failed to follow user: %w", err)
	}
	return r.writePlain("✓ Following %s\n", userID)
}

// FriendsUnfollow unfollows a user.
func (r *Runner) FriendsUnfollow(ctx context.Context, cmd *cli.Command) error {
	userID := cmd.StringArg("user")
	if _, err := r.requireUser(ctx); err != nil {
		return err
	}

	if err := r.api.Unfollow(ctx, userID); err != nil {
		return fmt.Errorf("failed to unfollow user: %w", err)
	}
	return r.writePlain("✓ Unfollowed %s\n", userID)
}

// FriendsFollowing lists who the caller follows.
func (r *Runner) FriendsFollowing(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.requireUser(ctx); err != nil {
		return err
	}

	users, err := r.api.Following(ctx)
	if err != nil {
		return fmt.Errorf("failed to load following list: %w", err)
	}
	return r.writeUsers(users, cmd.Bool("json"), "No users yet")
}

// FriendsFollowers lists the caller's followers.
func (r *Runner) FriendsFollowers(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.requireUser(ctx); err != nil {
		return err
	}

	users, err := r.api.Followers(ctx)
	if err != nil {
		return fmt.Errorf("failed to load followers list: %w", err)
	}
	return r.writeUsers(users, cmd.Bool("json"), "No users yet")
}
