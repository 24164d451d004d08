package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/skip2/go-qrcode"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/wouldwatch/internal/api"
	"github.com/desertthunder/wouldwatch/internal/formatter"
	"github.com/desertthunder/wouldwatch/internal/models"
	"github.com/desertthunder/wouldwatch/internal/shared"
	"github.com/desertthunder/wouldwatch/internal/voting"
)

func (r *Runner) shareLink(sessionID string) string {
	return api.ShareLink(r.config.API.AppURL, sessionID)
}

func (r *Runner) writeQR(link string) error {
	q, err := qrcode.New(link, qrcode.Medium)
	if err != nil {
		return fmt.Errorf("failed to encode QR code: %w", err)
	}
	return r.writePlain("\n%s\n", q.ToSmallString(false))
}

func (r *Runner) writeSession(session *models.VotingSession, withQR bool) error {
	link := r.shareLink(session.ID)

	r.writePlainHeader("Session Lobby")
	r.writePlain("Session ID: %s\n", session.ID)
	if session.RoomID != "" {
		r.writePlain("Room:       %s\n", session.RoomID)
	}
	r.writePlain("Status:     %s\n", session.Status)
	r.writePlain("Link:       %s\n", link)

	if withQR {
		return r.writeQR(link)
	}
	return nil
}

// SessionsCreate starts a voting session, optionally scoped to a room.
func (r *Runner) SessionsCreate(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.requireUser(ctx); err != nil {
		return err
	}

	session, err := r.api.CreateSession(ctx, cmd.String("room"))
	if err != nil {
		return err
	}

	r.logger.Info("session created", "id", session.ID)
	if err := r.writeSession(session, cmd.Bool("qr")); err != nil {
		return err
	}
	return r.writePlainln("Start voting with: ww sessions vote %s", session.ID)
}

// SessionsShow prints a session's metadata and share link.
func (r *Runner) SessionsShow(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if _, err := r.requireUser(ctx); err != nil {
		return err
	}

	session, err := r.api.GetSession(ctx, id)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(session, true)
	}

	if err := r.writeSession(session, cmd.Bool("qr")); err != nil {
		return err
	}

	if cmd.Bool("copy") {
		if err := r.clipboard(r.shareLink(session.ID)); err != nil {
			r.logger.Warn("clipboard write failed", "error", err)
			return r.writePlain("Could not copy link\n")
		}
		return r.writePlain("✓ Copied!\n")
	}
	return nil
}

// SessionsVote runs the sequential voting flow: search, then yes/no on each candidate in turn.
func (r *Runner) SessionsVote(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: session id", shared.ErrMissingArgument)
	}
	if _, err := r.requireUser(ctx); err != nil {
		return err
	}

	ctrl := voting.NewController(id, r.api, r.api, r.logger)
	query := cmd.String("query")
	matches := 0

	for {
		if query == "" {
			q, err := r.prompt.Query(ctx)
			if err != nil {
				return r.voteSummary(matches, err)
			}
			query = q
		}

		if err := ctrl.Search(ctx, query); err != nil {
			var verr *shared.ValidationError
			if errors.As(err, &verr) {
				r.writePlain("%s\n", verr.Message)
			} else {
				r.writePlain("Failed to search movies: %v\n", err)
			}
			query = ""
			continue
		}
		query = ""

		next, err := r.voteQueue(ctx, ctrl, &matches)
		if err != nil || !next {
			return r.voteSummary(matches, err)
		}
	}
}

// voteQueue votes through the current queue. It reports whether the user wants a new search.
func (r *Runner) voteQueue(ctx context.Context, ctrl *voting.Controller, matches *int) (bool, error) {
	for {
		snap := ctrl.Snapshot()
		if snap.State != voting.Voting || snap.Current == nil {
			if snap.Len == 0 {
				r.writePlain("No movies found. Try another search.\n")
			} else {
				r.writePlainln("No more movies!")
				r.writePlain("Search for more movies to continue voting.\n")
			}
			return true, nil
		}

		choice, err := r.prompt.Ballot(ctx, *snap.Current, snap.Progress)
		if err != nil {
			return false, err
		}

		var direction models.Direction
		switch choice {
		case ChoiceSearch:
			return true, nil
		case ChoiceQuit:
			return false, nil
		case ChoiceYes:
			direction = models.Yes
		default:
			direction = models.No
		}

		r.writePlain("Submitting vote...\n")
		outcome, err := ctrl.Vote(ctx, direction)
		if err != nil {
			r.writePlain("Failed to submit vote: %v\n", err)
			continue
		}
		if outcome.Match {
			*matches++
			r.writePlain("🎉 It's a Match! 🎉  %s\n", outcome.Movie.Title)
		}
	}
}

func (r *Runner) voteSummary(matches int, err error) error {
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return r.writePlainln("Done voting. %d new match(es).", matches)
}

// SessionsMatches prints or exports the matches of a session.
func (r *Runner) SessionsMatches(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	if _, err := r.requireUser(ctx); err != nil {
		return err
	}

	session, err := r.api.GetSession(ctx, id)
	if err != nil {
		return err
	}
	matches, err := r.api.GetMatches(ctx, id)
	if err != nil {
		return err
	}

	export := &formatter.MatchExport{Session: *session, Matches: matches, GeneratedAt: time.Now()}

	output := cmd.String("output")
	if output == "" {
		return formatter.Write(r.output, export, format)
	}

	switch format {
	case formatter.CSV:
		res, err := formatter.WriteCSVExport(export, output)
		if err != nil {
			return err
		}
		r.writePlain("✓ Wrote %s\n", res.MatchesFile)
		return r.writePlain("✓ Wrote %s\n", res.MetadataFile)
	case formatter.Markdown:
		res, err := formatter.WriteMarkdownExport(export, output, cmd.Bool("poster"))
		if err != nil {
			return err
		}
		for _, f := range res.Files {
			r.writePlain("✓ Wrote %s\n", f)
		}
		return nil
	default:
		path, err := writeExportFile(export, format, output)
		if err != nil {
			return err
		}
		return r.writePlain("✓ Wrote %s\n", path)
	}
}

func writeExportFile(export *formatter.MatchExport, format formatter.Format, path string) (string, error) {
	if format == formatter.Text {
		return formatter.WriteTextExport(export, path)
	}

	data, err := formatter.Render(export, format)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
