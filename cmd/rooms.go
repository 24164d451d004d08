package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/wouldwatch/internal/formatter"
	"github.com/desertthunder/wouldwatch/internal/models"
	"github.com/desertthunder/wouldwatch/internal/shared"
)

// RoomsList lists the caller's rooms.
func (r *Runner) RoomsList(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.requireUser(ctx); err != nil {
		return err
	}

	rooms, err := r.api.ListRooms(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(rooms, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Your Rooms")
	return r.writePlain("%s", formatter.RoomsTable(rooms, time.Now()))
}

// RoomsCreate creates a room. Private unless --public is set.
func (r *Runner) RoomsCreate(ctx context.Context, cmd *cli.Command) error {
	name := strings.TrimSpace(cmd.StringArg("name"))
	if name == "" {
		return shared.NewValidationError("name", "Room name is required")
	}

	if _, err := r.requireUser(ctx); err != nil {
		return err
	}

	req := models.CreateRoomRequest{
		Name:           name,
		IsPublic:       cmd.Bool("public"),
		InitialMembers: cmd.StringSlice("member"),
	}

	r.logger.Info("creating room", "name", name, "public", req.IsPublic)

	room, err := r.api.CreateRoom(ctx, req)
	if err != nil {
		r.writePlain("Failed to create room. Please try again.\n")
		return fmt.Errorf("failed to create room: %w", err)
	}

	r.writePlain("✓ Created room %q\n", room.Name)
	r.writePlain("ID:         %s\n", room.ID)
	return r.writePlain("Visibility: %s\n", shared.VisibilityString(room.IsPublic))
}

// RoomsInvite invites a user to a room.
func (r *Runner) RoomsInvite(ctx context.Context, cmd *cli.Command) error {
	roomID := cmd.StringArg("room")
	userID := cmd.StringArg("user")

	if _, err := r.requireUser(ctx); err != nil {
		return err
	}

	if err := r.api.InviteToRoom(ctx, roomID, userID); err != nil {
		return err
	}
	return r.writePlain("✓ Invited %s to room %s\n", userID, roomID)
}
