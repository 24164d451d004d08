package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/wouldwatch/internal/shared"
)

func apiPath(cmd *cli.Command) (string, error) {
	path := strings.TrimSpace(cmd.StringArg("path"))
	if path == "" {
		return "", fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path, nil
}

// APIGet makes a direct authenticated GET request to the backend
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	path, err := apiPath(cmd)
	if err != nil {
		return err
	}
	if err := r.mount(ctx); err != nil {
		return err
	}

	r.logger.Info("GET request", "path", path)

	var out json.RawMessage
	if err := r.api.Do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return err
	}
	return r.writeRaw(out, cmd.Bool("pretty"))
}

// APIPost makes a direct authenticated POST request with a JSON body
func (r *Runner) APIPost(ctx context.Context, cmd *cli.Command) error {
	path, err := apiPath(cmd)
	if err != nil {
		return err
	}

	data := cmd.String("data")
	if !json.Valid([]byte(data)) {
		return fmt.Errorf("%w: data is not valid JSON", shared.ErrInvalidArgument)
	}
	if err := r.mount(ctx); err != nil {
		return err
	}

	r.logger.Info("POST request", "path", path)

	var out json.RawMessage
	if err := r.api.Do(ctx, http.MethodPost, path, json.RawMessage(data), &out); err != nil {
		return err
	}
	return r.writeRaw(out, cmd.Bool("pretty"))
}

// APIDelete makes a direct authenticated DELETE request
func (r *Runner) APIDelete(ctx context.Context, cmd *cli.Command) error {
	path, err := apiPath(cmd)
	if err != nil {
		return err
	}
	if err := r.mount(ctx); err != nil {
		return err
	}

	r.logger.Info("DELETE request", "path", path)

	if err := r.api.Do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return err
	}
	return r.writePlain("✓ Deleted %s\n", path)
}

func (r *Runner) writeRaw(raw json.RawMessage, pretty bool) error {
	if len(raw) == 0 {
		return r.writePlain("(empty response)\n")
	}
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrUnexpected, err)
	}
	return r.writeJSON(data, pretty)
}
