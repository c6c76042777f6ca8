package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/desertthunder/ptt/internal/services"
	"github.com/desertthunder/ptt/internal/shared"
	"github.com/desertthunder/ptt/internal/tasks"
	"github.com/urfave/cli/v3"
)

// APIRequest returns an action that sends a raw request with the given method to the path argument.
// Bodies come from --data and must be valid JSON.
func (r *Runner) APIRequest(method string) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		if r.api == nil {
			return fmt.Errorf("%w: API client not initialized", shared.ErrServiceUnavailable)
		}

		path := cmd.StringArg("path")
		if path == "" {
			return fmt.Errorf("%w: path is required", shared.ErrMissingArgument)
		}

		var body []byte
		if data := cmd.String("data"); data != "" {
			if !json.Valid([]byte(data)) {
				return fmt.Errorf("%w: data is not valid JSON", shared.ErrInvalidInput)
			}
			body = []byte(data)
		} else if method == http.MethodPost {
			return fmt.Errorf("%w: --data flag is required", shared.ErrMissingArgument)
		}

		r.logger.Info("raw request", "method", method, "path", path)

		var (
			resp *services.APIResponse
			err  error
		)
		switch method {
		case http.MethodGet:
			resp, err = r.api.Get(ctx, path)
		case http.MethodPost:
			resp, err = r.api.Post(ctx, path, body)
		case http.MethodPatch:
			resp, err = r.api.Patch(ctx, path, body)
		case http.MethodDelete:
			resp, err = r.api.Delete(ctx, path)
		default:
			return fmt.Errorf("%w: unsupported method %s", shared.ErrInvalidArgument, method)
		}
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
		}

		if !resp.OK() {
			return fmt.Errorf("%w: %s %s returned %d: %s", shared.ErrAPIRequest, method, path, resp.StatusCode, resp.Body)
		}
		if !resp.IsJSON {
			return r.writePlain("%s\n", resp.Body)
		}
		return r.writeJSON(resp.JSONData, !cmd.Bool("json"))
	}
}

// APIDump fetches videos, categories, tags and creators in one snapshot.
func (r *Runner) APIDump(ctx context.Context, cmd *cli.Command) error {
	r.logger.Info("dumping API state")
	r.writePlain("Fetching API state...\n\n")

	updates := make(chan tasks.ProgressUpdate, 10)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range updates {
			r.writePlain("%s\n", update.Message)
		}
	}()

	result, err := r.engine.Dump(ctx, updates)
	close(updates)
	<-done
	if err != nil {
		return err
	}

	for _, e := range result.Errors {
		r.logger.Warn("failed to fetch endpoint", "endpoint", e.Endpoint, "error", e.Error)
	}
	r.writePlain("\n✓ Dump complete (%d endpoints failed)\n\n", len(result.Errors))

	snapshot := result.Data()
	if dest := cmd.String("save"); dest != "" {
		data, err := shared.MarshalJSON(snapshot, true)
		if err != nil {
			return fmt.Errorf("failed to marshal dump: %w", err)
		}
		if err := os.WriteFile(dest, data, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", dest, err)
		}
		r.logger.Info("dump saved", "file", dest)
		r.writePlain("✓ Dump saved to %s\n\n", dest)
	}

	return r.writeJSON(snapshot, cmd.Bool("pretty"))
}

func apiCommand(r *Runner) *cli.Command {
	pathArg := func() []cli.Argument { return []cli.Argument{&cli.StringArg{Name: "path"}} }
	compact := func() cli.Flag { return &cli.BoolFlag{Name: "json", Usage: "Output compact JSON"} }
	data := func(required bool) *cli.StringFlag {
		return &cli.StringFlag{Name: "data", Aliases: []string{"d"}, Usage: "JSON body to send", Required: required}
	}

	return &cli.Command{
		Name:  "api",
		Usage: "Direct calls to the tracker REST API",
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "GET a path and print the response",
				Arguments: pathArg(),
				Flags:     []cli.Flag{compact()},
				Action:    r.APIRequest(http.MethodGet),
			},
			{
				Name:      "post",
				Usage:     "POST a JSON body to a path",
				Arguments: pathArg(),
				Flags:     []cli.Flag{data(true), compact()},
				Action:    r.APIRequest(http.MethodPost),
			},
			{
				Name:      "patch",
				Usage:     "PATCH a path, e.g. /videos/3/watch",
				Arguments: pathArg(),
				Flags:     []cli.Flag{data(false), compact()},
				Action:    r.APIRequest(http.MethodPatch),
			},
			{
				Name:      "delete",
				Usage:     "DELETE a path, e.g. /tags/icm",
				Arguments: pathArg(),
				Flags:     []cli.Flag{compact()},
				Action:    r.APIRequest(http.MethodDelete),
			},
			{
				Name:  "dump",
				Usage: "Snapshot of videos, categories, tags and creators",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "pretty", Usage: "Pretty-print output", Value: true},
					&cli.StringFlag{Name: "save", Usage: "Also write the snapshot to this file"},
				},
				Action: r.APIDump,
			},
		},
	}
}
