package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/xbr/internal/shared"
	"github.com/urfave/cli/v3"
)

// APIGet makes a direct authorized GET against one of the Xbox Live hosts.
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	host := cmd.String("host")
	pretty := cmd.Bool("pretty")

	if path == "" {
		return fmt.Errorf("%w: request path", shared.ErrMissingArgument)
	}

	api, _, err := r.apiClient(ctx, nil)
	if err != nil {
		return err
	}

	r.logger.Info("GET request", "host", host, "path", path)

	resp, err := api.Raw(ctx, host, path)
	if err != nil {
		return err
	}

	if resp.Status < 200 || resp.Status >= 300 {
		r.logger.Warn("non-2xx response", "status", resp.Status)
	}

	return r.writeJSON(resp.Body, pretty)
}
