package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/xbr/internal/formatter"
	"github.com/desertthunder/xbr/internal/shared"
	"github.com/desertthunder/xbr/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Render generates the HTML report and SVG share card from a snapshot file.
func (r *Runner) Render(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("snapshot")
	if path == "" {
		return fmt.Errorf("%w: snapshot file path", shared.ErrMissingArgument)
	}

	outputDir := r.config.Storage.OutputDir
	if cmd.String("output") != "" {
		outputDir = cmd.String("output")
	}

	r.logger.Info("rendering report", "snapshot", path, "output", outputDir)

	doc, err := tasks.LoadSnapshot(path)
	if err != nil {
		return err
	}

	var fetch formatter.ImageFetcher
	if !cmd.Bool("no-images") {
		fetch = formatter.FetchImageDataURI
		r.writePlain("Downloading game art (use --no-images to skip)...\n")
	}

	result, err := formatter.WriteReport(doc, outputDir, fetch)
	if err != nil {
		return err
	}

	r.writePlain("✓ Report generated for %s\n", doc.Profile.Gamertag)
	r.writePlain("HTML: %s\n", result.HTMLPath)
	r.writePlain("Card: %s\n", result.SVGPath)
	return nil
}
