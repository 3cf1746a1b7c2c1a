package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/transfer-studio/backend/internal/inference"
	"github.com/transfer-studio/backend/internal/models"
	"github.com/transfer-studio/backend/internal/parser"
	"github.com/transfer-studio/backend/internal/report"
	"github.com/transfer-studio/backend/internal/stats"
)

type analyzeOptions struct {
	kind         string
	format       string
	out          string
	delay        time.Duration
	profilesFile string
}

func newAnalyzeCmd() *cobra.Command {
	opts := analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze FILE",
		Short: "Analyze a file offline and write a report",
		Long:  "Run intake, text statistics and mock inference on FILE without starting the server, then write the selected report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := runAnalyze(cmd.Context(), args[0], opts, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if path != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Report written to %s\n", path)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.kind, "kind", "k", "full", "report kind: single, full or statistics")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "txt", "report format: txt or pdf")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "output file or directory, - for stdout (default: generated name in the current directory)")
	cmd.Flags().DurationVar(&opts.delay, "delay", 0, "simulated inference delay")
	cmd.Flags().StringVar(&opts.profilesFile, "profiles", "", "YAML file overriding the mock inference profiles")
	return cmd
}

// runAnalyze writes the report for file and returns where it went. An empty
// path means the report was written to stdout.
func runAnalyze(ctx context.Context, file string, opts analyzeOptions, stdout io.Writer) (string, error) {
	kind, err := report.ParseKind(opts.kind)
	if err != nil {
		return "", err
	}
	format := strings.ToLower(opts.format)
	if format != "txt" && format != "pdf" {
		return "", fmt.Errorf("unsupported report format: %s", opts.format)
	}

	f, err := os.Open(file)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", file, err)
	}
	defer f.Close()

	name := filepath.Base(file)
	uploaded, data, err := parser.GetGlobalRegistry().Read(name, "", f)
	if err != nil {
		return "", err
	}

	in := report.Input{File: uploaded}
	if text, ok := uploaded.ExtractedText(); ok {
		in.Statistics = stats.Compute(text)
	}
	if c, ok := uploaded.Content.(models.CSVContent); ok {
		in.Table = c.Table
	}

	if kind != report.KindStatistics {
		profiles, err := loadProfiles(opts.profilesFile)
		if err != nil {
			return "", err
		}
		provider, err := inference.NewMockProvider(profiles, opts.delay)
		if err != nil {
			return "", err
		}
		in.Result, err = provider.Infer(ctx, inference.Request{File: uploaded, Statistics: in.Statistics})
		if err != nil {
			return "", fmt.Errorf("inference failed: %w", err)
		}
	}

	doc, err := report.NewGenerator().Render(kind, in)
	if err != nil {
		return "", err
	}
	if format == "pdf" {
		var img *report.Image
		if uploaded.IsImage() {
			img = &report.Image{Data: data, MIMEType: uploaded.MIMEType}
		}
		if doc, err = report.PDF(doc, img); err != nil {
			return "", err
		}
	}

	if opts.out == "-" {
		_, err := stdout.Write(doc.Content)
		return "", err
	}

	path := opts.out
	if path == "" {
		path = doc.FileName
	} else if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, doc.FileName)
	}
	if err := os.WriteFile(path, doc.Content, 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}
