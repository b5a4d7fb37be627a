package cmd

import (
	"fmt"
	"io"
	"os"
	"sort"

	"a11y_tracker/client"
	"a11y_tracker/models"
	"a11y_tracker/scanner"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

type scanOptions struct {
	pageID         string
	apiURL         string
	dryRun         bool
	idempotencyKey string
}

func (a *app) scanCommand() *cobra.Command {
	var opts scanOptions
	cmd := &cobra.Command{
		Use:   "scan <design.json>",
		Short: "Scan an exported design document and upload the issues",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runScan(cmd, args[0], opts)
		},
	}
	cmd.Flags().StringVar(&opts.pageID, "page", "", "scan only this page id (default: every page)")
	cmd.Flags().StringVar(&opts.apiURL, "api", "http://localhost:8081/api", "tracker API base URL")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "print issues without uploading")
	cmd.Flags().StringVar(&opts.idempotencyKey, "idempotency-key", "", "key that makes a retried upload a no-op")
	return cmd
}

func (a *app) runScan(cmd *cobra.Command, path string, opts scanOptions) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open design document: %w", err)
	}
	defer f.Close()

	doc, err := scanner.Decode(f)
	if err != nil {
		return err
	}
	res, err := scanner.AnalyzeDocument(doc, opts.pageID)
	if err != nil {
		return err
	}
	a.log.Infow("Design scanned",
		"file_key", doc.FileKey,
		"scan_type", res.ScanType,
		"pages", len(res.Pages),
		"issues", len(res.Issues),
	)

	out := cmd.OutOrStdout()
	printIssues(out, doc.Name, res)
	if opts.dryRun {
		return nil
	}

	in := res.ScanInput(doc)
	in.IdempotencyKey = opts.idempotencyKey
	sub, err := client.New(opts.apiURL, nil).Submit(cmd.Context(), in, res.Issues)
	if err != nil {
		return fmt.Errorf("upload scan: %w", err)
	}

	color.New(color.FgGreen).Fprintf(out, "✓ Uploaded scan %d", sub.Scan.ScanID)
	if sub.Ingest != nil {
		fmt.Fprintf(out, " with %d issue(s)", sub.Ingest.CreatedCount)
	}
	fmt.Fprintln(out)
	return nil
}

var severityColors = map[models.Severity]*color.Color{
	models.SeverityCritical: color.New(color.FgRed, color.Bold),
	models.SeverityHigh:     color.New(color.FgRed),
	models.SeverityMedium:   color.New(color.FgYellow),
	models.SeverityLow:      color.New(color.FgCyan),
}

var severityRank = map[models.Severity]int{
	models.SeverityCritical: 0,
	models.SeverityHigh:     1,
	models.SeverityMedium:   2,
	models.SeverityLow:      3,
}

func printIssues(w io.Writer, name string, res scanner.Result) {
	color.New(color.FgCyan, color.Bold).Fprintf(w, "%s: %d page(s), %d issue(s)\n", name, len(res.Pages), len(res.Issues))

	issues := append([]models.IssueInput(nil), res.Issues...)
	sort.SliceStable(issues, func(i, j int) bool {
		return severityRank[issues[i].Severity] < severityRank[issues[j].Severity]
	})

	var counts models.SeverityCounts
	for _, is := range issues {
		counts.Add(is.Severity)
		c, ok := severityColors[is.Severity]
		if !ok {
			c = color.New(color.Reset)
		}
		c.Fprintf(w, "  %-8s", is.Severity)
		fmt.Fprintf(w, " %-12s %s / %s: %s (%s, need %s)\n",
			is.Category, is.FrameName, is.ElementName, is.Description, is.CurrentValue, is.RequiredValue)
	}
	fmt.Fprintf(w, "critical=%d high=%d medium=%d low=%d\n", counts.Critical, counts.High, counts.Medium, counts.Low)
}
