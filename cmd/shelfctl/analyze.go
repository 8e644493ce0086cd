package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/toolshelf/internal/pipeline"
)

func newAnalyzeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze URL",
		Short: "Ask the server to propose a catalog record for a URL",
		Long: `Fetch and analyze a page on the server and print the proposed record.
Nothing is saved; use "tools add --analyze" to create the tool.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.session()
			if err != nil {
				return err
			}
			ctx, cancel := opts.context(cmd)
			defer cancel()

			res, err := s.client.Analyze(ctx, args[0])
			var failure *pipeline.Failure
			if errors.As(err, &failure) {
				return fmt.Errorf("%s: %s", failure.Kind, failure.Message)
			}
			if err != nil {
				return err
			}
			if s.opts.json {
				return printJSON(cmd.OutOrStdout(), res)
			}

			rec := res.Record
			w := cmd.OutOrStdout()
			rows := [][]string{
				{"name", rec.Name},
				{"url", rec.URL},
				{"type", rec.Type},
				{"category", rec.CategoryID},
				{"content", string(rec.ContentType)},
				{"status", string(rec.Status)},
				{"summary", rec.Summary},
				{"tags", strings.Join(rec.Tags, ", ")},
			}
			if rec.CategoryFallback {
				rows = append(rows, []string{"note", "model proposed an unknown category, fallback used"})
			}
			return table(w, "FIELD\tVALUE", rows)
		},
	}
}
