package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/toolshelf/internal/domain"
	"github.com/MrSnakeDoc/toolshelf/internal/pipeline"
	"github.com/MrSnakeDoc/toolshelf/internal/store"
)

func newToolsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tools",
		Aliases: []string{"tool"},
		Short:   "List, add, move and remove tools",
	}
	cmd.AddCommand(newToolsListCmd(opts), newToolsAddCmd(opts), newToolsRmCmd(opts), newToolsMvCmd(opts))
	return cmd
}

func newToolsListCmd(opts *options) *cobra.Command {
	var category, query string
	list := &cobra.Command{
		Use:   "list",
		Short: "List tools in category display order, or search them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := opts.session()
			if err != nil {
				return err
			}
			ctx, cancel := opts.context(cmd)
			defer cancel()

			filter := store.ToolFilter{Query: query}
			if category != "" {
				cats, err := s.client.ListCategories(ctx)
				if err != nil {
					return err
				}
				ids := make([]string, len(cats))
				names := make([]string, len(cats))
				for i, c := range cats {
					ids[i], names[i] = c.ID, c.Name
				}
				if filter.CategoryID, err = lookup("category", category, ids, names); err != nil {
					return err
				}
			}

			tools, err := s.client.ListTools(ctx, filter)
			if err != nil {
				return err
			}
			return s.print(cmd.OutOrStdout(), tools, "ID\tNAME\tTYPE\tSTATUS\tURL", func() [][]string {
				rows := make([][]string, 0, len(tools))
				for _, t := range tools {
					name := t.Name
					if t.IsPinned {
						name += " *"
					}
					rows = append(rows, []string{t.ID, name, t.Type, string(t.Status), t.URL})
				}
				return rows
			})
		},
	}
	list.Flags().StringVarP(&category, "category", "c", "", "Only list tools in this category (id or name)")
	list.Flags().StringVarP(&query, "query", "q", "", "Rank tools by fuzzy match on name and tags")
	return list
}

type addFlags struct {
	name, category, kind, summary, notes string
	tags                                 []string
	pinned, analyze                      bool
}

func newToolsAddCmd(opts *options) *cobra.Command {
	f := &addFlags{}
	add := &cobra.Command{
		Use:   "add URL",
		Short: "Add a tool, optionally proposing its details with /analyze-url",
		Long: `Add a tool to a category.

With --analyze the server proposes the name, summary, tags and category for
the URL. Flags given on the command line override the proposal. When the
analysis fails the tool is created from the flags alone.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.session()
			if err != nil {
				return err
			}
			ctx, cancel := opts.context(cmd)
			defer cancel()

			r, err := s.reconciler(ctx)
			if err != nil {
				return err
			}

			t := domain.Tool{URL: args[0]}
			if f.analyze {
				res, err := s.client.Analyze(ctx, args[0])
				var failure *pipeline.Failure
				switch {
				case errors.As(err, &failure):
					fmt.Fprintf(cmd.ErrOrStderr(), "analysis failed (%s): %s, using flags only\n", failure.Kind, failure.Message)
				case err != nil:
					return err
				default:
					t = res.Record.Tool()
				}
			}

			if f.name != "" {
				t.Name = f.name
			}
			if f.kind != "" {
				t.Type = f.kind
			}
			if f.summary != "" {
				t.Summary = f.summary
			}
			if f.notes != "" {
				t.Notes = f.notes
			}
			if len(f.tags) > 0 {
				t.Tags = f.tags
			}
			if f.pinned {
				t.IsPinned = true
			}
			if f.category != "" {
				if t.CategoryID, err = categoryRef(r.Snapshot(), f.category); err != nil {
					return err
				}
			}
			if t.CategoryID == "" {
				return errors.New("no category: pass --category or --analyze")
			}
			if strings.TrimSpace(t.Name) == "" {
				return errors.New("no name: pass --name or --analyze")
			}

			created, err := r.CreateTool(ctx, t)
			if err != nil {
				return err
			}
			if s.opts.json {
				return printJSON(cmd.OutOrStdout(), created)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created tool %s (%s)\n", created.Name, created.ID)
			return nil
		},
	}
	add.Flags().StringVarP(&f.name, "name", "n", "", "Display name")
	add.Flags().StringVarP(&f.category, "category", "c", "", "Category id or name")
	add.Flags().StringVar(&f.kind, "type", "", "Short type tag, e.g. CHATBOT")
	add.Flags().StringVar(&f.summary, "summary", "", "One-line summary")
	add.Flags().StringVar(&f.notes, "notes", "", "Free-form notes")
	add.Flags().StringSliceVar(&f.tags, "tags", nil, "Comma-separated tags")
	add.Flags().BoolVar(&f.pinned, "pin", false, "Pin the tool")
	add.Flags().BoolVarP(&f.analyze, "analyze", "a", false, "Propose details from the page with /analyze-url")
	return add
}

func newToolsRmCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "rm TOOL",
		Short: "Delete a tool by id or name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.session()
			if err != nil {
				return err
			}
			ctx, cancel := opts.context(cmd)
			defer cancel()

			r, err := s.reconciler(ctx)
			if err != nil {
				return err
			}
			id, err := toolRef(r.Snapshot(), args[0])
			if err != nil {
				return err
			}
			if err := r.DeleteTool(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted tool %s\n", id)
			return nil
		},
	}
}

func newToolsMvCmd(opts *options) *cobra.Command {
	var position int
	mv := &cobra.Command{
		Use:   "mv TOOL CATEGORY",
		Short: "Move a tool to another category, or to another position in its own",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.session()
			if err != nil {
				return err
			}
			ctx, cancel := opts.context(cmd)
			defer cancel()

			r, err := s.reconciler(ctx)
			if err != nil {
				return err
			}
			snap := r.Snapshot()
			toolID, err := toolRef(snap, args[0])
			if err != nil {
				return err
			}
			categoryID, err := categoryRef(snap, args[1])
			if err != nil {
				return err
			}
			moved, err := r.MoveTool(ctx, toolID, categoryID, position)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "moved tool %s to %s\n", moved.ID, moved.CategoryID)
			return nil
		},
	}
	mv.Flags().IntVarP(&position, "position", "p", -1, "Zero-based position in the category, -1 appends")
	return mv
}
