package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/toolshelf/internal/domain"
	"github.com/MrSnakeDoc/toolshelf/internal/store"
)

func newCategoriesCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "categories",
		Aliases: []string{"category", "cat"},
		Short:   "List, add and remove categories",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List categories in display order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := opts.session()
			if err != nil {
				return err
			}
			ctx, cancel := opts.context(cmd)
			defer cancel()

			cats, err := s.client.ListCategories(ctx)
			if err != nil {
				return err
			}
			return s.print(cmd.OutOrStdout(), cats, "ID\tNAME\tTOOLS\tSORT", func() [][]string {
				rows := make([][]string, 0, len(cats))
				for _, c := range cats {
					rows = append(rows, []string{c.ID, c.Name, strconv.Itoa(len(c.ToolIDs)), strconv.Itoa(c.SortOrder)})
				}
				return rows
			})
		},
	})

	var sortOrder int
	add := &cobra.Command{
		Use:   "add NAME",
		Short: "Create an empty category",
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
			cat, err := r.CreateCategory(ctx, domain.Category{Name: args[0], SortOrder: sortOrder})
			if err != nil {
				return err
			}
			if s.opts.json {
				return printJSON(cmd.OutOrStdout(), cat)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created category %s (%s)\n", cat.Name, cat.ID)
			return nil
		},
	}
	add.Flags().IntVar(&sortOrder, "sort", 0, "Position relative to other categories")
	cmd.AddCommand(add)

	var cascade bool
	rm := &cobra.Command{
		Use:   "rm CATEGORY",
		Short: "Delete a category by id or name",
		Long: `Delete a category. A category that still owns tools is only deleted
with --cascade, which deletes those tools as well.`,
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
			id, err := categoryRef(r.Snapshot(), args[0])
			if err != nil {
				return err
			}
			policy := store.RejectIfNonEmpty
			if cascade {
				policy = store.Cascade
			}
			if err := r.DeleteCategory(ctx, id, policy); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted category %s\n", id)
			return nil
		},
	}
	rm.Flags().BoolVar(&cascade, "cascade", false, "Also delete the tools filed under the category")
	cmd.AddCommand(rm)

	return cmd
}
