package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/toolshelf/internal/domain"
	"github.com/MrSnakeDoc/toolshelf/internal/reconcile"
)

func newCollectionsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "collections",
		Aliases: []string{"collection", "coll"},
		Short:   "Manage collections and their members",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List collections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := opts.session()
			if err != nil {
				return err
			}
			ctx, cancel := opts.context(cmd)
			defer cancel()

			colls, err := s.client.ListCollections(ctx)
			if err != nil {
				return err
			}
			return s.print(cmd.OutOrStdout(), colls, "ID\tNAME\tTOOLS\tMEMBERS", func() [][]string {
				rows := make([][]string, 0, len(colls))
				for _, c := range colls {
					rows = append(rows, []string{c.ID, c.Name, strconv.Itoa(len(c.ToolIDs)), strings.Join(c.ToolIDs, ",")})
				}
				return rows
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add NAME [TOOL...]",
		Short: "Create a collection, optionally with initial members",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withReconciler(opts, cmd, func(s *session, r *reconcile.Reconciler) error {
				snap := r.Snapshot()
				coll := domain.Collection{Name: args[0], ToolIDs: []string{}}
				for _, ref := range args[1:] {
					id, err := toolRef(snap, ref)
					if err != nil {
						return err
					}
					coll.ToolIDs = append(coll.ToolIDs, id)
				}
				created, err := r.CreateCollection(cmd.Context(), coll)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created collection %s (%s)\n", created.Name, created.ID)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rm COLLECTION",
		Short: "Delete a collection; its tools are kept",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withReconciler(opts, cmd, func(s *session, r *reconcile.Reconciler) error {
				id, err := collectionRef(r.Snapshot(), args[0])
				if err != nil {
					return err
				}
				if err := r.DeleteCollection(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted collection %s\n", id)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "attach COLLECTION TOOL",
		Short: "Add a tool to a collection",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withReconciler(opts, cmd, func(s *session, r *reconcile.Reconciler) error {
				collID, toolID, err := membership(r.Snapshot(), args[0], args[1])
				if err != nil {
					return err
				}
				coll, err := r.AddToCollection(cmd.Context(), collID, toolID)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s now has %d tools\n", coll.Name, len(coll.ToolIDs))
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "detach COLLECTION TOOL",
		Short: "Remove a tool from a collection",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withReconciler(opts, cmd, func(s *session, r *reconcile.Reconciler) error {
				collID, toolID, err := membership(r.Snapshot(), args[0], args[1])
				if err != nil {
					return err
				}
				coll, err := r.RemoveFromCollection(cmd.Context(), collID, toolID)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s now has %d tools\n", coll.Name, len(coll.ToolIDs))
				return nil
			})
		},
	})

	return cmd
}

func membership(snap reconcile.Catalog, collRef, tRef string) (string, string, error) {
	collID, err := collectionRef(snap, collRef)
	if err != nil {
		return "", "", err
	}
	toolID, err := toolRef(snap, tRef)
	if err != nil {
		return "", "", err
	}
	return collID, toolID, nil
}

// withReconciler runs fn with a loaded reconciler and the command's
// deadline applied to cmd.Context().
func withReconciler(opts *options, cmd *cobra.Command, fn func(*session, *reconcile.Reconciler) error) error {
	s, err := opts.session()
	if err != nil {
		return err
	}
	ctx, cancel := opts.context(cmd)
	defer cancel()
	cmd.SetContext(ctx)

	r, err := s.reconciler(ctx)
	if err != nil {
		return err
	}
	return fn(s, r)
}
