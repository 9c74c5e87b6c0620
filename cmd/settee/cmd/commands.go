package cmd

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/setteedb/settee"
)

var (
	getCmd = &cobra.Command{
		Use:   "get [id]",
		Short: "Fetches a document by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(ctx context.Context, st *settee.Store) error {
				doc, err := st.Get(ctx, args[0]).Await(ctx)
				if err != nil {
					return err
				}
				return printJSON(doc)
			})
		},
	}

	saveCmd = &cobra.Command{
		Use:   "save [document]",
		Short: "Saves a JSON document, inserting or updating by its id field",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(ctx context.Context, st *settee.Store) error {
				var doc settee.Document
				if err := json.Unmarshal([]byte(args[0]), &doc); err != nil {
					return fmt.Errorf("parse document: %w", err)
				}
				saved, err := st.Save(ctx, doc).Await(ctx)
				if err != nil {
					return err
				}
				return printJSON(saved)
			})
		},
	}

	rmCmd = &cobra.Command{
		Use:   "rm [id] [rev]",
		Short: "Removes a document, resolving its current revision when rev is omitted",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(ctx context.Context, st *settee.Store) error {
				doc := settee.Document{"id": args[0]}
				if len(args) == 2 {
					doc.SetRevision(args[1])
				} else {
					got, err := st.Get(ctx, args[0]).Await(ctx)
					if err != nil {
						return err
					}
					doc = got
				}
				ack, err := st.Delete(ctx, doc).Await(ctx)
				if err != nil {
					return err
				}
				fmt.Printf("removed %s (%s)\n", ack.ID, ack.Rev)
				return nil
			})
		},
	}

	lsCmd = &cobra.Command{
		Use:   "ls",
		Short: "Lists documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(ctx context.Context, st *settee.Store) error {
				var opts []settee.AllOption
				if stubs, _ := cmd.Flags().GetBool("stubs"); stubs {
					opts = append(opts, settee.WithoutDocs())
				}
				if design, _ := cmd.Flags().GetBool("design"); design {
					opts = append(opts, settee.OnlyDesignDocs())
				}
				docs, err := st.All(ctx, opts...).Await(ctx)
				if err != nil {
					return err
				}
				return printJSON(docs)
			})
		},
	}

	findCmd = &cobra.Command{
		Use:   "find [selector]",
		Short: "Queries documents with a JSON selector",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(ctx context.Context, st *settee.Store) error {
				var selector map[string]any
				if err := json.Unmarshal([]byte(args[0]), &selector); err != nil {
					return fmt.Errorf("parse selector: %w", err)
				}

				query := settee.Query{Selector: selector}
				query.Limit, _ = cmd.Flags().GetInt("limit")
				query.Skip, _ = cmd.Flags().GetInt("skip")
				query.Fields, _ = cmd.Flags().GetStringSlice("fields")
				sortFields, _ := cmd.Flags().GetStringSlice("sort")
				for _, f := range sortFields {
					query.Sort = append(query.Sort, f)
				}

				docs, err := st.Find(ctx, query).Await(ctx)
				if err != nil {
					return err
				}
				return printJSON(docs)
			})
		},
	}

	indexCmd = &cobra.Command{
		Use:   "index [field...]",
		Short: "Creates a secondary index over the given fields",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(ctx context.Context, st *settee.Store) error {
				res, err := st.CreateIndices(ctx, args...).Await(ctx)
				if err != nil {
					return err
				}
				fmt.Printf("%s %s\n", res.Result, res.Name)
				return nil
			})
		},
	}

	destroyCmd = &cobra.Command{
		Use:   "destroy",
		Short: "Irreversibly destroys the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(ctx context.Context, st *settee.Store) error {
				if _, err := st.Destroy(ctx).Await(ctx); err != nil {
					return err
				}
				fmt.Println("destroyed")
				return nil
			})
		},
	}
)

func init() {
	lsCmd.Flags().Bool("stubs", false, "list id/revision stubs instead of full documents")
	lsCmd.Flags().Bool("design", false, "list design documents instead of ordinary ones")

	findCmd.Flags().Int("limit", 0, "maximum number of results")
	findCmd.Flags().Int("skip", 0, "number of results to skip")
	findCmd.Flags().StringSlice("sort", nil, "fields to sort by")
	findCmd.Flags().StringSlice("fields", nil, "fields to project into the results")
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
