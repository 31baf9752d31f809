package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize sdctrack storage",
		Long:  "Create the configuration and data directories, then attach and detach the storage backend once.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := a.withSession(cmd, "init", func(context.Context, *session) error { return nil })
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if a.flags.jsonMode {
				return printJSON(out, map[string]string{
					"config":  a.config.configDir,
					"data":    a.config.dataDir,
					"backend": a.config.store.Backend,
				})
			}
			fmt.Fprintln(out, "sdctrack initialized successfully")
			fmt.Fprintln(out, "  config:", a.config.configDir)
			fmt.Fprintln(out, "  data:  ", a.config.dataDir)
			return nil
		},
	}
}

func (a *app) newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create default users, definitions, documents, and chat boards",
		Long:  "Seed every entity type whose index is empty. Types that already hold rows are left alone.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, "seed", func(ctx context.Context, s *session) error {
				seeded, err := s.svc.Bootstrap(ctx)
				if err != nil {
					return err
				}
				if a.flags.jsonMode {
					return printJSON(cmd.OutOrStdout(), seeded)
				}
				return printCounts(cmd.OutOrStdout(), seeded)
			})
		},
	}
}

func (a *app) newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print user, record, and definition counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, "stats", func(ctx context.Context, s *session) error {
				st, err := s.svc.Stats(ctx)
				if err != nil {
					return err
				}
				if a.flags.jsonMode {
					return printJSON(cmd.OutOrStdout(), st)
				}
				return printCounts(cmd.OutOrStdout(), map[string]int{
					"users":       st.TotalUsers,
					"sdcs":        st.SDCRecords,
					"definitions": st.DefinitionItems,
				})
			})
		},
	}
}

func (a *app) newGCCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gc [type]",
		Short: "Delete stored states that no index lists",
		Long: `Collect orphan states left behind by interrupted creates. With a type,
only that entity type is scanned.

Types: ` + entityTypesHelp,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, "gc", func(ctx context.Context, s *session) error {
				collected := map[string][]string{}
				if len(args) == 1 {
					c, err := s.svc.Collection(args[0])
					if err != nil {
						return err
					}
					ids, err := c.CollectOrphans(ctx)
					if err != nil {
						return err
					}
					if len(ids) > 0 {
						collected[args[0]] = ids
					}
				} else {
					var err error
					if collected, err = s.svc.CollectOrphans(ctx); err != nil {
						return err
					}
				}

				if a.flags.jsonMode {
					return printJSON(cmd.OutOrStdout(), collected)
				}
				counts := make(map[string]int, len(collected))
				for name, ids := range collected {
					counts[name] = len(ids)
				}
				if len(counts) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "no orphan states")
					return nil
				}
				return printCounts(cmd.OutOrStdout(), counts)
			})
		},
	}
}
