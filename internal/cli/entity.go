package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/sdctrack/internal/tracker"
	"github.com/mesh-intelligence/sdctrack/pkg/types"
)

// entityTypesHelp lists the type names accepted by the entity commands.
var entityTypesHelp = strings.Join(types.StandardIndexNames, ", ")

// decodeInput parses a JSON argument into v.
func decodeInput(arg string, v any) error {
	dec := json.NewDecoder(strings.NewReader(arg))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return usageError("invalid JSON %q: %v", arg, err)
	}
	return nil
}

// printItems writes a listing: {"items": [...]} in JSON mode, one compact
// object per line otherwise.
func printItems[T any](w io.Writer, jsonMode bool, items []T) error {
	if jsonMode {
		return printJSON(w, map[string][]T{"items": items})
	}
	for _, item := range items {
		line, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("marshal output: %w", err)
		}
		fmt.Fprintln(w, string(line))
	}
	return nil
}

func (a *app) newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <type>",
		Short: "List every entity of a type in creation order",
		Long: `List prints the states named by the type's index, oldest first. Index
entries without state are reported after the readable items.

Types: ` + entityTypesHelp,
		Example: "  sdctrack list sponsors\n  sdctrack list users --json",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, "list", func(ctx context.Context, s *session) error {
				out := cmd.OutOrStdout()
				if args[0] == types.UserIndex {
					users, err := s.svc.ListUsers(ctx)
					if perr := printItems(out, a.flags.jsonMode, users); perr != nil {
						return perr
					}
					return err
				}

				c, err := s.svc.Collection(args[0])
				if err != nil {
					return err
				}
				items, err := c.List(ctx)
				if perr := printItems(out, a.flags.jsonMode, items); perr != nil {
					return perr
				}
				return err
			})
		},
	}
}

func (a *app) newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <type> <id>",
		Short: "Print one entity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, "get", func(ctx context.Context, s *session) error {
				if args[0] == types.UserIndex {
					u, err := s.svc.GetUser(ctx, args[1])
					if err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), u)
				}

				c, err := s.svc.Collection(args[0])
				if err != nil {
					return err
				}
				state, err := c.Get(ctx, args[1])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), state)
			})
		},
	}
}

func (a *app) newCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <type> <json>",
		Short: "Create an entity from a JSON object",
		Long: `Create stores a new entity and adds it to the type's index. An empty or
missing "id" gets a generated UUID. Users take {"username", "password",
"role", "isActive"} and have their password hashed.

Types: ` + entityTypesHelp,
		Example: `  sdctrack create sponsors '{"name":"Sponsor D"}'
  sdctrack create users '{"username":"nurse1","password":"s3cret","role":"L1"}'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, "create", func(ctx context.Context, s *session) error {
				if args[0] == types.UserIndex {
					var in tracker.NewUser
					if err := decodeInput(args[1], &in); err != nil {
						return err
					}
					u, err := s.svc.CreateUser(ctx, in)
					if err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), u)
				}

				c, err := s.svc.Collection(args[0])
				if err != nil {
					return err
				}
				if !json.Valid([]byte(args[1])) {
					return usageError("invalid JSON %q", args[1])
				}
				state, err := c.Create(ctx, json.RawMessage(args[1]))
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), state)
			})
		},
	}
}

func (a *app) newPatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "patch <type> <id> <json>",
		Short: "Overwrite the named fields of an entity",
		Long: `Patch merges the top-level fields of a JSON object into the stored state.
Fields not named are kept and "id" is ignored. Users take {"role",
"isActive", "password"}.

Types: ` + entityTypesHelp,
		Example: `  sdctrack patch sponsors 0190f6a2-... '{"name":"Sponsor Z"}'`,
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, "patch", func(ctx context.Context, s *session) error {
				if args[0] == types.UserIndex {
					var in tracker.UserUpdate
					if err := decodeInput(args[2], &in); err != nil {
						return err
					}
					u, err := s.svc.UpdateUser(ctx, args[1], in)
					if err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), u)
				}

				c, err := s.svc.Collection(args[0])
				if err != nil {
					return err
				}
				var partial map[string]any
				if err := json.Unmarshal([]byte(args[2]), &partial); err != nil || partial == nil {
					return usageError("invalid JSON object %q", args[2])
				}
				state, err := c.Patch(ctx, args[1], partial)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), state)
			})
		},
	}
}

func (a *app) newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <type> <id>",
		Short: "Remove an entity and its index entry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, "delete", func(ctx context.Context, s *session) error {
				if args[0] == types.UserIndex {
					if err := s.svc.DeleteUser(ctx, args[1]); err != nil {
						return err
					}
				} else {
					c, err := s.svc.Collection(args[0])
					if err != nil {
						return err
					}
					deleted, err := c.Delete(ctx, args[1])
					if err != nil {
						return err
					}
					if !deleted {
						return fmt.Errorf("%w: %s %q", types.ErrNotFound, args[0], args[1])
					}
				}

				if a.flags.jsonMode {
					return printJSON(cmd.OutOrStdout(), map[string]bool{"deleted": true})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s %s\n", args[0], args[1])
				return nil
			})
		},
	}
}
