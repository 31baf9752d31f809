// Package cli implements the sdctrack command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/sdctrack/internal/paths"
	"github.com/mesh-intelligence/sdctrack/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	jsonMode  bool
}

// commandError carries the exit code for a failed command.
type commandError struct {
	code int
	err  error
}

func (e *commandError) Error() string { return e.err.Error() }
func (e *commandError) Unwrap() error { return e.err }

// userErrors are the sentinels reported with exitUserError.
var userErrors = []error{
	types.ErrNotFound,
	types.ErrConflict,
	types.ErrInvalidArgument,
	types.ErrInvalidCredentials,
	types.ErrUserInactive,
	types.ErrForbidden,
	types.ErrProtected,
	types.ErrBackendUnknown,
	types.ErrSyncStrategyUnknown,
	types.ErrBatchSizeInvalid,
	types.ErrBatchIntervalInvalid,
	types.ErrRedisAddrEmpty,
}

// classify wraps err with the exit code its cause calls for.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var ce *commandError
	if errors.As(err, &ce) {
		return err
	}
	code := exitSysError
	for _, target := range userErrors {
		if errors.Is(err, target) {
			code = exitUserError
			break
		}
	}
	return &commandError{code: code, err: fmt.Errorf("%s: %w", op, err)}
}

// usageError reports bad command input.
func usageError(format string, args ...any) error {
	return &commandError{code: exitUserError, err: fmt.Errorf(format, args...)}
}

// exitCode maps an Execute error to a process exit code.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var ce *commandError
	if errors.As(err, &ce) {
		return ce.code
	}
	// cobra argument and flag errors
	return exitUserError
}

// app is the state shared by the commands of one root command.
type app struct {
	flags  rootFlags
	config *settings
}

// NewRootCmd creates the top-level "sdctrack" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "sdctrack",
		Short: "SDC tracking storage and administration",
		Long: "sdctrack stores users, definitions, SDC records, documents, and chat boards\n" +
			"in an embedded SQLite database or a Redis server.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" || cmd.Name() == "help" {
				return nil
			}
			cfg, err := a.loadSettings()
			if err != nil {
				return classify("load config", err)
			}
			a.config = cfg
			return nil
		},
	}

	root.PersistentFlags().StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	root.PersistentFlags().StringVar(&a.flags.dataDir, "data-dir", "", "data directory (default: $(CWD)/"+paths.DefaultDataDirName+")")
	root.PersistentFlags().BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(
		newVersionCmd(),
		a.newInitCmd(),
		a.newSeedCmd(),
		a.newStatsCmd(),
		a.newGCCmd(),
		a.newListCmd(),
		a.newGetCmd(),
		a.newCreateCmd(),
		a.newPatchCmd(),
		a.newDeleteCmd(),
		a.newLoginCmd(),
		a.newPasswdCmd(),
	)

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err != nil {
		errPrefix.Fprint(stderr, "sdctrack:")
		fmt.Fprintln(stderr, "", strings.TrimSpace(err.Error()))
	}
	return exitCode(err)
}

// errPrefix is red when stdout is a terminal and NO_COLOR is unset.
var errPrefix = color.New(color.FgRed, color.Bold)
