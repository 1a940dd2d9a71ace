package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/quelldb/quell"
	"github.com/quelldb/quell/queries"
)

var execCmd = &cobra.Command{
	Use:   "exec <identifier> [args...]",
	Short: "Resolve a named statement and execute it",
	Long: `Resolve a statement identifier for the configured vendor and execute
it against the database. Positional arguments after the identifier are
passed as statement parameters.

With --tx the statement runs inside a transaction that is committed on
success and rolled back on failure.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExec,
}

var execInTx bool

func init() {
	execCmd.Flags().BoolVar(&execInTx, "tx", false, "run the statement inside a transaction")
	rootCmd.AddCommand(execCmd)
}

func runExec(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := configFromContext(ctx)
	if err != nil {
		return err
	}

	cat, err := loadCatalog(cfg)
	if err != nil {
		return err
	}

	desc, err := pickDescriptor(cat, cfg)
	if err != nil {
		return err
	}

	head, err := queries.Chain(os.DirFS(cfg.Queries.Dir), statementBase(desc, cfg), desc.Vendor)
	if err != nil {
		return fmt.Errorf("build chain: %w", err)
	}

	text, err := head.Resolve(args[0])
	if err != nil {
		return err
	}

	stmtArgs := make([]any, 0, len(args)-1)
	for _, a := range args[1:] {
		stmtArgs = append(stmtArgs, a)
	}

	mgr, err := newManager(desc)
	if err != nil {
		return err
	}

	if err := mgr.Connect(cfg.Settings); err != nil {
		return err
	}
	defer func() {
		if err := mgr.Disconnect(ctx); err != nil {
			slog.Warn("disconnect failed", "err", err)
		}
	}()

	var affected int64
	run := func(conn quell.Conn) error {
		n, execErr := conn.Exec(ctx, text, stmtArgs...)
		affected = n
		return execErr
	}

	if execInTx {
		err = mgr.InTx(ctx, run)
	} else {
		var conn quell.Conn
		conn, err = mgr.Conn(ctx, nil)
		if err == nil {
			err = run(conn)
			_ = mgr.Release(ctx, conn)
		}
	}
	if err != nil {
		return fmt.Errorf("exec %q: %w", args[0], err)
	}

	fmt.Printf("%d row(s) affected\n", affected)
	return nil
}
