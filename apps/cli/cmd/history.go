package cmd

import (
	"fmt"

	"github.com/abdul-hamid-achik/curlspec/packages/history"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List, show and clear sent requests",
	Long: `Every request sent with 'curlspec send' is recorded in a local SQLite
database (~/.curlspec/history.db by default, see --history and the
config 'history' key).

Examples:
  curlspec history
  curlspec history list --method POST --failed
  curlspec history show 3f2a9c1e
  curlspec history clear`,
	RunE: historyListCommand,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent requests, newest first",
	Args:  cobra.NoArgs,
	RunE:  historyListCommand,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print the curl command of a history entry",
	Args:  cobra.ExactArgs(1),
	RunE:  historyShowCommand,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all history entries",
	Args:  cobra.NoArgs,
	RunE:  historyClearCommand,
}

var (
	historyPathFlag   string
	historyLimitFlag  int
	historyMethodFlag string
	historyURLFlag    string
	historyFailedFlag bool
	historyOutputFlag string
)

func init() {
	historyCmd.PersistentFlags().StringVar(&historyPathFlag, "history", getEnvString("CURLSPEC_HISTORY", ""), "History database path (env: CURLSPEC_HISTORY)")

	for _, c := range []*cobra.Command{historyCmd, historyListCmd} {
		c.Flags().IntVarP(&historyLimitFlag, "limit", "l", 20, "Maximum number of entries, 0 for all")
		c.Flags().StringVar(&historyMethodFlag, "method", "", "Only entries with this method")
		c.Flags().StringVar(&historyURLFlag, "url", "", "Only entries whose URL contains this text")
		c.Flags().BoolVar(&historyFailedFlag, "failed", false, "Only entries that errored or returned an error status")
		c.Flags().StringVarP(&historyOutputFlag, "output", "o", getEnvString("CURLSPEC_OUTPUT", ""), "Output format: console, json, http (env: CURLSPEC_OUTPUT)")
	}

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyClearCmd)
}

func openHistoryFromFlags() (*history.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return openHistory(cfg, historyPathFlag)
}

func historyListCommand(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("%w: unknown history subcommand %q", errUsage, args[0])
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openHistory(cfg, historyPathFlag)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.List(cmd.Context(), history.ListOptions{
		Limit:       historyLimitFlag,
		Method:      historyMethodFlag,
		URLContains: historyURLFlag,
		FailedOnly:  historyFailedFlag,
	})
	if err != nil {
		return err
	}

	formatter, err := newFormatter(historyOutputFlag, cmd.OutOrStdout(), cfg)
	if err != nil {
		return err
	}
	formatter.FormatHistory(entries)
	return flush(formatter)
}

func historyShowCommand(cmd *cobra.Command, args []string) error {
	store, err := openHistoryFromFlags()
	if err != nil {
		return err
	}
	defer store.Close()

	entry, err := store.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), entry.Command)
	return nil
}

func historyClearCommand(cmd *cobra.Command, args []string) error {
	store, err := openHistoryFromFlags()
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := store.Clear(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d entries from %s\n", n, store.Path())
	return nil
}
