package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/vedsharma/reqkit/internal/format"
	"github.com/vedsharma/reqkit/internal/model"
)

func init() {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "View request history",
		Run:   runHistoryList,
	}

	historyCmd.Flags().IntP("limit", "n", 10, "Number of requests to show")

	showCmd := &cobra.Command{
		Use:   "show <id or index>",
		Short: "Show full details of a request",
		Args:  cobra.ExactArgs(1),
		Run:   runHistoryShow,
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear all history",
		Run:   runHistoryClear,
	}

	exportCmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Write history to a JSON file",
		Args:  cobra.ExactArgs(1),
		Run:   runHistoryExport,
	}

	importCmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Merge history from a JSON export",
		Args:  cobra.ExactArgs(1),
		Run:   runHistoryImport,
	}

	historyCmd.AddCommand(showCmd, clearCmd, exportCmd, importCmd)
	rootCmd.AddCommand(historyCmd)
}

func runHistoryList(cmd *cobra.Command, args []string) {
	store, err := openStorage()
	if err != nil {
		fail("Failed to load history", err)
	}
	defer store.Close()

	history, err := store.LoadHistory()
	if err != nil {
		fail("Failed to load history", err)
	}

	limit, _ := cmd.Flags().GetInt("limit")
	format.PrintHistoryList(history.Entries, limit)
}

func runHistoryShow(cmd *cobra.Command, args []string) {
	store, err := openStorage()
	if err != nil {
		fail("Failed to load history", err)
	}
	defer store.Close()

	history, err := store.LoadHistory()
	if err != nil {
		fail("Failed to load history", err)
	}

	entry := findHistoryEntry(history.Entries, args[0])
	if entry == nil {
		fail(fmt.Sprintf("Request not found: %s", args[0]), nil)
	}
	format.PrintHistoryDetail(entry)
}

// findHistoryEntry looks up by 1-based index first, then by ID
func findHistoryEntry(entries []model.HistoryEntry, identifier string) *model.HistoryEntry {
	if index, err := strconv.Atoi(identifier); err == nil {
		if index > 0 && index <= len(entries) {
			return &entries[index-1]
		}
	}

	for i := range entries {
		if entries[i].ID == identifier {
			return &entries[i]
		}
	}
	return nil
}

func runHistoryClear(cmd *cobra.Command, args []string) {
	store, err := openStorage()
	if err != nil {
		fail("Failed to clear history", err)
	}
	defer store.Close()

	if err := store.ClearHistory(); err != nil {
		fail("Failed to clear history", err)
	}

	format.PrintSuccess("History cleared")
}

func runHistoryExport(cmd *cobra.Command, args []string) {
	store, err := openStorage()
	if err != nil {
		fail("Failed to export history", err)
	}
	defer store.Close()

	n, err := store.ExportHistory(args[0])
	if err != nil {
		fail("Failed to export history", err)
	}

	format.PrintSuccess(fmt.Sprintf("Exported %d requests to %s", n, args[0]))
}

func runHistoryImport(cmd *cobra.Command, args []string) {
	store, err := openStorage()
	if err != nil {
		fail("Failed to import history", err)
	}
	defer store.Close()

	n, err := store.ImportHistory(args[0])
	if err != nil {
		fail("Failed to import history", err)
	}

	format.PrintSuccess(fmt.Sprintf("Imported %d requests from %s", n, args[0]))
}
