package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vedsharma/reqkit/internal/endpointfile"
	"github.com/vedsharma/reqkit/internal/format"
	"github.com/vedsharma/reqkit/internal/model"
)

func init() {
	collectionCmd := &cobra.Command{
		Use:     "collection",
		Aliases: []string{"col"},
		Short:   "Manage endpoint collections",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List all collections",
		Run:   runCollectionList,
	}

	createCmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new collection",
		Args:  cobra.ExactArgs(1),
		Run:   runCollectionCreate,
	}

	showCmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Show endpoints in a collection",
		Args:  cobra.ExactArgs(1),
		Run:   runCollectionShow,
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a collection",
		Args:  cobra.ExactArgs(1),
		Run:   runCollectionDelete,
	}

	addCmd := &cobra.Command{
		Use:   "add <collection> <name> <file>",
		Short: "Add an endpoint file to a collection",
		Long: `Add an endpoint file to a collection. An endpoint with the same name is replaced.

Example:
  reqkit collection add my-api list-users users.toml`,
		Args: cobra.ExactArgs(3),
		Run:  runCollectionAdd,
	}

	removeCmd := &cobra.Command{
		Use:   "remove <collection> <name>",
		Short: "Remove an endpoint from a collection",
		Args:  cobra.ExactArgs(2),
		Run:   runCollectionRemove,
	}

	exportCmd := &cobra.Command{
		Use:   "export <collection> <name> <file>",
		Short: "Write a saved endpoint back to an endpoint file",
		Args:  cobra.ExactArgs(3),
		Run:   runCollectionExport,
	}
	exportCmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")

	runCmd := &cobra.Command{
		Use:   "run <name>",
		Short: "Send every endpoint in a collection",
		Args:  cobra.ExactArgs(1),
		Run:   runCollectionRun,
	}
	runCmd.Flags().StringArrayVar(&varFlags, "var", []string{}, "Override a template variable as name=value")
	runCmd.Flags().BoolVar(&noHistory, "no-history", false, "Don't save to history")

	collectionCmd.AddCommand(listCmd, createCmd, showCmd, deleteCmd, addCmd, removeCmd, exportCmd, runCmd)
	rootCmd.AddCommand(collectionCmd)
}

func runCollectionList(cmd *cobra.Command, args []string) {
	store, err := openStorage()
	if err != nil {
		fail("Failed to load collections", err)
	}
	defer store.Close()

	collections, err := store.LoadCollections()
	if err != nil {
		fail("Failed to load collections", err)
	}

	format.PrintCollectionList(collections)
}

func runCollectionCreate(cmd *cobra.Command, args []string) {
	name := args[0]

	store, err := openStorage()
	if err != nil {
		fail("Failed to create collection", err)
	}
	defer store.Close()

	if err := store.CreateCollection(name); err != nil {
		fail("Failed to create collection", err)
	}

	format.PrintSuccess(fmt.Sprintf("Collection '%s' created", name))
}

func runCollectionShow(cmd *cobra.Command, args []string) {
	store, err := openStorage()
	if err != nil {
		fail("Failed to load collection", err)
	}
	defer store.Close()

	col, err := store.GetCollection(args[0])
	if err != nil {
		fail("Failed to load collection", err)
	}

	format.PrintCollectionEndpoints(col)
}

func runCollectionDelete(cmd *cobra.Command, args []string) {
	name := args[0]

	store, err := openStorage()
	if err != nil {
		fail("Failed to delete collection", err)
	}
	defer store.Close()

	if err := store.DeleteCollection(name); err != nil {
		fail("Failed to delete collection", err)
	}

	format.PrintSuccess(fmt.Sprintf("Collection '%s' deleted", name))
}

func runCollectionAdd(cmd *cobra.Command, args []string) {
	collectionName, name, path := args[0], args[1], args[2]
	e := loadEndpoint(path)

	store, err := openStorage()
	if err != nil {
		fail("Failed to add endpoint", err)
	}
	defer store.Close()

	if err := store.AddToCollection(collectionName, model.SavedEndpoint{Name: name, Endpoint: e}); err != nil {
		fail("Failed to add endpoint", err)
	}

	format.PrintSuccess(fmt.Sprintf("Endpoint '%s' added to collection '%s'", name, collectionName))
}

func runCollectionRemove(cmd *cobra.Command, args []string) {
	collectionName, name := args[0], args[1]

	store, err := openStorage()
	if err != nil {
		fail("Failed to remove endpoint", err)
	}
	defer store.Close()

	if err := store.RemoveFromCollection(collectionName, name); err != nil {
		fail("Failed to remove endpoint", err)
	}

	format.PrintSuccess(fmt.Sprintf("Endpoint '%s' removed from collection '%s'", name, collectionName))
}

func runCollectionExport(cmd *cobra.Command, args []string) {
	collectionName, name, path := args[0], args[1], args[2]

	if !force {
		if _, err := os.Stat(path); err == nil {
			fail(fmt.Sprintf("File '%s' already exists (use --force to overwrite)", path), nil)
		}
	}

	store, err := openStorage()
	if err != nil {
		fail("Failed to export endpoint", err)
	}
	defer store.Close()

	saved, err := store.GetEndpoint(collectionName, name)
	if err != nil {
		fail("Failed to export endpoint", err)
	}

	if err := endpointfile.Save(path, saved.Endpoint); err != nil {
		fail("Failed to export endpoint", err)
	}

	format.PrintSuccess(fmt.Sprintf("Endpoint '%s' written to %s", name, path))
}

func runCollectionRun(cmd *cobra.Command, args []string) {
	name := args[0]
	verbose, _ := cmd.Flags().GetBool("verbose")

	store, err := openStorage()
	if err != nil {
		fail("Failed to load collection", err)
	}
	defer store.Close()

	col, err := store.GetCollection(name)
	if err != nil {
		fail("Failed to load collection", err)
	}

	if len(col.Endpoints) == 0 {
		fail(fmt.Sprintf("Collection '%s' is empty", name), nil)
	}

	overrides, err := parseVars(varFlags, false)
	if err != nil {
		fail("Invalid variable", err)
	}

	fmt.Printf("Running %d endpoints from collection '%s'\n\n", len(col.Endpoints), name)

	failed := 0
	for i, saved := range col.Endpoints {
		fmt.Printf("[%d/%d] %s\n", i+1, len(col.Endpoints), saved.Name)

		bindable, err := withLayeredVariables(store, saved.Endpoint, overrides)
		if err != nil {
			fail("Failed to load variables", err)
		}

		req, resp, err := bindAndSend(cmd, bindable)
		if err != nil {
			format.PrintError(fmt.Sprintf("Request failed: %v", describeBindError(err)))
			failed++
			if cmd.Context().Err() != nil {
				break
			}
			continue
		}

		format.PrintResponse(resp, verbose)
		fmt.Println()

		if !noHistory {
			saveToHistory(store, req, resp, secretValues(bindable.Variables))
		}
	}

	if failed > 0 {
		fail(fmt.Sprintf("%d of %d endpoints in '%s' failed", failed, len(col.Endpoints), name), nil)
	}
	format.PrintSuccess(fmt.Sprintf("Completed running collection '%s'", name))
}
