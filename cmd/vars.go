package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vedsharma/reqkit/internal/format"
	"github.com/vedsharma/reqkit/internal/model"
)

var (
	secretVar   bool
	inactiveVar bool
)

func init() {
	varCmd := &cobra.Command{
		Use:     "var",
		Aliases: []string{"vars"},
		Short:   "Manage global template variables",
		Long: `Manage global template variables.

Global variables apply to every endpoint that is bound or sent. An endpoint's
own variables override them, and --var overrides both.

Example:
  reqkit var set HOST api.example.com
  reqkit var set TOKEN abc123 --secret
  reqkit send users.toml`,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List all global variables",
		Run:   runVarList,
	}
	listCmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "Print secret values")

	setCmd := &cobra.Command{
		Use:   "set <name> <value>",
		Short: "Create or update a global variable",
		Args:  cobra.ExactArgs(2),
		Run:   runVarSet,
	}
	setCmd.Flags().BoolVar(&secretVar, "secret", false, "Mask the value in output and history")
	setCmd.Flags().BoolVar(&inactiveVar, "inactive", false, "Mark the variable inactive")

	showCmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Show a global variable",
		Args:  cobra.ExactArgs(1),
		Run:   runVarShow,
	}
	showCmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "Print secret values")

	deleteCmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a global variable",
		Args:  cobra.ExactArgs(1),
		Run:   runVarDelete,
	}

	varCmd.AddCommand(listCmd, setCmd, showCmd, deleteCmd)
	rootCmd.AddCommand(varCmd)
}

func runVarList(cmd *cobra.Command, args []string) {
	store, err := openStorage()
	if err != nil {
		fail("Failed to load variables", err)
	}
	defer store.Close()

	vars, err := store.LoadVariables()
	if err != nil {
		fail("Failed to load variables", err)
	}

	format.PrintVariableList(vars, showSecrets)
}

func runVarSet(cmd *cobra.Command, args []string) {
	kv := model.KeyValue{Name: args[0], Value: args[1], Active: !inactiveVar, Secret: secretVar}

	store, err := openStorage()
	if err != nil {
		fail("Failed to set variable", err)
	}
	defer store.Close()

	if err := store.SetVariable(kv); err != nil {
		fail("Failed to set variable", err)
	}

	format.PrintSuccess(fmt.Sprintf("Variable '%s' set", kv.Name))
}

func runVarShow(cmd *cobra.Command, args []string) {
	name := args[0]

	store, err := openStorage()
	if err != nil {
		fail("Failed to load variable", err)
	}
	defer store.Close()

	kv, exists, err := store.GetVariable(name)
	if err != nil {
		fail("Failed to load variable", err)
	}
	if !exists {
		fail(fmt.Sprintf("Variable '%s' not found", name), nil)
	}

	format.PrintVariable(kv, showSecrets)
}

func runVarDelete(cmd *cobra.Command, args []string) {
	name := args[0]

	store, err := openStorage()
	if err != nil {
		fail("Failed to delete variable", err)
	}
	defer store.Close()

	if err := store.DeleteVariable(name); err != nil {
		fail("Failed to delete variable", err)
	}

	format.PrintSuccess(fmt.Sprintf("Variable '%s' deleted", name))
}
