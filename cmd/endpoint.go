package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vedsharma/reqkit/internal/binder"
	"github.com/vedsharma/reqkit/internal/endpointfile"
	"github.com/vedsharma/reqkit/internal/format"
	"github.com/vedsharma/reqkit/internal/model"
	"github.com/vedsharma/reqkit/internal/template"
)

var (
	secretVarFlags []string
	showSecrets    bool
	force          bool
)

func init() {
	newCmd := &cobra.Command{
		Use:   "new <file> <method> <url>",
		Short: "Create an endpoint file",
		Long: `Create an endpoint file. The format follows the extension (.toml, .yaml, .yml, .json).

Example:
  reqkit new users.toml POST 'https://{{HOST}}/users' \
    -H 'Authorization: Bearer {{TOKEN}}' -d '{"name": "{{NAME}}"}' \
    --var HOST=api.example.com --secret-var TOKEN=abc123`,
		Args: cobra.ExactArgs(3),
		Run:  runEndpointNew,
	}
	addBodyFlags(newCmd)
	newCmd.Flags().StringArrayVar(&varFlags, "var", []string{}, "Add a variable as name=value")
	newCmd.Flags().StringArrayVar(&secretVarFlags, "secret-var", []string{}, "Add a secret variable as name=value")
	newCmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")

	showCmd := &cobra.Command{
		Use:   "show <file>",
		Short: "Show an endpoint file",
		Args:  cobra.ExactArgs(1),
		Run:   runEndpointShow,
	}
	showCmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "Print secret values")

	bindCmd := &cobra.Command{
		Use:   "bind <file>",
		Short: "Print the request an endpoint file binds to, without sending it",
		Args:  cobra.ExactArgs(1),
		Run:   runEndpointBind,
	}
	bindCmd.Flags().StringArrayVar(&varFlags, "var", []string{}, "Override a template variable as name=value")

	sendCmd := &cobra.Command{
		Use:   "send <file>",
		Short: "Bind and send an endpoint file",
		Args:  cobra.ExactArgs(1),
		Run:   runEndpointSend,
	}
	addSendFlags(sendCmd)

	rootCmd.AddCommand(newCmd, showCmd, bindCmd, sendCmd)
}

func runEndpointNew(cmd *cobra.Command, args []string) {
	path, methodText, url := args[0], args[1], args[2]

	if !force {
		if _, err := os.Stat(path); err == nil {
			fail(fmt.Sprintf("File '%s' already exists (use --force to overwrite)", path), nil)
		}
	}

	method, err := model.ParseMethod(methodText)
	if err != nil {
		fail("Invalid method", err)
	}

	e := model.NewEndpoint(method, url)
	if e.Headers, err = parseHeaders(headers); err != nil {
		fail("Invalid header", err)
	}
	if e.Body, err = buildPayload(data, bodyType, formFields); err != nil {
		fail("Invalid body", err)
	}

	vars, err := parseVars(varFlags, false)
	if err != nil {
		fail("Invalid variable", err)
	}
	secrets, err := parseVars(secretVarFlags, true)
	if err != nil {
		fail("Invalid variable", err)
	}
	e.Variables = layerVariables(vars, secrets)

	if err := endpointfile.Save(path, e); err != nil {
		fail("Failed to save endpoint", err)
	}

	format.PrintSuccess(fmt.Sprintf("Endpoint written to %s", path))
	if missing := undefinedVariables(e); len(missing) > 0 {
		fmt.Fprintf(os.Stderr, "WARNING: no value yet for %s\n", strings.Join(missing, ", "))
	}
}

func runEndpointShow(cmd *cobra.Command, args []string) {
	e := loadEndpoint(args[0])
	format.PrintEndpoint(e, showSecrets)
}

func runEndpointBind(cmd *cobra.Command, args []string) {
	e := loadEndpoint(args[0])

	store, err := openStorage()
	if err != nil {
		fail("Failed to open storage", err)
	}
	defer store.Close()

	overrides, err := parseVars(varFlags, false)
	if err != nil {
		fail("Invalid variable", err)
	}
	bindable, err := withLayeredVariables(store, e, overrides)
	if err != nil {
		fail("Failed to load variables", err)
	}

	req, err := binder.Bind(bindable)
	if err != nil {
		fail("Failed to bind endpoint", describeBindError(err))
	}
	format.PrintBoundRequest(req)
}

func runEndpointSend(cmd *cobra.Command, args []string) {
	path := args[0]
	e := loadEndpoint(path)
	sendEndpoint(cmd, e, endpointName(path))
}

func loadEndpoint(path string) model.Endpoint {
	e, err := endpointfile.Load(path)
	switch {
	case errors.Is(err, endpointfile.ErrOutdatedSchema):
		fail(fmt.Sprintf("'%s' uses an unsupported schema version, recreate it with 'reqkit new'", path), nil)
	case err != nil:
		fail("Failed to load endpoint", err)
	}
	return e
}

// endpointName derives a collection entry name from a file path
func endpointName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// undefinedVariables lists placeholders in e that none of its variables define
func undefinedVariables(e model.Endpoint) []string {
	defined := e.TemplateVariables()

	texts := []string{e.URL}
	e.Headers.All(func(_ int, kv model.KeyValue) bool {
		texts = append(texts, kv.Name, kv.Value)
		return true
	})
	if e.Body.Kind == model.KindRaw {
		texts = append(texts, model.DecodeLossy(e.Body.Content))
	} else {
		e.Body.Params.All(func(_ int, kv model.KeyValue) bool {
			texts = append(texts, kv.Name, kv.Value)
			return true
		})
	}

	seen := make(map[string]bool)
	var missing []string
	for _, text := range texts {
		for _, name := range template.Variables(text) {
			if _, ok := defined[name]; !ok && !seen[name] {
				seen[name] = true
				missing = append(missing, name)
			}
		}
	}
	return missing
}

// describeBindError names the undefined variable when there is one
func describeBindError(err error) error {
	var missing *template.MissingVariableError
	if errors.As(err, &missing) {
		return fmt.Errorf("%w (set it with --var %s=... or 'reqkit var set %s ...')", err, missing.Name, missing.Name)
	}
	return err
}
