// cmd/storefront/cmd_fetch.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"storefront/internal/search"
	"storefront/internal/selection"
)

var (
	selectFlags []string
	searchPage  int
)

var optionsCmd = &cobra.Command{
	Use:   "options [productId]",
	Short: "Fetch the option catalog and SKU for a product",
	Long: `Fetches options for a product and prints the decoded result as JSON.

Example:
  storefront options prod34521304 --select Color=opt-color-fog --select Size=opt-size-82`,
	Args: cobra.MaximumNArgs(1),
	RunE: runOptions,
}

var productCmd = &cobra.Command{
	Use:   "product [productId]",
	Short: "Fetch one product's display details",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runProduct,
}

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Run a product gallery search (requires Elasticsearch)",
	Args:  cobra.ArbitraryArgs,
	RunE:  runSearch,
}

func init() {
	optionsCmd.Flags().StringArrayVarP(&selectFlags, "select", "s", nil, "selection entry as Type=optionId, repeatable")
	searchCmd.Flags().IntVarP(&searchPage, "page", "p", 1, "result page")
}

func productArg(args []string) string {
	if len(args) > 0 && args[0] != "" {
		return args[0]
	}
	return cfg.Catalog.DefaultProductID
}

// parseSelection builds a Selection from Type=optionId pairs in order.
func parseSelection(entries []string) (*selection.Selection, error) {
	sel := selection.New()
	for _, e := range entries {
		optionType, optionID, ok := strings.Cut(e, "=")
		optionType = strings.TrimSpace(optionType)
		if !ok || optionType == "" {
			return nil, fmt.Errorf("%w: %q, want Type=optionId", selection.ErrInvalidSelection, e)
		}
		sel.Select(optionType, strings.TrimSpace(optionID))
	}
	return sel, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runOptions(cmd *cobra.Command, args []string) error {
	sel, err := parseSelection(selectFlags)
	if err != nil {
		return err
	}
	a, err := startApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	result, err := a.options.Fetch(cmd.Context(), productArg(args), sel)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), result)
}

func runProduct(cmd *cobra.Command, args []string) error {
	a, err := startApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	p, err := a.products.Fetch(cmd.Context(), productArg(args))
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), p)
}

func runSearch(cmd *cobra.Command, args []string) error {
	a, err := startApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	if a.search == nil {
		return fmt.Errorf("search requires database.elasticsearch.enabled")
	}
	result, err := a.search.Search(cmd.Context(), search.Query{
		Text:    strings.Join(args, " "),
		Page:    searchPage,
		PerPage: a.search.PerPage(),
	})
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), result)
}
