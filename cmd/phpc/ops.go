package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"phpc/internal/ast"
)

var opsCmd = &cobra.Command{
	Use:   "ops",
	Short: "List the AST operation catalog",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		printCatalog(cmd.OutOrStdout(), ast.DefaultCatalog())
		return nil
	},
}

func printCatalog(out io.Writer, c *ast.Catalog) {
	for op := ast.Operation(0); op < ast.OperationCount; op++ {
		if op.IsMeta() {
			continue
		}
		info := c.Info(op)
		arity := fmt.Sprintf("%d..", info.MinArity())
		if hi := info.MaxArity(); hi >= 0 {
			arity += fmt.Sprint(hi)
		}
		var parts []string
		if len(info.ExtraNames) > 0 {
			parts = append(parts, "extras="+strings.Join(info.ExtraNames, ","))
		}
		if sons := sortedKeys(info.Sons); len(sons) > 0 {
			parts = append(parts, "sons="+strings.Join(sons, ","))
		}
		if ranges := sortedKeys(info.Ranges); len(ranges) > 0 {
			parts = append(parts, "ranges="+strings.Join(ranges, ","))
		}
		fmt.Fprintf(out, "%-20s %-6s %s\n", op, arity, strings.Join(parts, " "))
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
