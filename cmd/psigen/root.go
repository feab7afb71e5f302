package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "psigen",
	Short: "Generate a recursive-descent parser and PSI classes from a grammar",
	Long: `psigen turns a BNF-like grammar into source code:
- A recursive-descent parser driving a marker-based token builder.
- An element-type holder with one constant per node and token type.
- A PSI interface and implementation per public rule.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

func Execute() error {
	return rootCmd.Execute()
}
