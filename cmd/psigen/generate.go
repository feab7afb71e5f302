package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hiraide/psigen/bnf"
	verr "github.com/hiraide/psigen/error"
	"github.com/hiraide/psigen/generator"
	"github.com/spf13/cobra"
)

var generateFlags = struct {
	output *string
}{}

func init() {
	cmd := &cobra.Command{
		Use:     "generate",
		Short:   "Generate parser and PSI sources from a grammar",
		Example: `  psigen generate grammar.bnf -o src/gen`,
		Args:    cobra.MaximumNArgs(1),
		RunE:    runGenerate,
	}
	generateFlags.output = cmd.Flags().StringP("output", "o", ".", "output root directory")
	rootCmd.AddCommand(cmd)
}

func runGenerate(cmd *cobra.Command, args []string) (retErr error) {
	var grmPath string
	if len(args) > 0 {
		grmPath = args[0]
	}
	defer func() {
		if retErr == nil {
			return
		}
		specErr, ok := retErr.(*verr.SpecError)
		if !ok {
			return
		}
		if grmPath != "" {
			specErr.FilePath = grmPath
			specErr.SourceName = grmPath
		} else {
			specErr.SourceName = "stdin"
		}
	}()

	grammar, err := readGrammar(grmPath)
	if err != nil {
		return err
	}

	var opts []generator.Option
	if grmPath != "" {
		opts = append(opts, generator.WithGrammarDir(filepath.Dir(grmPath)))
	}
	gen := generator.New(grammar, *generateFlags.output, opts...)
	err = gen.Generate()
	if err != nil {
		return fmt.Errorf("Cannot write the output files: %w", err)
	}
	return nil
}

func readGrammar(path string) (*bnf.Grammar, error) {
	if path == "" {
		return bnf.Parse(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("Cannot open the grammar file %s: %w", path, err)
	}
	defer f.Close()
	return bnf.Parse(f)
}
