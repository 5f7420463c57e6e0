// Command codeassist explains, lints and optimizes a source file.
//
//	codeassist -mode review main.py
//	cat main.py | codeassist -mode explain
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/hupe1980/supportmesh/codeassist"
	"github.com/hupe1980/supportmesh/config"
	"github.com/hupe1980/supportmesh/logging"
	"github.com/hupe1980/supportmesh/model/provider"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "codeassist: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to YAML config file")
	mode := flag.String("mode", "review", "explain, optimize, lint or review")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	code, err := readSource(flag.Arg(0))
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Config{Level: cfg.Log.Level, Format: "console", Output: os.Stderr})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	llm, err := provider.New(provider.Settings{
		Provider:    cfg.Model.Provider,
		Name:        cfg.CodeAssist.Model,
		Temperature: cfg.Model.Temperature,
		MaxTokens:   cfg.Model.MaxTokens,
		APIKey:      cfg.Model.APIKey,
		BaseURL:     cfg.Model.BaseURL,
	})
	if err != nil {
		return err
	}

	expert := codeassist.New(llm, func(o *codeassist.Options) {
		if cfg.CodeAssist.LintCommand != "" {
			o.Linter = &codeassist.CommandLinter{
				Command: cfg.CodeAssist.LintCommand,
				Args:    cfg.CodeAssist.LintArgs,
				Timeout: cfg.CodeAssist.LintTimeout,
			}
		}
		o.Logger = logger
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch *mode {
	case "explain":
		return printResult(expert.Explain(ctx, code))
	case "optimize":
		return printResult(expert.Optimize(ctx, code))
	case "lint":
		return printResult(expert.Lint(ctx, code))
	case "review":
		report, err := expert.Review(ctx, code)
		if err != nil {
			return err
		}
		fmt.Printf("## Code Explanation\n\n%s\n\n## Debugging & Error Analysis\n\n%s\n\n## Optimization Suggestions\n\n%s\n",
			report.Explanation, report.Lint, report.Optimization)
		return nil
	default:
		return fmt.Errorf("unknown mode %q", *mode)
	}
}

func readSource(path string) (string, error) {
	if path == "" || path == "-" {
		b, err := io.ReadAll(os.Stdin)
		return string(b), err
	}
	b, err := os.ReadFile(path)
	return string(b), err
}

func printResult(out string, err error) error {
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}
