package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/carenav/carenav/internal/app"
	"github.com/carenav/carenav/internal/config"
	"github.com/carenav/carenav/internal/rag"
)

var askView string

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a one-shot question from the terminal",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askView, "view", "patient", "answer persona: provider or patient")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	view, err := rag.ParseViewType(askView)
	if err != nil {
		return fmt.Errorf("invalid --view %q: must be provider or patient", askView)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err = cfg.Validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	a, err := app.Setup(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() { _ = a.Close() }()

	question := strings.Join(args, " ")

	resp, err := a.Orchestrator.Answer(ctx, rag.Request{
		Query:     question,
		View:      view,
		SessionID: uuid.NewString(),
	})
	if err != nil {
		// Crisis resources still matter when generation fails.
		printCrisis(resp)
		if errors.Is(err, rag.ErrGenerationTimeout) {
			return fmt.Errorf("the answer took too long to generate, please try again")
		}
		return fmt.Errorf("generating answer: %w", err)
	}

	fmt.Println(resp.Answer)

	if len(resp.Citations) > 0 {
		fmt.Println("\nSources:")
		for _, c := range resp.Citations {
			if c.URL != "" {
				fmt.Printf("  - %s (%s)\n", c.Title, c.URL)
			} else {
				fmt.Printf("  - %s\n", c.Title)
			}
		}
	}

	printCrisis(resp)
	return nil
}

// printCrisis prints crisis resources when the query was flagged.
func printCrisis(resp rag.Response) {
	if !resp.CrisisDetected {
		return
	}
	fmt.Println("\nIf you or someone you know is in crisis, help is available now:")
	for _, r := range resp.CrisisResources {
		line := "  - " + r.Name
		if r.Phone != "" {
			line += ": " + r.Phone
		}
		fmt.Println(line)
		if r.Description != "" {
			fmt.Printf("    %s\n", r.Description)
		}
	}
}
