package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mikey/email-triage/internal/core"
	"github.com/mikey/email-triage/internal/di"
	"go.uber.org/zap"
)

func main() {
	flags := di.ParseFlags()

	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	if err := container.Invoke(func(logger *zap.Logger, svc *core.TriageService) error {
		defer logger.Sync()
		return run(flags, logger, svc)
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(flags *di.CLIFlags, logger *zap.Logger, svc *core.TriageService) error {
	cand, err := readCandidate(flags.InputFile)
	if err != nil {
		return err
	}
	logger.Debug("Loaded candidate",
		zap.String("email_id", cand.EmailID),
		zap.String("sender", cand.Sender))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	decision, err := svc.Process(ctx, cand)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(decision, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode decision: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

// readCandidate reads the candidate email as JSON from the given file, or
// stdin when no file is specified.
func readCandidate(path string) (*core.Candidate, error) {
	var r io.Reader = os.Stdin
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open input file: %w", err)
		}
		defer f.Close()
		r = f
	}

	var cand core.Candidate
	if err := json.NewDecoder(r).Decode(&cand); err != nil {
		return nil, fmt.Errorf("failed to parse candidate JSON: %w", err)
	}
	return &cand, nil
}
