package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/fraud-sentinel/internal/core"
)

// CliRunner evaluates a JSON file of entries and prints a report. It
// implements the EntryServer interface as a one-shot surface.
type CliRunner struct {
	engine    *core.Engine
	logger    *zap.Logger
	inputPath string
	verbose   bool
}

// NewCliRunner creates a new CLI batch runner. An empty inputPath reads
// from stdin.
func NewCliRunner(engine *core.Engine, logger *zap.Logger, inputPath string, verbose bool) (*CliRunner, error) {
	return &CliRunner{
		engine:    engine,
		logger:    logger,
		inputPath: inputPath,
		verbose:   verbose,
	}, nil
}

// Start evaluates every entry in the input and prints the verdicts.
func (r *CliRunner) Start() error {
	var reader io.Reader = os.Stdin
	if r.inputPath != "" {
		f, err := os.Open(r.inputPath)
		if err != nil {
			return fmt.Errorf("failed to open input file: %w", err)
		}
		defer f.Close()
		reader = f
	}

	var entries []entryRequest
	if err := json.NewDecoder(reader).Decode(&entries); err != nil {
		return fmt.Errorf("failed to decode entries: %w", err)
	}

	r.logger.Info("Evaluating entries", zap.Int("count", len(entries)))

	ctx := context.Background()
	for i := range entries {
		r.printResult(i+1, r.evaluateOne(ctx, &entries[i]))
	}

	return nil
}

// Stop is a no-op for the CLI runner.
func (r *CliRunner) Stop() error {
	return nil
}

func (r *CliRunner) evaluateOne(ctx context.Context, req *entryRequest) *core.EvaluationResult {
	start := time.Now()
	result := r.engine.Evaluate(ctx, &core.Entry{
		ID:               req.ID,
		Email:            req.Email,
		IP:               req.IP,
		DeviceID:         req.DeviceID,
		Timestamp:        req.Timestamp,
		ActionsPerMinute: req.ActionsPerMinute,
		DuplicateEmail:   req.DuplicateEmail,
	})

	if r.verbose {
		r.logger.Debug("Evaluated entry",
			zap.String("entry_id", result.EntryID),
			zap.Duration("duration", time.Since(start)))
	}

	return result
}

func (r *CliRunner) printResult(n int, result *core.EvaluationResult) {
	fmt.Printf("\n=== Entry %d ===\n", n)
	fmt.Printf("Email:      %s\n", result.Email)
	fmt.Printf("IP:         %s\n", result.IP)
	fmt.Printf("Severity:   %s\n", strings.ToUpper(string(result.Severity)))
	fmt.Printf("Confidence: %.4f\n", result.Confidence)
	fmt.Printf("Flags:\n")
	for _, flag := range result.Flags {
		fmt.Printf("  - %s\n", flag)
	}
	if r.verbose && len(result.RawLookup) > 0 {
		raw, err := json.MarshalIndent(result.RawLookup, "  ", "  ")
		if err == nil {
			fmt.Printf("Raw lookup:\n  %s\n", raw)
		}
	}
}
