package intake

import (
	"context"
	"fmt"
	"time"

	"github.com/finsurv/comms-triage/internal/core"
	"go.uber.org/zap"
)

// CliIntake implements a command-line front end for message triage
type CliIntake struct {
	service *core.TriageService
	logger  *zap.Logger
	verbose bool
}

// NewCliIntake creates a new CLI intake
func NewCliIntake(service *core.TriageService, logger *zap.Logger, verbose bool) (*CliIntake, error) {
	return &CliIntake{
		service: service,
		logger:  logger,
		verbose: verbose,
	}, nil
}

// ProcessMessage triages a message and displays the results
func (f *CliIntake) ProcessMessage(ctx context.Context, msg *core.Message) (*core.Verdict, error) {
	f.logger.Debug("Processing message", zap.String("message_id", msg.ID), zap.String("sender", msg.Sender))

	fmt.Printf("\n=== Message Summary ===\n")
	fmt.Printf("From: %s (%s)\n", msg.Sender, msg.SenderGroup)
	fmt.Printf("To: %s (%s)\n", msg.Recipient, msg.RecipientGroup)
	fmt.Printf("Subject: %s\n", msg.Subject)
	fmt.Printf("Body length: %d bytes\n", len(msg.Body))

	if f.verbose {
		preview := msg.Body
		if len(preview) > 500 {
			preview = preview[:500] + "..."
		}
		fmt.Printf("\nBody preview:\n%s\n", preview)
	}

	fmt.Printf("\n=== Triage ===\n")
	startTime := time.Now()
	verdict, err := f.service.Triage(ctx, msg)
	if err != nil {
		f.logger.Error("Failed to triage message", zap.Error(err))
		fmt.Printf("Error: %v\n", err)
		return nil, err
	}
	duration := time.Since(startTime)

	fmt.Printf("\n=== Verdict ===\n")
	fmt.Printf("Label: %s\n", verdict.Label)
	fmt.Printf("Confidence: %.4f\n", verdict.Confidence)
	fmt.Printf("Source: %s\n", verdict.Source)
	if verdict.Rationale != "" {
		fmt.Printf("Rationale: %s\n", verdict.Rationale)
	}
	fmt.Printf("Processing time: %v\n", duration)

	if f.verbose {
		f.printSimilar(ctx, msg)
	}

	return verdict, nil
}

// printSimilar shows previously triaged messages close to this one,
// giving an analyst immediate precedents for an escalated verdict
func (f *CliIntake) printSimilar(ctx context.Context, msg *core.Message) {
	neighbors, err := f.service.SimilarMessages(ctx, msg, 5, "")
	if err != nil {
		f.logger.Debug("Failed to query similar messages", zap.Error(err))
		return
	}
	if len(neighbors) == 0 {
		return
	}

	fmt.Printf("\n=== Similar Messages ===\n")
	for _, n := range neighbors {
		fmt.Printf("%-40s %-24s %.4f\n", n.MessageID, n.Label, n.Score)
	}
}

// PrintBatchReport displays the per-message outcomes of a batch run
func (f *CliIntake) PrintBatchReport(items []core.BatchItem) {
	fmt.Printf("\n=== Batch Report (%d messages) ===\n", len(items))
	for _, item := range items {
		if item.Err != nil {
			fmt.Printf("%-40s FAILED: %v\n", item.MessageID, item.Err)
			continue
		}
		fmt.Printf("%-40s %-24s %.4f (%s)\n",
			item.MessageID, item.Verdict.Label, item.Verdict.Confidence, item.Verdict.Source)
	}
}

// Start is a no-op for the CLI intake
func (f *CliIntake) Start() error {
	return nil
}

// Stop is a no-op for the CLI intake
func (f *CliIntake) Stop() error {
	return nil
}
