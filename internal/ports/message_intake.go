package ports

import (
	"context"

	"github.com/finsurv/comms-triage/internal/core"
)

// MessageIntake defines the interface for a front end that feeds
// messages into the triage pipeline
type MessageIntake interface {
	// ProcessMessage triages a single message and returns its verdict
	ProcessMessage(ctx context.Context, msg *core.Message) (*core.Verdict, error)

	// Start starts the intake service
	Start() error

	// Stop stops the intake service
	Stop() error
}
