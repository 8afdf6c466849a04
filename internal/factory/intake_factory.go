package factory

import (
	"fmt"

	"github.com/finsurv/comms-triage/internal/adapters/intake"
	"github.com/finsurv/comms-triage/internal/config"
	"github.com/finsurv/comms-triage/internal/core"
	"github.com/finsurv/comms-triage/internal/ports"
	"go.uber.org/zap"
)

// IntakeFactory creates message intakes based on configuration
type IntakeFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewIntakeFactory creates a new message intake factory
func NewIntakeFactory(cfg *config.Config, logger *zap.Logger) *IntakeFactory {
	return &IntakeFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateMessageIntake creates a message intake based on the configuration
func (f *IntakeFactory) CreateMessageIntake(service *core.TriageService) (ports.MessageIntake, error) {
	switch intakeType := f.cfg.GetString("server.intake_type"); intakeType {
	case "smtp":
		listenAddr := f.cfg.GetString("server.listen_address")
		return intake.NewSMTPIntake(service, f.logger, listenAddr), nil
	default:
		return nil, fmt.Errorf("unsupported intake type: %s", intakeType)
	}
}
