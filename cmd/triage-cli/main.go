package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/mail"
	"os"
	"strings"
	"time"

	"github.com/finsurv/comms-triage/internal/adapters/intake"
	"github.com/finsurv/comms-triage/internal/core"
	"github.com/finsurv/comms-triage/internal/di"
	"github.com/finsurv/comms-triage/internal/ingest"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func main() {
	flags := di.ParseFlags()

	// Build the dependency injection container
	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run triages either a CSV batch or a single message read from a file or stdin
func run(
	logger *zap.Logger,
	flags *di.CLIFlags,
	service *core.TriageService,
	cliIntake *intake.CliIntake,
) error {
	defer logger.Sync()

	if flags.CSVFile != "" {
		return runBatch(logger, flags, service, cliIntake)
	}
	return runSingle(logger, flags, cliIntake)
}

// runBatch triages every row of a CSV file as one isolated batch
func runBatch(
	logger *zap.Logger,
	flags *di.CLIFlags,
	service *core.TriageService,
	cliIntake *intake.CliIntake,
) error {
	msgs, err := ingest.LoadCSV(flags.CSVFile, logger)
	if err != nil {
		logger.Fatal("Failed to load CSV file", zap.Error(err), zap.String("file", flags.CSVFile))
	}
	logger.Info("Loaded messages from CSV", zap.Int("count", len(msgs)), zap.String("file", flags.CSVFile))

	startTime := time.Now()
	items := service.TriageBatch(context.Background(), msgs)
	cliIntake.PrintBatchReport(items)
	fmt.Printf("Processing time: %v\n", time.Since(startTime))
	return nil
}

// runSingle triages one RFC 822 message read from a file or stdin
func runSingle(logger *zap.Logger, flags *di.CLIFlags, cliIntake *intake.CliIntake) error {
	var msgReader io.Reader
	if flags.InputFile != "" {
		file, err := os.Open(flags.InputFile)
		if err != nil {
			logger.Fatal("Failed to open input file", zap.Error(err), zap.String("file", flags.InputFile))
		}
		defer file.Close()
		msgReader = file
		logger.Info("Reading message from file", zap.String("file", flags.InputFile))
	} else {
		msgReader = os.Stdin
		logger.Info("Reading message from stdin")
	}

	parsed, err := mail.ReadMessage(bufio.NewReader(msgReader))
	if err != nil {
		logger.Fatal("Failed to parse message", zap.Error(err))
	}

	bodyBytes, err := io.ReadAll(parsed.Body)
	if err != nil {
		logger.Fatal("Failed to read message body", zap.Error(err))
	}

	id := strings.Trim(parsed.Header.Get("Message-Id"), "<>")
	if id == "" {
		id = uuid.NewString()
	}

	sentAt := time.Now()
	if date, err := parsed.Header.Date(); err == nil {
		sentAt = date
	}

	recipient := ""
	if to := parsed.Header.Get("To"); to != "" {
		recipient = strings.TrimSpace(strings.Split(to, ",")[0])
	}

	var cc []string
	for _, addr := range strings.Split(parsed.Header.Get("Cc"), ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			cc = append(cc, addr)
		}
	}

	msg := &core.Message{
		ID:             id,
		Sender:         parsed.Header.Get("From"),
		Recipient:      recipient,
		CC:             cc,
		Subject:        parsed.Header.Get("Subject"),
		Body:           string(bodyBytes),
		SentAt:         sentAt,
		SenderGroup:    parsed.Header.Get("X-Sender-Group"),
		RecipientGroup: parsed.Header.Get("X-Recipient-Group"),
	}

	if _, err := cliIntake.ProcessMessage(context.Background(), msg); err != nil {
		logger.Fatal("Failed to triage message", zap.Error(err))
	}
	return nil
}
