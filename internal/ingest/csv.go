package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/finsurv/comms-triage/internal/core"
	"go.uber.org/zap"
)

// LoadCSV reads messages from a CSV export with a header row. Expected
// columns: email_id, sender, recipient, cc, subject, body, sent_at,
// sender_dept, recipient_dept. Extra columns are ignored; cc is a
// semicolon-separated list.
func LoadCSV(path string, logger *zap.Logger) ([]*core.Message, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open messages file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"email_id", "sender", "recipient", "body"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("messages file is missing required column %q", required)
		}
	}

	field := func(record []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}

	var messages []*core.Message
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record at line %d: %w", line, err)
		}

		msg := &core.Message{
			ID:             field(record, "email_id"),
			Sender:         field(record, "sender"),
			Recipient:      field(record, "recipient"),
			Subject:        field(record, "subject"),
			Body:           field(record, "body"),
			SenderGroup:    field(record, "sender_dept"),
			RecipientGroup: field(record, "recipient_dept"),
		}
		if cc := field(record, "cc"); cc != "" {
			for _, addr := range strings.Split(cc, ";") {
				if addr = strings.TrimSpace(addr); addr != "" {
					msg.CC = append(msg.CC, addr)
				}
			}
		}
		if sentAt := field(record, "sent_at"); sentAt != "" {
			ts, err := time.Parse(time.RFC3339, sentAt)
			if err != nil {
				return nil, fmt.Errorf("invalid sent_at %q at line %d: %w", sentAt, line, err)
			}
			msg.SentAt = ts
		}
		messages = append(messages, msg)
	}

	logger.Info("Loaded messages from CSV",
		zap.String("path", path),
		zap.Int("count", len(messages)))

	return messages, nil
}
