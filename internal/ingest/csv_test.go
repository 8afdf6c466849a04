package ingest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "emails.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadCSV(t *testing.T) {
	path := writeCSV(t, `email_id,sender,recipient,cc,subject,body,sent_at,sender_dept,recipient_dept,compliance_label
e1,trader@bank.example,desk@bank.example,a@bank.example; b@bank.example,re: today,we should move before the announcement,2025-03-14T09:30:00Z,TRADING,RESEARCH,
e2,hr@bank.example,staff@bank.example,,benefits,open enrollment starts monday,2025-03-14T10:00:00Z,HR,ALL,CLEAN
`)

	msgs, err := LoadCSV(path, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	first := msgs[0]
	assert.Equal(t, "e1", first.ID)
	assert.Equal(t, "trader@bank.example", first.Sender)
	assert.Equal(t, "desk@bank.example", first.Recipient)
	assert.Equal(t, []string{"a@bank.example", "b@bank.example"}, first.CC)
	assert.Equal(t, "re: today", first.Subject)
	assert.Equal(t, "we should move before the announcement", first.Body)
	assert.Equal(t, time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC), first.SentAt)
	assert.Equal(t, "TRADING", first.SenderGroup)
	assert.Equal(t, "RESEARCH", first.RecipientGroup)

	second := msgs[1]
	assert.Equal(t, "e2", second.ID)
	assert.Empty(t, second.CC)
}

func TestLoadCSVColumnOrderIndependent(t *testing.T) {
	path := writeCSV(t, `body,email_id,recipient,sender
hello,e1,to@x.example,from@x.example
`)

	msgs, err := LoadCSV(path, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "e1", msgs[0].ID)
	assert.Equal(t, "hello", msgs[0].Body)
}

func TestLoadCSVMissingRequiredColumn(t *testing.T) {
	path := writeCSV(t, `email_id,sender,recipient
e1,from@x.example,to@x.example
`)

	_, err := LoadCSV(path, zap.NewNop())
	assert.ErrorContains(t, err, "body")
}

func TestLoadCSVInvalidSentAt(t *testing.T) {
	path := writeCSV(t, `email_id,sender,recipient,body,sent_at
e1,from@x.example,to@x.example,hi,yesterday
`)

	_, err := LoadCSV(path, zap.NewNop())
	assert.ErrorContains(t, err, "sent_at")
}

func TestLoadCSVMissingFile(t *testing.T) {
	_, err := LoadCSV(filepath.Join(t.TempDir(), "absent.csv"), zap.NewNop())
	assert.Error(t, err)
}

func TestLoadCSVEmptyBody(t *testing.T) {
	path := writeCSV(t, `email_id,sender,recipient,body
`)

	msgs, err := LoadCSV(path, zap.NewNop())
	require.NoError(t, err)
	assert.Empty(t, msgs)
}
