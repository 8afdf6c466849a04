package intake

import (
	"net/mail"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseTestMessage(t *testing.T, raw string) *mail.Message {
	t.Helper()
	msg, err := mail.ReadMessage(strings.NewReader(raw))
	require.NoError(t, err)
	return msg
}

func TestExtractTextFromMessage(t *testing.T) {
	t.Run("plain message", func(t *testing.T) {
		msg := parseTestMessage(t, "From: a@x.example\r\nSubject: hi\r\n\r\nplain body\r\n")
		body, err := extractTextFromMessage(msg)
		require.NoError(t, err)
		assert.Equal(t, "plain body\r\n", body)
	})

	t.Run("multipart picks text/plain part", func(t *testing.T) {
		raw := "From: a@x.example\r\n" +
			"Content-Type: multipart/alternative; boundary=\"sep\"\r\n" +
			"\r\n" +
			"--sep\r\n" +
			"Content-Type: text/plain\r\n" +
			"\r\n" +
			"the text part\r\n" +
			"--sep\r\n" +
			"Content-Type: text/html\r\n" +
			"\r\n" +
			"<p>the html part</p>\r\n" +
			"--sep--\r\n"
		msg := parseTestMessage(t, raw)
		body, err := extractTextFromMessage(msg)
		require.NoError(t, err)
		assert.Contains(t, body, "the text part")
		assert.NotContains(t, body, "html part")
	})

	t.Run("multipart without text part", func(t *testing.T) {
		raw := "From: a@x.example\r\n" +
			"Content-Type: multipart/mixed; boundary=\"sep\"\r\n" +
			"\r\n" +
			"--sep\r\n" +
			"Content-Type: application/octet-stream\r\n" +
			"\r\n" +
			"binary\r\n" +
			"--sep--\r\n"
		msg := parseTestMessage(t, raw)
		body, err := extractTextFromMessage(msg)
		require.NoError(t, err)
		assert.Contains(t, body, "No text content")
	})
}

func TestDecodeEncodedHeader(t *testing.T) {
	t.Run("plain header unchanged", func(t *testing.T) {
		assert.Equal(t, "quarterly results", decodeEncodedHeader("quarterly results"))
	})

	t.Run("decodes encoded word", func(t *testing.T) {
		assert.Equal(t, "résultats", decodeEncodedHeader("=?utf-8?q?r=C3=A9sultats?="))
	})
}

func TestAddressList(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		assert.Nil(t, addressList(""))
	})

	t.Run("single address with display name", func(t *testing.T) {
		assert.Equal(t, []string{"a@x.example"}, addressList("Alex Doe <a@x.example>"))
	})

	t.Run("multiple addresses", func(t *testing.T) {
		assert.Equal(t, []string{"a@x.example", "b@x.example"}, addressList("a@x.example, b@x.example"))
	})

	t.Run("malformed list falls back to splitting", func(t *testing.T) {
		assert.Equal(t, []string{"not<<valid", "b@x.example"}, addressList("not<<valid, b@x.example"))
	})
}
