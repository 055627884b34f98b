package notify

import (
	"bytes"
	"context"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMessage struct {
	text      string
	parseMode string
}

// botServer records every sendMessage call. rejectHTML makes it fail any
// request carrying parse_mode=HTML, mimicking a markup parse error.
func botServer(t *testing.T, rejectHTML bool) (*httptest.Server, *[]sentMessage) {
	t.Helper()
	var sent []sentMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		msg := sentMessage{text: r.Form.Get("text"), parseMode: r.Form.Get("parse_mode")}
		sent = append(sent, msg)
		if rejectHTML && msg.parseMode == "HTML" {
			w.WriteHeader(http.StatusBadRequest)
			io.WriteString(w, `{"ok":false,"description":"can't parse entities"}`)
			return
		}
		io.WriteString(w, `{"ok":true}`)
	}))
	return srv, &sent
}

func newTestTelegram(srvURL string, respLog io.Writer) *Telegram {
	tg := NewTelegram("test-token", "42", &http.Client{}, respLog, log.New(io.Discard, "", 0))
	tg.SetBaseURL(srvURL)
	return tg
}

func TestDeliverSingleChunk(t *testing.T) {
	srv, sent := botServer(t, false)
	defer srv.Close()

	var respLog bytes.Buffer
	tg := newTestTelegram(srv.URL, &respLog)

	err := tg.Deliver(context.Background(), "Prakiraan cuaca ojol")
	require.NoError(t, err)
	require.Len(t, *sent, 1)
	assert.Equal(t, "HTML", (*sent)[0].parseMode)
	assert.Equal(t, "Prakiraan cuaca ojol", (*sent)[0].text)
	assert.Contains(t, respLog.String(), "200")
}

func TestDeliverSplitsLongText(t *testing.T) {
	srv, sent := botServer(t, false)
	defer srv.Close()

	tg := newTestTelegram(srv.URL, nil)

	line := strings.Repeat("hujan deras di tol ", 40) + "\n"
	text := strings.Repeat(line, 12) // well past one chunk

	err := tg.Deliver(context.Background(), text)
	require.NoError(t, err)
	require.Greater(t, len(*sent), 1)

	for i, m := range *sent {
		assert.LessOrEqual(t, len(m.text), chunkBytes, "chunk %d too large", i)
		if i > 0 {
			assert.Empty(t, m.parseMode, "only the first chunk uses HTML")
		}
	}
}

func TestDeliverHTMLFallbackToPlain(t *testing.T) {
	srv, sent := botServer(t, true)
	defer srv.Close()

	tg := newTestTelegram(srv.URL, nil)

	err := tg.Deliver(context.Background(), "laporan <tanpa> tag valid")
	require.NoError(t, err)

	// First attempt in HTML fails, the resend goes out plain.
	require.Len(t, *sent, 2)
	assert.Equal(t, "HTML", (*sent)[0].parseMode)
	assert.Empty(t, (*sent)[1].parseMode)
	assert.Equal(t, "laporan <tanpa> tag valid", (*sent)[1].text)
}

func TestDeliverUnconfiguredIsNoOp(t *testing.T) {
	srv, sent := botServer(t, false)
	defer srv.Close()

	var respLog bytes.Buffer
	tg := NewTelegram("", "", &http.Client{}, &respLog, log.New(io.Discard, "", 0))
	tg.SetBaseURL(srv.URL)

	err := tg.Deliver(context.Background(), "laporan")
	require.NoError(t, err)
	assert.Empty(t, *sent)
	assert.Contains(t, respLog.String(), "telegram tidak dikirim")
}

func TestDeliverFailureIsDeliveryError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	tg := newTestTelegram(srv.URL, nil)

	err := tg.Deliver(context.Background(), "laporan")
	require.Error(t, err)
	var de *DeliveryError
	assert.ErrorAs(t, err, &de)
}

func TestSplitChunks(t *testing.T) {
	t.Run("short text is one chunk", func(t *testing.T) {
		assert.Equal(t, []string{"abc"}, splitChunks("abc", 10))
	})

	t.Run("empty text is no chunks", func(t *testing.T) {
		assert.Nil(t, splitChunks("", 10))
	})

	t.Run("prefers newline boundaries", func(t *testing.T) {
		text := strings.Repeat("x", 8) + "\n" + strings.Repeat("y", 8)
		chunks := splitChunks(text, 10)
		require.Len(t, chunks, 2)
		assert.Equal(t, strings.Repeat("x", 8), chunks[0])
		assert.Equal(t, strings.Repeat("y", 8), chunks[1])
	})

	t.Run("never splits a rune", func(t *testing.T) {
		text := strings.Repeat("⚠", 100) // 3 bytes each
		for _, c := range splitChunks(text, 10) {
			assert.True(t, utf8.ValidString(c))
			assert.LessOrEqual(t, len(c), 10)
		}
	})

	t.Run("no content lost", func(t *testing.T) {
		text := strings.Repeat("abcde", 100)
		joined := strings.Join(splitChunks(text, 37), "")
		assert.Equal(t, text, joined)
	})
}
