package notify

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"radar-cuaca/internal/forecast"
)

// DeliveryError reports a failed notification send. Deliveries are best
// effort: callers log it, they never abort a pass over it.
type DeliveryError struct {
	Chunk int
	Err   error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("telegram delivery (chunk %d): %v", e.Chunk, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// Notifier delivers a rendered report to an external messaging channel.
type Notifier interface {
	Deliver(ctx context.Context, text string) error
}

// chunkBytes is Telegram's safe message size; longer reports are split.
const chunkBytes = 3500

// Telegram sends reports via the Bot API sendMessage endpoint. Every API
// response is appended to the response log, delivery failures included.
type Telegram struct {
	token   string
	chatID  string
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	respLog io.Writer
	logger  *log.Logger
}

// NewTelegram builds a notifier. An empty token or chat id makes Deliver a
// logged no-op; credentials toggle the feature, not the pipeline.
func NewTelegram(token, chatID string, client *http.Client, respLog io.Writer, logger *log.Logger) *Telegram {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Telegram{
		token:   token,
		chatID:  chatID,
		baseURL: "https://api.telegram.org",
		client:  client,
		limiter: rate.NewLimiter(rate.Every(200*time.Millisecond), 1),
		respLog: respLog,
		logger:  logger,
	}
}

// SetBaseURL overrides the API host. Used by tests.
func (t *Telegram) SetBaseURL(u string) { t.baseURL = u }

// Configured reports whether both credential halves are present.
func (t *Telegram) Configured() bool {
	return t.token != "" && t.chatID != ""
}

// Deliver splits the text into chunks and sends them in order. The first
// chunk goes out with HTML parse mode; if Telegram rejects it the whole
// message is resent as plain text. Sends are rate limited between chunks.
func (t *Telegram) Deliver(ctx context.Context, text string) error {
	if !t.Configured() {
		t.logf("token/chat_id kosong — telegram tidak dikirim")
		return nil
	}

	chunks := splitChunks(strings.Trim(text, "\n"), chunkBytes)
	if len(chunks) == 0 {
		return nil
	}

	if err := t.sendChunk(ctx, chunks[0], "HTML", 0); err != nil {
		// HTML markup can trip the parser on arbitrary report text;
		// retry everything as plain text before giving up.
		t.logf("HTML send failed, falling back to plain text: %v", err)
		for i, c := range chunks {
			if err := t.sendChunk(ctx, c, "", i); err != nil {
				return &DeliveryError{Chunk: i, Err: err}
			}
		}
		return nil
	}

	for i := 1; i < len(chunks); i++ {
		if err := t.sendChunk(ctx, chunks[i], "", i); err != nil {
			return &DeliveryError{Chunk: i, Err: err}
		}
	}
	return nil
}

func (t *Telegram) sendChunk(ctx context.Context, chunk, parseMode string, idx int) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return err
	}

	form := url.Values{}
	form.Set("chat_id", t.chatID)
	form.Set("text", chunk)
	if parseMode != "" {
		form.Set("parse_mode", parseMode)
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		t.logResponse(idx, parseMode, len(chunk), "ERR "+err.Error())
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	t.logResponse(idx, parseMode, len(chunk), fmt.Sprintf("%d %s", resp.StatusCode, strings.TrimSpace(string(body))))

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram status %d", resp.StatusCode)
	}
	return nil
}

func (t *Telegram) logResponse(idx int, mode string, size int, resp string) {
	if t.respLog == nil {
		return
	}
	if mode == "" {
		mode = "plain"
	}
	stamp := time.Now().In(forecast.WIB).Format("2006-01-02 15:04:05 WIB")
	fmt.Fprintf(t.respLog, "[%s] chunk=%d mode=%s len=%d resp=%s\n", stamp, idx, mode, size, resp)
}

func (t *Telegram) logf(format string, args ...interface{}) {
	t.logger.Printf("notify: "+format, args...)
	if t.respLog != nil {
		stamp := time.Now().In(forecast.WIB).Format("2006-01-02 15:04:05 WIB")
		fmt.Fprintf(t.respLog, "[%s] %s\n", stamp, fmt.Sprintf(format, args...))
	}
}

// splitChunks cuts text into byte-bounded pieces without splitting a UTF-8
// rune, preferring newline boundaries when one is near the cut.
func splitChunks(text string, max int) []string {
	if text == "" {
		return nil
	}

	var chunks []string
	for len(text) > max {
		cut := max
		for cut > 0 && !utf8RuneStart(text[cut]) {
			cut--
		}
		if nl := strings.LastIndexByte(text[:cut], '\n'); nl > max/2 {
			cut = nl + 1
		}
		chunks = append(chunks, strings.TrimRight(text[:cut], "\n"))
		text = text[cut:]
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}

func utf8RuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
