package notify

import (
	"context"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/lysyi3m/rss-digest/app/storage"
)

type fakeSender struct {
	from, to string
	msg      []byte
	err      error
}

func (f *fakeSender) Send(ctx context.Context, from, to string, msg []byte) error {
	f.from, f.to, f.msg = from, to, msg
	return f.err
}

func decodedBody(t *testing.T, msg []byte) string {
	t.Helper()
	parts := strings.SplitN(string(msg), "\r\n\r\n", 2)
	if len(parts) != 2 {
		t.Fatalf("Expected headers and body, got %q", msg)
	}
	body, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(parts[1], "\r\n", ""))
	if err != nil {
		t.Fatalf("Expected base64 body, got: %v", err)
	}
	return string(body)
}

func TestSendLatest(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "2024-03-01-old.md"), []byte("---\ntitle: \"Old\"\n---\nold"), 0644)
	os.WriteFile(filepath.Join(dir, "2024-03-09-new.md"), []byte("---\ntitle: \"Новости AI\"\nsource_url: \"https://example.com/a\"\n---\n\n## AI Summary\n\nFresh summary.\n"), 0644)

	sender := &fakeSender{}
	n := NewNotifier(dir, Settings{User: "bot@example.com", Recipient: "reader@example.com"}).WithSender(sender)
	n.now = func() time.Time { return time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC) }

	if err := n.SendLatest(context.Background()); err != nil {
		t.Fatal(err)
	}

	if sender.from != "bot@example.com" || sender.to != "reader@example.com" {
		t.Errorf("Expected envelope bot -> reader, got %s -> %s", sender.from, sender.to)
	}

	msg := string(sender.msg)
	if !strings.Contains(msg, "Subject: =?utf-8?q?") {
		t.Errorf("Expected encoded subject, got %s", msg)
	}
	if !strings.Contains(msg, "To: reader@example.com\r\n") {
		t.Errorf("Expected To header, got %s", msg)
	}

	body := decodedBody(t, sender.msg)
	if !strings.Contains(body, "Fresh summary.") {
		t.Errorf("Expected latest post body, got %q", body)
	}
	if strings.Contains(body, "title:") || strings.Contains(body, "---\nold") {
		t.Errorf("Expected only the latest post without front matter, got %q", body)
	}
	if !strings.Contains(body, "Date: 2024-03-10") || !strings.Contains(body, "https://example.com/a") {
		t.Errorf("Expected date and source link, got %q", body)
	}
}

func TestSendLatest_NoPosts(t *testing.T) {
	sender := &fakeSender{}
	err := NewNotifier(t.TempDir(), Settings{}).WithSender(sender).SendLatest(context.Background())
	if err == nil {
		t.Errorf("Expected error when no posts exist")
	}
	if sender.msg != nil {
		t.Errorf("Expected nothing to be sent")
	}
}

func TestSendLatest_SenderError(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "2024-03-09-new.md"), []byte("# Title\n\nbody"), 0644)

	sendErr := errors.New("auth failed")
	err := NewNotifier(dir, Settings{}).WithSender(&fakeSender{err: sendErr}).SendLatest(context.Background())
	if !errors.Is(err, sendErr) {
		t.Errorf("Expected sender error to propagate, got: %v", err)
	}
}

func TestWriteHeaderStripsNewlines(t *testing.T) {
	n := NewNotifier("", Settings{User: "a@example.com", Recipient: "b@example.com\r\nBcc: evil@example.com"})
	msg := string(n.buildMessage(&storage.Post{Title: "T", Body: "body"}))

	if strings.Contains(msg, "\r\nBcc:") {
		t.Errorf("Expected header injection to be neutralized, got %s", msg)
	}
}

func TestSMTPSender_ConnectionFailure(t *testing.T) {
	sender := NewSMTPSender(Settings{Server: "127.0.0.1", Port: 1, Timeout: 500 * time.Millisecond})
	if err := sender.Send(context.Background(), "a@example.com", "b@example.com", []byte("x")); err == nil {
		t.Errorf("Expected connection error")
	}
}
