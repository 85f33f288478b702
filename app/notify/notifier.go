// Package notify emails the most recent generated post.
package notify

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"mime"
	"strings"
	"time"

	"github.com/lysyi3m/rss-digest/app/storage"
)

type Settings struct {
	Server    string
	Port      int // 0 tries 465 then 587
	User      string
	Password  string
	Recipient string
	Timeout   time.Duration
}

// Sender delivers a complete RFC 5322 message
type Sender interface {
	Send(ctx context.Context, from, to string, msg []byte) error
}

type Notifier struct {
	postsDir string
	settings Settings
	sender   Sender
	now      func() time.Time
}

func NewNotifier(postsDir string, settings Settings) *Notifier {
	return &Notifier{
		postsDir: postsDir,
		settings: settings,
		sender:   NewSMTPSender(settings),
		now:      time.Now,
	}
}

// WithSender replaces the SMTP transport
func (n *Notifier) WithSender(sender Sender) *Notifier {
	n.sender = sender
	return n
}

// SendLatest mails the newest post in the posts directory
func (n *Notifier) SendLatest(ctx context.Context) error {
	post, err := storage.Latest(n.postsDir)
	if err != nil {
		return fmt.Errorf("failed to find latest post: %w", err)
	}
	slog.Info("Latest post found", "file", post.Filename, "title", post.Title)

	msg := n.buildMessage(post)
	if err := n.sender.Send(ctx, n.settings.User, n.settings.Recipient, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	slog.Info("Email sent", "recipient", n.settings.Recipient, "file", post.Filename)
	return nil
}

func (n *Notifier) buildMessage(post *storage.Post) []byte {
	var buf bytes.Buffer

	subject := fmt.Sprintf("New post: %s", post.Title)
	body := fmt.Sprintf("A new post has been published.\nDate: %s\n\n%s\n%s\n%s\n",
		n.now().Format("2006-01-02"), strings.Repeat("-", 10), post.Body, strings.Repeat("-", 10))
	if post.SourceURL != "" {
		body += "\nOriginal article: " + post.SourceURL + "\n"
	}

	writeHeader(&buf, "From", n.settings.User)
	writeHeader(&buf, "To", n.settings.Recipient)
	writeHeader(&buf, "Subject", mime.QEncoding.Encode("utf-8", subject))
	writeHeader(&buf, "Date", n.now().Format(time.RFC1123Z))
	writeHeader(&buf, "MIME-Version", "1.0")
	writeHeader(&buf, "Content-Type", `text/plain; charset="utf-8"`)
	writeHeader(&buf, "Content-Transfer-Encoding", "base64")
	buf.WriteString("\r\n")

	encoded := base64.StdEncoding.EncodeToString([]byte(body))
	for len(encoded) > 76 {
		buf.WriteString(encoded[:76] + "\r\n")
		encoded = encoded[76:]
	}
	buf.WriteString(encoded + "\r\n")

	return buf.Bytes()
}

func writeHeader(buf *bytes.Buffer, name, value string) {
	value = strings.NewReplacer("\r", "", "\n", "").Replace(value)
	buf.WriteString(name + ": " + value + "\r\n")
}
