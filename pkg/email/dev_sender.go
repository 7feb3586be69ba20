package email

import (
	"context"
	"fmt"
	"html"
	"maps"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"sync/atomic"
	"time"
)

// DevSender saves each message as a standalone HTML file in dir instead of
// delivering it. The envelope is written as an HTML comment at the top.
type DevSender struct {
	dir string
	now func() time.Time
	seq atomic.Uint64
}

// NewDevSender creates a sender writing to dir, created on first send.
func NewDevSender(dir string) *DevSender {
	return &DevSender{dir: dir, now: time.Now}
}

func (d *DevSender) SendEmail(_ context.Context, params SendEmailParams) error {
	if err := params.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrFailedToSendEmail, err)
	}

	now := d.now().UTC()
	label := params.Tag
	if label == "" {
		label = params.Subject
	}
	name := fmt.Sprintf("%s-%04d-%s.html", now.Format("20060102T150405"), d.seq.Add(1), fileLabel(label))

	var b strings.Builder
	b.WriteString("<!--\n")
	fmt.Fprintf(&b, "Date: %s\nTo: %s\nSubject: %s\n", now.Format(time.RFC3339), params.SendTo, params.Subject)
	if params.Tag != "" {
		fmt.Fprintf(&b, "Tag: %s\n", params.Tag)
	}
	for _, k := range slices.Sorted(maps.Keys(params.Metadata)) {
		fmt.Fprintf(&b, "X-Meta-%s: %s\n", k, params.Metadata[k])
	}
	b.WriteString("-->\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", html.EscapeString(params.Subject))
	b.WriteString(params.BodyHTML)

	if err := os.WriteFile(filepath.Join(d.dir, name), []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrFailedToSendEmail, err)
	}
	return nil
}

var unsafeChars = regexp.MustCompile(`[^a-z0-9._-]+`)

func fileLabel(s string) string {
	s = strings.Trim(unsafeChars.ReplaceAllString(strings.ToLower(s), "_"), "_")
	if len(s) > 60 {
		s = s[:60]
	}
	if s == "" {
		return "message"
	}
	return s
}
