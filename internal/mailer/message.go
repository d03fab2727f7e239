package mailer

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"mime"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"time"
)

// Message is one outgoing email
type Message struct {
	FromName    string
	FromAddress string
	To          string
	Subject     string
	Body        string

	// Optional PDF attached as application/pdf
	AttachmentPath string
}

// Build renders the message as an RFC 5322 byte stream. Messages with
// an attachment become multipart/mixed; plain ones stay text/plain.
func (m *Message) Build() ([]byte, error) {
	var buf bytes.Buffer

	from := m.FromAddress
	if m.FromName != "" {
		from = fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", m.FromName), m.FromAddress)
	}

	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", m.To)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", m.Subject))
	fmt.Fprintf(&buf, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	fmt.Fprintf(&buf, "MIME-Version: 1.0\r\n")

	if m.AttachmentPath == "" {
		fmt.Fprintf(&buf, "Content-Type: text/plain; charset=utf-8\r\n")
		fmt.Fprintf(&buf, "\r\n")
		buf.WriteString(m.Body)
		return buf.Bytes(), nil
	}

	attachment, err := os.ReadFile(m.AttachmentPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read attachment: %w", err)
	}

	// Nothing is written to buf until the first CreatePart, so the
	// boundary header can still go first.
	writer := multipart.NewWriter(&buf)
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%s\r\n", writer.Boundary())
	fmt.Fprintf(&buf, "\r\n")

	textHeader := textproto.MIMEHeader{}
	textHeader.Set("Content-Type", "text/plain; charset=utf-8")
	part, err := writer.CreatePart(textHeader)
	if err != nil {
		return nil, fmt.Errorf("failed to create text part: %w", err)
	}
	if _, err := part.Write([]byte(m.Body)); err != nil {
		return nil, fmt.Errorf("failed to write text part: %w", err)
	}

	name := filepath.Base(m.AttachmentPath)
	attHeader := textproto.MIMEHeader{}
	attHeader.Set("Content-Type", "application/pdf")
	attHeader.Set("Content-Transfer-Encoding", "base64")
	attHeader.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	part, err = writer.CreatePart(attHeader)
	if err != nil {
		return nil, fmt.Errorf("failed to create attachment part: %w", err)
	}

	encoded := base64.StdEncoding.EncodeToString(attachment)
	// Wrap base64 at 76 characters per RFC 2045
	for len(encoded) > 0 {
		n := 76
		if len(encoded) < n {
			n = len(encoded)
		}
		if _, err := part.Write([]byte(encoded[:n] + "\r\n")); err != nil {
			return nil, fmt.Errorf("failed to write attachment: %w", err)
		}
		encoded = encoded[n:]
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize message: %w", err)
	}

	return buf.Bytes(), nil
}
