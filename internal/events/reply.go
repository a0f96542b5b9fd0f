package events

import (
	"net/url"
	netmail "net/mail"
	"regexp"
	"strings"

	"github.com/jaytaylor/html2text"

	"cv-status/internal/apperr"
)

// MaxReplyChars bounds the reply body kept for audit.
const MaxReplyChars = 2000

// InboundReply is an Inbound Parse post reduced to what correlation needs.
type InboundReply struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
}

var angleAddr = regexp.MustCompile(`<\s*([^<>\s]+@[^<>\s]+)\s*>`)

// ParseInboundReply extracts the bare sender address from a form such as
// from="Ada Lovelace <ada@example.com>". The HTML part is used when there is no text part.
func ParseInboundReply(form url.Values) (InboundReply, error) {
	from := SenderAddress(form.Get("from"))
	if from == "" {
		return InboundReply{}, apperr.Validation("reply has no sender address")
	}

	text := strings.TrimSpace(form.Get("text"))
	if text == "" && form.Get("html") != "" {
		if converted, err := html2text.FromString(form.Get("html"), html2text.Options{OmitLinks: true}); err == nil {
			text = converted
		}
	}

	return InboundReply{
		From:    from,
		To:      SenderAddress(form.Get("to")),
		Subject: strings.TrimSpace(form.Get("subject")),
		Text:    truncate(text, MaxReplyChars),
	}, nil
}

// SenderAddress returns the address part of an RFC 5322 mailbox, or "" when none is found.
func SenderAddress(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if addr, err := netmail.ParseAddress(raw); err == nil {
		return addr.Address
	}
	if m := angleAddr.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	if strings.Contains(raw, "@") && !strings.ContainsAny(raw, " <>") {
		return raw
	}
	return ""
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
