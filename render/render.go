// Package render turns forum posts into the notification messages sent to
// group subscribers. User content is untrusted and is sanitised here before it
// reaches any outbound channel.
package render

import (
	"fmt"
	"html"
	"net/url"
	"strings"

	"github.com/jaytaylor/html2text"
	"github.com/microcosm-cc/bluemonday"

	"github.com/granforum/forum/models"
)

const openInForumLabel = "Abrir no fórum"

// Message is a channel-neutral notification. Email uses Subject and HTML,
// WhatsApp uses Text.
type Message struct {
	Subject string
	HTML    string
	Text    string
}

// Renderer builds notification messages linking back to the public site.
type Renderer struct {
	baseURL         string
	htmlPolicy      *bluemonday.Policy
	stripTagsPolicy *bluemonday.Policy
}

func NewRenderer(publicBaseURL string) *Renderer {
	return &Renderer{
		baseURL:         strings.TrimRight(publicBaseURL, "/"),
		htmlPolicy:      bluemonday.UGCPolicy(),
		stripTagsPolicy: bluemonday.StripTagsPolicy(),
	}
}

// ThreadLink is the public URL of a thread page.
func (r *Renderer) ThreadLink(threadID string) string {
	return r.baseURL + "/thread/" + url.PathEscape(threadID)
}

// NewThread renders the message announcing a thread and its opening content.
func (r *Renderer) NewThread(thread models.Thread, content string) Message {
	link := r.ThreadLink(thread.ID)
	return Message{
		Subject: fmt.Sprintf("[%s] Nova pergunta no grupo", r.plain(thread.Title)),
		HTML:    r.htmlBody(content, link),
		Text:    fmt.Sprintf("Nova pergunta: \"%s\"\n%s\nAcesse: %s", r.plain(thread.Title), r.plain(content), link),
	}
}

// Reply renders the message announcing a new post in an existing thread.
func (r *Renderer) Reply(thread models.Thread, post models.Post) Message {
	link := r.ThreadLink(thread.ID)
	return Message{
		Subject: fmt.Sprintf("[%s] Nova resposta", r.plain(thread.Title)),
		HTML:    r.htmlBody(post.Content, link),
		Text:    fmt.Sprintf("Nova resposta em \"%s\":\n%s\nAcesse: %s", r.plain(thread.Title), r.plain(post.Content), link),
	}
}

// Test renders the message sent by the test-notify command.
func (r *Renderer) Test(group models.Group) Message {
	body := fmt.Sprintf("Mensagem de teste do grupo %s.", r.plain(group.Name))
	return Message{
		Subject: fmt.Sprintf("[%s] Teste de notificação", r.plain(group.Name)),
		HTML:    "<p>" + html.EscapeString(body) + "</p>",
		Text:    body,
	}
}

func (r *Renderer) htmlBody(content, link string) string {
	return "<p>" + r.htmlPolicy.Sanitize(content) + "</p>" +
		`<p><a href="` + html.EscapeString(link) + `">` + openInForumLabel + "</a></p>"
}

// plain strips markup and decodes the entities bluemonday leaves behind.
func (r *Renderer) plain(s string) string {
	return strings.TrimSpace(html.UnescapeString(r.stripTagsPolicy.Sanitize(s)))
}

// PlainText converts an HTML body into the text/plain alternative of an email.
func PlainText(htmlBody string) (string, error) {
	text, err := html2text.FromString(htmlBody, html2text.Options{OmitLinks: false})
	if err != nil {
		return "", fmt.Errorf("failed to convert HTML to text: %w", err)
	}
	return text, nil
}
