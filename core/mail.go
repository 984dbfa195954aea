package core

import (
	"bytes"
	"fmt"
	htmltmpl "html/template"
	"io/fs"
	"net/mail"
	texttmpl "text/template"

	"github.com/pkg/errors"
)

var (
	textTemplates *texttmpl.Template
	htmlTemplates *htmltmpl.Template
)

type (
	EmailMessage struct {
		To      []mail.Address
		Subject string
		BodyStr string // simple text/plain, non-templated content

		// templated contents
		TemplateName string // without ext
		TemplateData interface{}
		TextContent  string
		HTMLContent  string
	}

	// TemplateContext wraps the data passed to email templates.
	TemplateContext struct {
		FrontendBaseURL string
		Data            interface{}
	}

	// EmailService is any service that can send emails.
	EmailService interface {
		// SendMessages sends messages concurrently.
		SendMessages(messages ...*EmailMessage)
	}
)

// ParseEmailTemplates parses all email templates found in fsys under "templates/email".
// It must be called once at application start-up.
func ParseEmailTemplates(fsys fs.FS) error {
	var err error
	if textTemplates, err = texttmpl.ParseFS(fsys, "templates/email/*.txt"); err != nil {
		return errors.Wrap(err, "parsing text email templates")
	}
	if htmlTemplates, err = htmltmpl.ParseFS(fsys, "templates/email/*.html"); err != nil {
		return errors.Wrap(err, "parsing html email templates")
	}
	return nil
}

// Render renders the message's TemplateName into its TextContent and HTMLContent.
func (msg *EmailMessage) Render(conf *Config) error {
	if msg.TemplateName == "" {
		msg.TextContent = msg.BodyStr
		return nil
	}
	data := TemplateContext{
		FrontendBaseURL: conf.FrontendBaseURL,
		Data:            msg.TemplateData,
	}

	var txt bytes.Buffer
	if err := textTemplates.ExecuteTemplate(&txt, msg.TemplateName+".txt", data); err != nil {
		return errors.Wrapf(err, "executing template %s.txt", msg.TemplateName)
	}
	msg.TextContent = txt.String()

	var html bytes.Buffer
	if err := htmlTemplates.ExecuteTemplate(&html, msg.TemplateName+".html", data); err != nil {
		return errors.Wrapf(err, "executing template %s.html", msg.TemplateName)
	}
	msg.HTMLContent = html.String()
	return nil
}

func (msg *EmailMessage) HasRecipients() bool { return len(msg.To) > 0 }

func (msg *EmailMessage) HasContent() bool {
	return msg.TextContent != "" || msg.HTMLContent != "" || msg.BodyStr != ""
}

func (msg *EmailMessage) String() string {
	return fmt.Sprintf("EmailMessage(to=%v, subject=%q)", msg.To, msg.Subject)
}
