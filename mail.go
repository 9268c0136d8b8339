package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"log"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/ses"
	"github.com/pkg/errors"
)

const contactSubject = "New Message"

type ContactMessage struct {
	Name    string
	Email   string
	Phone   string
	Message string
}

func (m ContactMessage) Body() string {
	return fmt.Sprintf("Name: %s\nEmail: %s\nPhone: %s\nMessage: %s", m.Name, m.Email, m.Phone, m.Message)
}

// Notifier delivers contact form submissions to the site owner.
type Notifier interface {
	Notify(ctx context.Context, msg ContactMessage) error
}

func newNotifier(cfg Config) (Notifier, error) {
	switch cfg.MailTransport {
	case "smtp":
		if cfg.MailAddress == "" {
			return nil, errors.New("MAIL_ADDRESS must be set for the smtp mail transport")
		}
		return &smtpNotifier{
			host:     cfg.SMTPHost,
			port:     cfg.SMTPPort,
			username: cfg.MailAddress,
			password: cfg.MailPassword,
			mailbox:  cfg.MailAddress,
			timeout:  10 * time.Second,
		}, nil
	case "ses":
		if cfg.MailAddress == "" {
			return nil, errors.New("MAIL_ADDRESS must be set for the ses mail transport")
		}
		sess, err := session.NewSession(&aws.Config{Region: aws.String(cfg.AWSRegion)})
		if err != nil {
			return nil, errors.Wrap(err, "creating AWS session")
		}
		return &sesNotifier{svc: ses.New(sess), mailbox: cfg.MailAddress}, nil
	case "log":
		log.Println("WARNING: mail transport is 'log', contact messages will only be logged")
		return logNotifier{}, nil
	}
	return nil, errors.Errorf("unknown mail transport %q", cfg.MailTransport)
}

// smtpNotifier sends from the configured mailbox to itself over an
// authenticated submission session.
type smtpNotifier struct {
	host     string
	port     string
	username string
	password string
	mailbox  string
	timeout  time.Duration
}

func (n *smtpNotifier) Notify(ctx context.Context, msg ContactMessage) error {
	if n.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(n.host, n.port))
	if err != nil {
		return errors.Wrap(err, "dialing smtp server")
	}
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	c, err := smtp.NewClient(conn, n.host)
	if err != nil {
		conn.Close()
		return errors.Wrap(err, "starting smtp session")
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: n.host}); err != nil {
			return errors.Wrap(err, "starting tls")
		}
	}

	if n.password != "" {
		if err := c.Auth(smtp.PlainAuth("", n.username, n.password, n.host)); err != nil {
			return errors.Wrap(err, "authenticating")
		}
	}

	if err := c.Mail(n.mailbox); err != nil {
		return errors.Wrap(err, "setting sender")
	}
	if err := c.Rcpt(n.mailbox); err != nil {
		return errors.Wrap(err, "setting recipient")
	}

	wc, err := c.Data()
	if err != nil {
		return errors.Wrap(err, "opening message body")
	}
	if _, err := wc.Write(n.rawMessage(msg)); err != nil {
		wc.Close()
		return errors.Wrap(err, "writing message")
	}
	if err := wc.Close(); err != nil {
		return errors.Wrap(err, "sending message")
	}

	return errors.Wrap(c.Quit(), "closing smtp session")
}

func (n *smtpNotifier) rawMessage(msg ContactMessage) []byte {
	var sb strings.Builder
	fmt.Fprintf(&sb, "From: %s\r\n", n.mailbox)
	fmt.Fprintf(&sb, "To: %s\r\n", n.mailbox)
	fmt.Fprintf(&sb, "Subject: %s\r\n", contactSubject)
	sb.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	sb.WriteString(strings.ReplaceAll(msg.Body(), "\n", "\r\n"))
	sb.WriteString("\r\n")
	return []byte(sb.String())
}

type sesNotifier struct {
	svc     *ses.SES
	mailbox string
}

func (n *sesNotifier) Notify(ctx context.Context, msg ContactMessage) error {
	input := &ses.SendEmailInput{
		Destination: &ses.Destination{
			ToAddresses: []*string{aws.String(n.mailbox)},
		},
		Message: &ses.Message{
			Body: &ses.Body{
				Text: &ses.Content{
					Charset: aws.String("UTF-8"),
					Data:    aws.String(msg.Body()),
				},
			},
			Subject: &ses.Content{
				Charset: aws.String("UTF-8"),
				Data:    aws.String(contactSubject),
			},
		},
		Source: aws.String(n.mailbox),
	}

	_, err := n.svc.SendEmailWithContext(ctx, input)
	return errors.Wrap(err, "sending email via SES")
}

type logNotifier struct{}

func (logNotifier) Notify(_ context.Context, msg ContactMessage) error {
	log.Printf("contact message (not sent):\nSubject: %s\n%s", contactSubject, msg.Body())
	return nil
}
