package mailer

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"time"

	"otp-auth/pkg/utils"
)

type SMTPSender struct {
	addr     string
	host     string
	from     mail.Address
	auth     smtp.Auth
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPSender(config utils.EmailConfig) *SMTPSender {
	var auth smtp.Auth
	if config.User != "" {
		auth = smtp.PlainAuth("", config.User, config.Password, config.Host)
	}

	return &SMTPSender{
		addr:     net.JoinHostPort(config.Host, strconv.Itoa(config.Port)),
		host:     config.Host,
		from:     mail.Address{Name: config.FromName, Address: config.From},
		auth:     auth,
		sendMail: smtp.SendMail,
	}
}

func (s *SMTPSender) Send(ctx context.Context, to, subject, html string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := s.compose(to, subject, html)
	if err := s.sendMail(s.addr, s.auth, s.from.Address, []string{to}, msg); err != nil {
		return fmt.Errorf("send mail via %s: %w", s.host, err)
	}

	return nil
}

func (s *SMTPSender) compose(to, subject, html string) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", s.from.String())
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(html)
	return b.Bytes()
}
