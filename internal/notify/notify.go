// Package notify delivers notifications about created entities.
package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"os"
	"strconv"
	"time"

	"spielapi/internal/platform/logger"
)

type sendFunc func(ctx context.Context, addr, from string, to []string, msg []byte) error

// defaultSendTimeout bounds a delivery when ctx carries no deadline.
const defaultSendTimeout = 30 * time.Second

// Mailer sends HTML mails over plain SMTP.
type Mailer struct {
	addr string
	from string
	log  *logger.Logger
	send sendFunc
}

func NewMailer(host string, port int, from string, log *logger.Logger) *Mailer {
	if log == nil {
		log = logger.NewNop()
	}
	return &Mailer{
		addr: net.JoinHostPort(host, strconv.Itoa(port)),
		from: from,
		log:  log,
		send: deliver,
	}
}

// Send delivers the mail. The whole SMTP exchange is bound to ctx.
func (m *Mailer) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := buildMessage(m.from, to, subject, body, time.Now())
	m.log.Debug("sending mail", "to", to, "subject", subject)
	if err := m.send(ctx, m.addr, m.from, []string{to}, msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	m.log.Debug("mail sent", "to", to)
	return nil
}

// deliver runs one SMTP transaction. The connection deadline follows ctx and
// cancelling ctx aborts any blocked read or write.
func deliver(ctx context.Context, addr, from string, to []string, msg []byte) (err error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultSendTimeout)
		defer cancel()
	}
	deadline, _ := ctx.Deadline()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := conn.SetDeadline(deadline); err != nil {
		return err
	}
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})
	defer stop()
	defer func() {
		if err == nil {
			return
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("%w: %v", ctxErr, err)
		} else if errors.Is(err, os.ErrDeadlineExceeded) {
			err = fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
		}
	}()

	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return err
	}
	c, err := smtp.NewClient(conn, host)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}

func buildMessage(from, to, subject, body string, now time.Time) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	fmt.Fprintf(&b, "Date: %s\r\n", now.Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=utf-8\r\n")
	b.WriteString("X-Provided-By: spielapi\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	b.WriteString("\r\n")
	return b.Bytes()
}

// LogNotifier only logs. It is used when mail is disabled.
type LogNotifier struct {
	log *logger.Logger
}

func NewLogNotifier(log *logger.Logger) *LogNotifier {
	if log == nil {
		log = logger.NewNop()
	}
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Send(_ context.Context, to, subject, body string) error {
	n.log.Info("notification", "to", to, "subject", subject, "body", body)
	return nil
}
