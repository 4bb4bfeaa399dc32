package email

import (
	"bytes"
	"context"
	"embed"
	"html/template"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

//go:embed templates/*.html
var templateFS embed.FS

// Mailer 邮件发送协作方，可能失败，由调用侧决定是否吞掉
type Mailer interface {
	Send(ctx context.Context, to, subject, html string) error
}

type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer(host string, port int, username, password, from string) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, html string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", html)
	return m.dialer.DialAndSend(msg)
}

// Service 渲染模板并拼接前端落地链接
type Service struct {
	mailer      Mailer
	frontendURL string
	templates   *template.Template
	log         *zap.Logger
}

func NewService(mailer Mailer, frontendURL string, log *zap.Logger) (*Service, error) {
	tpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Service{mailer: mailer, frontendURL: frontendURL, templates: tpl, log: log}, nil
}

func (s *Service) render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (s *Service) SendVerificationEmail(ctx context.Context, to, verificationToken string) error {
	html, err := s.render("verification.html", map[string]string{
		"VerificationURL": s.frontendURL + "/verify-email?token=" + verificationToken,
	})
	if err != nil {
		return err
	}
	if err := s.mailer.Send(ctx, to, "Verify Your Email Address", html); err != nil {
		return err
	}
	s.log.Info("verification email sent", zap.String("to", to))
	return nil
}

func (s *Service) SendPasswordResetEmail(ctx context.Context, to, resetToken string) error {
	html, err := s.render("password_reset.html", map[string]string{
		"ResetURL": s.frontendURL + "/reset-password?token=" + resetToken,
	})
	if err != nil {
		return err
	}
	if err := s.mailer.Send(ctx, to, "Password Reset Request", html); err != nil {
		return err
	}
	s.log.Info("password reset email sent", zap.String("to", to))
	return nil
}

func (s *Service) SendWelcomeEmail(ctx context.Context, to, name string) error {
	html, err := s.render("welcome.html", map[string]string{"Name": name})
	if err != nil {
		return err
	}
	if err := s.mailer.Send(ctx, to, "Welcome Aboard! ^_~", html); err != nil {
		return err
	}
	s.log.Info("welcome email sent", zap.String("to", to))
	return nil
}
