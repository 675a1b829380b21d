package email

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/qs3c/salesdash_go_server/config"
)

type Service struct {
	cfg *config.EmailConfig
}

func NewService(cfg *config.EmailConfig) *Service {
	return &Service{cfg: cfg}
}

// SendWeeklyReport 发送周报邮件
func (s *Service) SendWeeklyReport(to []string, weekLabel, reportURL string) error {
	subject := fmt.Sprintf("销售周报 %s", weekLabel)
	body := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h2 style="color: #2563eb;">销售周报</h2>
        <p>您好，</p>
        <p>%s 的销售漏斗周报已生成，点击下方按钮下载：</p>
        <div style="text-align: center; margin: 30px 0;">
            <a href="%s" style="background-color: #2563eb; color: white; padding: 12px 30px; text-decoration: none; border-radius: 5px; display: inline-block;">下载周报</a>
        </div>
        <p>或者复制以下链接到浏览器：</p>
        <p style="background-color: #f3f4f6; padding: 10px; word-break: break-all;">%s</p>
        <hr style="border: none; border-top: 1px solid #e5e7eb; margin: 20px 0;">
        <p style="color: #6b7280; font-size: 12px;">此邮件由系统自动发送，请勿回复。</p>
    </div>
</body>
</html>
`, weekLabel, reportURL, reportURL)

	return s.sendHTML(to, subject, body)
}

// SendSyncFailure 发送同步失败告警邮件
func (s *Service) SendSyncFailure(to []string, errMsg string) error {
	subject := "CRM 同步失败告警"
	body := fmt.Sprintf("CRM 数据同步失败：\r\n\r\n%s\r\n", errMsg)
	return s.sendPlain(to, subject, body)
}

// sendHTML 发送 HTML 邮件
func (s *Service) sendHTML(to []string, subject, body string) error {
	return s.send(to, subject, body, "text/html; charset=UTF-8")
}

// sendPlain 发送纯文本邮件
func (s *Service) sendPlain(to []string, subject, body string) error {
	return s.send(to, subject, body, "text/plain; charset=UTF-8")
}

func (s *Service) send(to []string, subject, body, contentType string) error {
	headers := make(map[string]string)
	headers["From"] = s.cfg.From
	headers["To"] = strings.Join(to, ", ")
	headers["Subject"] = subject
	headers["MIME-Version"] = "1.0"
	headers["Content-Type"] = contentType

	var msg strings.Builder
	for k, v := range headers {
		msg.WriteString(fmt.Sprintf("%s: %s\r\n", k, v))
	}
	msg.WriteString("\r\n")
	msg.WriteString(body)

	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.SMTPHost)
	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)

	return smtp.SendMail(addr, auth, s.cfg.From, to, []byte(msg.String()))
}
