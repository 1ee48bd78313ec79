package mail

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/isgnet/devreg/internal/render"
)

func SendPasswordResetCode(sender MailSender, toEmail string, username string, resetCode string, expireMinutes int) error {
	params := fiber.Map{
		"username":      username,
		"resetCode":     resetCode,
		"expireMinutes": expireMinutes,
	}
	body, err := render.RenderHTML("mail/reset-code", params)
	if err != nil {
		return err
	}
	return sender.Send(&Message{
		To:      []string{toEmail},
		Subject: fmt.Sprintf("%s is your password reset code", resetCode),
		Body:    body,
		IsHTML:  true,
	})
}
