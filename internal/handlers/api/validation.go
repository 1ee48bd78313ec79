package api

import (
	"net/mail"
	"net/netip"
	"regexp"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/isgnet/devreg/params"
)

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

const (
	usernameMinLength = 3
	usernameMaxLength = 30
	minPort           = 1
	maxPort           = 65535
)

func validateUsername(errs *fieldErrors, username string) {
	switch {
	case username == "":
		errs.add("username", "Username is required.")
	case len(username) < usernameMinLength || len(username) > usernameMaxLength:
		errs.add("username", "Username must be between 3 and 30 characters.")
	case !usernameRegex.MatchString(username):
		errs.add("username", "Username can only contain letters, numbers, and underscores.")
	}
}

func validateEmail(errs *fieldErrors, email string) {
	if _, err := mail.ParseAddress(email); err != nil {
		errs.add("email", "Invalid email address.")
	}
}

func validatePassword(errs *fieldErrors, field string, password string) {
	if len(password) < params.PasswordMinLength {
		errs.add(field, "Password must be at least 8 characters long.")
	}
}

func validateUID(errs *fieldErrors, uid string) {
	if uid == "" {
		errs.add("uid", "uid is required.")
	}
}

func validateIPAddress(errs *fieldErrors, ip string) {
	if ip == "" {
		errs.add("ip_address", "ip_address is required.")
		return
	}
	if _, err := netip.ParseAddr(ip); err != nil {
		errs.add("ip_address", "ip_address must be a valid IPv4 or IPv6 address.")
	}
}

func validatePort(errs *fieldErrors, port int) {
	if port < minPort || port > maxPort {
		errs.add("port", "port must be between 1 and 65535.")
	}
}

func parseID(ctx *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(ctx.Params(name), 10, 64)
	if err != nil || id == 0 {
		var errs fieldErrors
		errs.add(name, name+" must be a positive integer.")
		return 0, errs.err()
	}
	return uint(id), nil
}
