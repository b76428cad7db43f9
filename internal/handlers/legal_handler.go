package handlers

import (
	"html"
	"strings"

	"github.com/gofiber/fiber/v2"
)

type LegalHandler struct {
	appName      string
	supportEmail string
}

func NewLegalHandler(appName string) *LegalHandler {
	slug := strings.ToLower(strings.ReplaceAll(appName, " ", ""))
	return &LegalHandler{appName: html.EscapeString(appName), supportEmail: "support@" + slug + ".app"}
}

const legalHead = `<meta name="viewport" content="width=device-width, initial-scale=1">
<style>body{font-family:-apple-system,BlinkMacSystemFont,sans-serif;max-width:800px;margin:0 auto;padding:20px;color:#333}h1{color:#1a1a1a}h2{color:#444;margin-top:30px}</style>`

func (h *LegalHandler) PrivacyPolicy(c *fiber.Ctx) error {
	return c.Type("html").SendString(`<!DOCTYPE html>
<html><head><title>Privacy Policy - ` + h.appName + `</title>
` + legalHead + `
</head><body>
<h1>Privacy Policy</h1>
<p>Last updated: May 2026</p>
<h2>Information We Collect</h2>
<p>We collect your email address (unless you use the app as a guest), your optional birth date, the readings you request, and photos you upload for coffee, palm or face readings.</p>
<h2>How We Use Your Information</h2>
<p>Your data is used solely to operate ` + h.appName + `, authenticate your account, keep your karma balance and reading history, and improve our services.</p>
<h2>Data Storage</h2>
<p>Your data is stored securely on encrypted servers. We do not sell your personal information to third parties.</p>
<h2>Account Deletion</h2>
<p>You can delete your account at any time from the app settings. This permanently removes your readings, karma history, activity calendar and uploaded photos.</p>
<h2>Contact</h2>
<p>For questions about this policy, contact us at ` + h.supportEmail + `</p>
</body></html>`)
}

func (h *LegalHandler) TermsOfService(c *fiber.Ctx) error {
	return c.Type("html").SendString(`<!DOCTYPE html>
<html><head><title>Terms of Service - ` + h.appName + `</title>
` + legalHead + `
</head><body>
<h1>Terms of Service</h1>
<p>Last updated: May 2026</p>
<h2>Acceptance</h2>
<p>By using ` + h.appName + `, you agree to these terms.</p>
<h2>Entertainment Only</h2>
<p>Readings are generated for entertainment and are not professional advice.</p>
<h2>Karma</h2>
<p>Karma is an in-app balance with no cash value. It cannot be transferred, sold or refunded.</p>
<h2>User Conduct</h2>
<p>You agree not to share offensive, illegal, or harmful content. We reserve the right to moderate and remove content that violates our guidelines.</p>
<h2>Termination</h2>
<p>We may suspend or terminate accounts that violate these terms.</p>
<h2>Contact</h2>
<p>For questions, contact us at ` + h.supportEmail + `</p>
</body></html>`)
}
