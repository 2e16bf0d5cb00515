package emails

import (
	"fmt"
	"html"
	"time"
)

const (
	themePrimary   = "#0F3D5E"
	themeAccent    = "#F97316"
	themeTextMain  = "#1F2937"
	themeTextMuted = "#6B7280"
	themeBgBody    = "#F3F4F6"
	themeWhite     = "#FFFFFF"
	supportEmail   = "suport@nexar.ro"
)

// EmailLayout wraps content in the shared Nexar HTML frame.
func EmailLayout(contentHTML string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="ro">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Nexar</title>
  <style>
    body { margin: 0; padding: 0; width: 100%% !important; background-color: %s; }
    body, td, p, a { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Helvetica, Arial, sans-serif; color: %s; }
    .content-body p { margin: 0 0 20px 0; font-size: 16px; line-height: 1.6; }
    .content-body h1 { font-size: 22px; margin: 0 0 20px 0; color: %s; }
    .nexar-button { display: inline-block; background-color: %s; color: #ffffff !important; padding: 12px 32px; text-decoration: none !important; border-radius: 6px; font-weight: 600; }
    .footer-text { color: %s; font-size: 13px; line-height: 1.5; }
  </style>
</head>
<body style="margin: 0; padding: 0; background-color: %s;">
  <table role="presentation" width="100%%" border="0" cellspacing="0" cellpadding="0">
    <tr>
      <td align="center" style="padding: 40px 0;">
        <table role="presentation" width="600" border="0" cellspacing="0" cellpadding="0" style="width: 600px; background-color: %s; border-radius: 8px;">
          <tr><td align="center" style="padding: 40px 0 24px 0; font-size: 28px; font-weight: 800; color: %s;">NEXAR</td></tr>
          <tr><td class="content-body" style="padding: 0 48px 30px 48px;">%s</td></tr>
          <tr>
            <td align="center" style="padding: 24px 48px 32px 48px;">
              <p class="footer-text">Ai nevoie de ajutor? Scrie-ne la <a href="mailto:%s">%s</a></p>
              <p class="footer-text">© %d Nexar. Toate drepturile rezervate.</p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`,
		themeBgBody, themeTextMain, themePrimary, themeAccent, themeTextMuted,
		themeBgBody, themeWhite, themePrimary, contentHTML,
		supportEmail, supportEmail, time.Now().Year())
}

// EscapeHTML escapes HTML specials for safe interpolation.
func EscapeHTML(s string) string {
	return html.EscapeString(s)
}

func greetingName(name string) string {
	if name == "" {
		return "acolo"
	}
	return EscapeHTML(name)
}

func confirmationContent(name, link string) string {
	return fmt.Sprintf(`
    <h1>Bine ai venit pe Nexar, %s!</h1>
    <p>Mai ai un singur pas: confirmă adresa de email pentru a-ți activa contul și a publica primul anunț.</p>
    <center><a href="%s" class="nexar-button">Confirmă emailul</a></center>
    <p style="margin-top: 20px; font-size: 14px; color: #666;">Dacă nu tu ai creat acest cont, poți ignora acest mesaj.</p>
`, greetingName(name), EscapeHTML(link))
}

func passwordResetContent(name, link string) string {
	return fmt.Sprintf(`
    <h1>Resetare parolă</h1>
    <p>Salut %s, am primit o cerere de resetare a parolei pentru contul tău Nexar.</p>
    <center><a href="%s" class="nexar-button">Setează o parolă nouă</a></center>
    <p style="margin-top: 20px; font-size: 14px; color: #666;">Linkul poate fi folosit o singură dată. Dacă nu ai cerut resetarea, ignoră acest email.</p>
`, greetingName(name), EscapeHTML(link))
}

func accountSuspendedContent(name string) string {
	return fmt.Sprintf(`
    <h1>Contul tău a fost suspendat</h1>
    <p>Salut %s, contul tău Nexar a fost suspendat de un administrator, iar anunțurile tale nu mai pot fi gestionate.</p>
    <p>Pentru detalii, răspunde la acest email sau contactează echipa de suport.</p>
`, greetingName(name))
}
