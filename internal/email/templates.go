package email

import (
	"bytes"
	"fmt"
	"html/template"
)

type welcomeData struct {
	DomainName string
}

var welcomeTemplate = template.Must(template.New("welcome").Parse(`
<html>
  <body style="font-family: sans-serif; color: #1a1a1a;">
    <h2>Welcome to Konduktv</h2>
    <p>Your account is ready. We created your first domain,
    <strong>{{.DomainName}}</strong>, and made you its manager.</p>
    <p>You can invite team members and manage your domain from the dashboard.</p>
  </body>
</html>`))

var goodbyeTemplate = template.Must(template.New("goodbye").Parse(`
<html>
  <body style="font-family: sans-serif; color: #1a1a1a;">
    <h2>Your account has been deleted</h2>
    <p>Your Konduktv account, its domains, and all team memberships have been
    removed. This cannot be undone.</p>
    <p>If this was not you, contact support immediately.</p>
  </body>
</html>`))

func renderTemplate(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}
