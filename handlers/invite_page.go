// handlers/invite_page.go
package handlers

import (
	"fmt"
	"html"

	"carrierwave-activities/services"

	"github.com/gofiber/fiber/v2"
)

// SetupInvitePage serves the browser landing page for friend invite links.
// It shows the inviter's callsign when the token is still usable and a deep
// link to open the invite in the app. baseURL is the public address these
// links are shared under, used for the og:url tag.
func SetupInvitePage(app *fiber.App, inviteService *services.InviteService, baseURL string) {
	app.Get("/invite/:token", func(c *fiber.Ctx) error {
		token := c.Params("token")

		var callsign string
		if cs, err := inviteService.InviterCallsign(token); err == nil {
			callsign = cs
		}

		c.Type("html")
		return c.SendString(renderInvitePage(callsign, token, baseURL))
	})
}

func renderInvitePage(callsign, token, baseURL string) string {
	token = html.EscapeString(token)
	deepLink := "carrierwave://invite/" + token

	title := "Friend invite on Carrier Wave"
	heading := "You've been invited!"
	description := "Open this link in Carrier Wave to accept this friend invite."
	if callsign != "" {
		cs := html.EscapeString(callsign)
		title = fmt.Sprintf("%s wants to be friends on Carrier Wave", cs)
		heading = fmt.Sprintf("%s wants to be friends!", cs)
		description = fmt.Sprintf("Open this link in Carrier Wave to add %s as a friend.", cs)
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <title>%[1]s</title>
    <meta property="og:title" content="%[1]s">
    <meta property="og:description" content="%[2]s">
    <meta property="og:url" content="%[5]s/invite/%[6]s">
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body {
            font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif;
            background: #0f172a;
            color: #e2e8f0;
            display: flex;
            align-items: center;
            justify-content: center;
            min-height: 100vh;
            padding: 1rem;
        }
        .card {
            background: #1e293b;
            border-radius: 1rem;
            padding: 2.5rem 2rem;
            max-width: 400px;
            width: 100%%;
            text-align: center;
        }
        .icon {
            font-size: 3rem;
            margin-bottom: 1rem;
        }
        h1 {
            font-size: 1.25rem;
            font-weight: 600;
            margin-bottom: 0.75rem;
            color: #f8fafc;
        }
        p {
            font-size: 0.95rem;
            line-height: 1.5;
            color: #94a3b8;
            margin-bottom: 1.5rem;
        }
        .open-btn {
            display: inline-block;
            background: #3b82f6;
            color: #fff;
            text-decoration: none;
            font-weight: 600;
            font-size: 1rem;
            padding: 0.75rem 1.5rem;
            border-radius: 0.5rem;
            transition: background 0.15s;
        }
        .open-btn:hover {
            background: #2563eb;
        }
        .footer {
            margin-top: 1.5rem;
            font-size: 0.8rem;
            color: #64748b;
        }
    </style>
</head>
<body>
    <div class="card">
        <div class="icon">&#128225;</div>
        <h1>%[3]s</h1>
        <p>%[2]s</p>
        <a class="open-btn" href="%[4]s">Open in Carrier Wave</a>
        <div class="footer">Carrier Wave &mdash; Ham Radio Challenges</div>
    </div>
</body>
</html>`, title, description, heading, deepLink, baseURL, token)
}
