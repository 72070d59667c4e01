package meridian

import "embed"

// EmailFS carries the email template groups shipped with the binary.
//
//go:embed templates/emails
var EmailFS embed.FS
