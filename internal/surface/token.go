package surface

import (
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/parley-dev/parley/internal/logger"
)

// inspectMeetingToken looks at the `t` query parameter some conversation
// URLs carry: a meeting token minted by the media sub-provider. The token
// is parsed without verification, purely as a diagnostic; an expired token
// explains a surface that loads and then refuses to connect. Mounting
// proceeds regardless of the outcome.
func inspectMeetingToken(rawURL string) {
	exp, ok := meetingTokenExpiry(rawURL)
	if ok && exp.Before(time.Now()) {
		logger.Warn("conversation URL carries an expired meeting token", "expired_at", exp.Format(time.RFC3339))
	}
}

// meetingTokenExpiry extracts the expiry claim from the URL's meeting
// token, if one is present and decodes as a JWT.
func meetingTokenExpiry(rawURL string) (time.Time, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return time.Time{}, false
	}
	raw := u.Query().Get("t")
	if raw == "" {
		return time.Time{}, false
	}

	token, _, err := jwt.NewParser().ParseUnverified(raw, jwt.MapClaims{})
	if err != nil {
		logger.Debug("conversation URL token is not a parseable JWT", "error", err)
		return time.Time{}, false
	}

	exp, err := token.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
