package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// session token on internal requests.
const AccessTokenHeaderName = "access_token"

// SessionCookieName is the name of the HTTP-only cookie holding the session token.
const SessionCookieName = "token"
