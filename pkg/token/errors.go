package token

import "errors"

// ErrNoToken is returned when no access token is available.
var ErrNoToken = errors.New("token: no access token available")
