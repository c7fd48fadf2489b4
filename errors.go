package questnotify

import "errors"

var (
	ErrAdminDisabled = errors.New("questnotify: admin notifications are not enabled")
	ErrUnknownView   = errors.New("questnotify: unknown view")
)
