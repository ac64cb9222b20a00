package domain

import "errors"

var (
	ErrNoCredential      = errors.New("credential absent")
	ErrNotConnected      = errors.New("no active connection")
	ErrConnectionClosed  = errors.New("connection closed")
	ErrChannelNotJoined  = errors.New("channel not joined")
	ErrSubscribeRejected = errors.New("subscription rejected by broadcaster")
	ErrInvalidSubject    = errors.New("invalid subject id")
)
