package websocket

import "errors"

var (
	ErrClientQueueFull = errors.New("client message queue is full")
	ErrClientClosed    = errors.New("client connection is closed")
	ErrInvalidEvent    = errors.New("invalid event format")
	ErrAlreadyBound    = errors.New("connection is already bound to a room")
)
