// internal/handlers/ws_codes.go
package handlers

// Application close codes (3000-3999) sent by the room socket.
const (
	UnsupportedFrameError = 3000 // Client sent a binary frame; the protocol is JSON text only.
)
