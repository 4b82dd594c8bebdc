// Package transport maintains the live chat connection to the manager.
//
// A Channel owns one websocket to the manager's /webWs endpoint. It tracks
// two pieces of state: whether the socket is open, and whether the manager
// reports its YoClaw runtime as attached. Only when both hold can messages
// be sent.
//
// # Connection lifecycle
//
//	Idle --Connect--> Connecting --dial ok--> Open
//	                      |                    |
//	                  dial error            read error
//	                      v                    v
//	                    Closed <---------------+
//	                      |
//	               after reconnect delay
//	                      v
//	                  Connecting
//
// Reconnection uses a fixed delay with no backoff and no attempt cap. A
// single supervisor goroutine owns the dial and the reconnect timer, so at
// most one attempt is in flight. Close is the only way to stop it.
//
// # Inbound frames
//
// Frames are decoded once by Decode into one of AssistantReply,
// RelayedMessage, RuntimeStatus or Unknown and delivered to handlers in
// arrival order on the read goroutine. Handlers must not call Close.
package transport
