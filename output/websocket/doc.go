// Package websocket broadcasts layout frames to WebSocket clients.
//
// The component subscribes to the engine's frame subject on NATS and
// fans each frame out to every connected client as a text message.
// Clients are purely consumers: inbound messages are discarded. Each
// client gets a small drop-oldest pending buffer and its own writer
// goroutine, so one slow client can never stall the broadcast path. A
// newly connected client immediately receives the most recent frame.
//
// Connection hygiene follows the usual WebSocket pattern: the server
// pings every client on an interval, a pong handler refreshes the read
// deadline, and a connection that stops answering is reaped by its
// reader hitting the deadline.
package websocket
