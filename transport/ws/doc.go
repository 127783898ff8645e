// Package ws serves a rampart engine over WebSocket.
//
// Every text frame is a JSON-RPC 2.0 request or batch. The session cookie
// is read from the handshake request; cookies issued later (login, logout)
// are delivered as a "set_cookie" notification whose params hold the
// Set-Cookie header value, and are remembered for the life of the socket.
//
// Besides the methods in the connection's snapshot, every connection may
// call the pub/sub built-ins get_methods, get_topics, get_subscriptions,
// subscribe and unsubscribe. Topic publications arrive as notifications
// whose method is the topic name.
package ws
