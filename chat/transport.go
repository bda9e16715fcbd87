// Package chat carries messages between the game engine and the chat
// platform. The engine only depends on the Transport contract; the
// websocket gateway in this package is one implementation of it.
package chat

import "context"

// Message is one incoming chat line on a channel.
type Message struct {
	Channel string
	Sender  string
	Name    string
	Text    string
}

// Transport is the engine's view of the chat platform.
type Transport interface {
	// Subscribe returns a live stream of the channel's incoming messages
	// and a cancel function that releases the subscription. The stream is
	// closed when the subscription ends.
	Subscribe(channel string) (<-chan Message, func())

	SendText(ctx context.Context, channel, text string) error
	SendImage(ctx context.Context, channel, name string, data []byte) error

	// SelfID identifies the engine's own outgoing messages so loops can
	// ignore them.
	SelfID() string
}
