/*
Package channel stores the shared documents served by the relay.

A channel is one row: its code and the whole JSON document. Replace
overwrites the document unconditionally; the relay offers no versioning
and no locking, the last writer wins.
*/
package channel

import (
	"context"
	"encoding/json"
)

// Store persists channel documents.
type Store interface {
	// Create inserts a new channel holding doc. It fails when the code
	// is already taken.
	Create(ctx context.Context, code string, doc json.RawMessage) error

	// Get returns the document of the given channel, or (nil, nil) when
	// the channel does not exist.
	Get(ctx context.Context, code string) (json.RawMessage, error)

	// Replace overwrites the document of an existing channel.
	Replace(ctx context.Context, code string, doc json.RawMessage) error
}
