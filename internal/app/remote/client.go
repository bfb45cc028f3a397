/*
Package remote wraps the relay's whole-document channel protocol.

Three operations exist: create a channel from an initial document, fetch
the full document, and replace it wholesale. There are no partial updates
and no preconditions; replace unconditionally clobbers whatever the relay
currently stores (last-writer-wins). A fetch that finds no channel is not
an error: it reports the document as absent, and every caller treats
"absent" exactly like "no channel configured".
*/
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"nexchat/internal/app/model"
	"nexchat/internal/pkg/logx"
)

// requestTimeout bounds every round trip to the relay. One network round
// trip is the longest anything in the engine is allowed to block.
const requestTimeout = 10 * time.Second

// Client talks to one relay's channel API.
type Client struct {
	baseURL string
	http    *http.Client
	logger  zerolog.Logger
}

// NewClient returns a Client for the relay at baseURL (no trailing slash).
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: requestTimeout},
		logger:  logx.Component("remote"),
	}
}

// createResponse is the success envelope of the channel create endpoint.
type createResponse struct {
	Code int `json:"code"`
	Data struct {
		Channel string `json:"channel"`
	} `json:"data"`
}

// Create registers a new channel seeded with the given initial document
// and returns its channel code.
func (c *Client) Create(ctx context.Context, doc *model.GlobalDocument) (string, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to encode initial document: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/channel", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("channel create request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("channel create returned HTTP %d", res.StatusCode)
	}

	var parsed createResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode channel create response: %w", err)
	}
	if parsed.Data.Channel == "" {
		return "", fmt.Errorf("channel create response carried no channel code")
	}

	c.logger.Info().Str("channel", parsed.Data.Channel).Msg("Channel created")
	return parsed.Data.Channel, nil
}

// Fetch retrieves the full shared document of the given channel.
// A missing channel yields (nil, nil): absent, not an error.
func (c *Client) Fetch(ctx context.Context, channel string) (*model.GlobalDocument, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.channelURL(channel), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("channel fetch request failed: %w", err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		// fall through to decode
	case http.StatusNotFound:
		return nil, nil
	default:
		return nil, fmt.Errorf("channel fetch returned HTTP %d", res.StatusCode)
	}

	doc := &model.GlobalDocument{}
	if err := json.NewDecoder(res.Body).Decode(doc); err != nil {
		return nil, fmt.Errorf("failed to decode shared document: %w", err)
	}
	doc.Normalize()

	return doc, nil
}

// Replace overwrites the channel's document with doc. No version check,
// no merge: the last writer wins and unseen concurrent changes are lost.
func (c *Client) Replace(ctx context.Context, channel string, doc *model.GlobalDocument) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.channelURL(channel), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("channel replace request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("channel replace returned HTTP %d", res.StatusCode)
	}

	return nil
}

func (c *Client) channelURL(channel string) string {
	return c.baseURL + "/api/channel/" + channel
}
