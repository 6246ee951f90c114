package dialogue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Mission is the title/description pair returned by the mission generator.
type Mission struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Generator produces NPC dialogue and mission text. Implementations are
// asynchronous collaborators: the simulation fires requests and merges the
// result later, so failures must resolve to fallback text, never propagate.
type Generator interface {
	NPCDialogue(ctx context.Context, role, situation, playerAction string) (string, error)
	Mission(ctx context.Context) (Mission, error)
}

// FallbackLine is used whenever dialogue generation fails or is disabled.
const FallbackLine = "..."

// FallbackMission is used whenever mission generation fails or is disabled.
var FallbackMission = Mission{
	Title:       "Odd Job",
	Description: "Ask around downtown. Somebody always needs a driver.",
}

// Static always returns the fallbacks. It is the default generator when no
// service endpoint is configured.
type Static struct{}

func (Static) NPCDialogue(context.Context, string, string, string) (string, error) {
	return FallbackLine, nil
}

func (Static) Mission(context.Context) (Mission, error) {
	return FallbackMission, nil
}

// Config points the HTTP client at the external text service.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client calls the external dialogue/mission service over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a client; an empty base URL yields nil, letting callers
// fall back to Static.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		return nil
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

type dialogueRequest struct {
	Role         string `json:"role"`
	Situation    string `json:"situation"`
	PlayerAction string `json:"playerAction"`
}

type dialogueResponse struct {
	Text string `json:"text"`
}

// NPCDialogue requests a line for the given NPC role and situation. Every
// failure path returns FallbackLine alongside the error so callers can use
// the text directly.
func (c *Client) NPCDialogue(ctx context.Context, role, situation, playerAction string) (string, error) {
	if c == nil {
		return FallbackLine, nil
	}
	payload, err := json.Marshal(dialogueRequest{Role: role, Situation: situation, PlayerAction: playerAction})
	if err != nil {
		return FallbackLine, fmt.Errorf("encode dialogue request: %w", err)
	}

	var decoded dialogueResponse
	if err := c.post(ctx, "/dialogue", payload, &decoded); err != nil {
		return FallbackLine, err
	}
	if decoded.Text == "" {
		return FallbackLine, nil
	}
	return decoded.Text, nil
}

// Mission requests a generated mission; failures return FallbackMission.
func (c *Client) Mission(ctx context.Context) (Mission, error) {
	if c == nil {
		return FallbackMission, nil
	}
	var decoded Mission
	if err := c.post(ctx, "/mission", []byte("{}"), &decoded); err != nil {
		return FallbackMission, err
	}
	if decoded.Title == "" {
		return FallbackMission, nil
	}
	return decoded, nil
}

func (c *Client) post(ctx context.Context, path string, payload []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("call dialogue service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("dialogue service status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode dialogue response: %w", err)
	}
	return nil
}
