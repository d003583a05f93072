// Package notify is the client side of the push-notification relay. The
// relay re-reads the claim and re-checks authorization itself, so the
// dispatcher only sends the claim id and a bearer token identifying the
// acting user. Dispatch is best-effort: callers get an explicit result,
// never an error.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"lostfound/models"
)

// State classifies a dispatch attempt.
type State string

const (
	// Delivered means the relay accepted the request and pushed to at
	// least one device.
	Delivered State = "delivered"
	// Skipped means nothing was sent for a benign reason (relay not
	// configured, target has no registered devices).
	Skipped State = "skipped"
	// Failed means the attempt errored; the caller logs and moves on.
	Failed State = "failed"
)

// Result is the outcome of one dispatch attempt.
type Result struct {
	State  State
	Reason string
}

func (r Result) String() string {
	if r.Reason == "" {
		return string(r.State)
	}
	return fmt.Sprintf("%s (%s)", r.State, r.Reason)
}

func skipped(reason string) Result { return Result{State: Skipped, Reason: reason} }
func failed(reason string) Result  { return Result{State: Failed, Reason: reason} }

// TokenMinter mints bearer tokens the relay can verify. Implemented by
// auth.ServiceTokens.
type TokenMinter interface {
	Mint(uid string, role models.Role) (string, error)
}

// Dispatcher posts claim events to the notification relay.
type Dispatcher struct {
	baseURL string
	tokens  TokenMinter
	client  *http.Client
}

// NewDispatcher creates a dispatcher for the relay at baseURL. An empty
// baseURL yields a dispatcher that skips every call, so the engine works
// unchanged when no relay is deployed.
func NewDispatcher(baseURL string, tokens TokenMinter) *Dispatcher {
	return &Dispatcher{
		baseURL: baseURL,
		tokens:  tokens,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// ClaimCreated notifies the assigned maintainer that a claim was submitted.
func (d *Dispatcher) ClaimCreated(ctx context.Context, actorUid string, actorRole models.Role, claimID string) Result {
	return d.post(ctx, "/notify/claim-created", actorUid, actorRole, claimID)
}

// ClaimStatus notifies the claimant that their claim was decided.
func (d *Dispatcher) ClaimStatus(ctx context.Context, actorUid string, actorRole models.Role, claimID string) Result {
	return d.post(ctx, "/notify/claim-status", actorUid, actorRole, claimID)
}

type relayResponse struct {
	Ok     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

func (d *Dispatcher) post(ctx context.Context, path, actorUid string, actorRole models.Role, claimID string) Result {
	if d == nil || d.baseURL == "" {
		return skipped("relay not configured")
	}

	token, err := d.tokens.Mint(actorUid, actorRole)
	if err != nil {
		return failed(fmt.Sprintf("mint token: %v", err))
	}

	body, err := json.Marshal(map[string]string{"claimId": claimID})
	if err != nil {
		return failed(fmt.Sprintf("encode body: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return failed(fmt.Sprintf("build request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := d.client.Do(req)
	if err != nil {
		return failed(fmt.Sprintf("post %s: %v", path, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return failed(fmt.Sprintf("relay returned %d: %s", resp.StatusCode, msg))
	}

	var rr relayResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return failed(fmt.Sprintf("decode response: %v", err))
	}
	if !rr.Ok {
		return skipped(rr.Reason)
	}
	return Result{State: Delivered}
}
