// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Minetec

// Package fascb is a client for the FAS control box HTTP API and its
// streaming command channel. It covers exactly the surface the refill test
// harness drives: the challenge-response login, the operation endpoint, the
// image upload, and the websocket command stream.
package fascb

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrUnreachable is returned when the liveness probe gets no valid answer.
var ErrUnreachable = fmt.Errorf("control box unreachable")

// ErrAuth is returned when the challenge-response exchange yields no token.
var ErrAuth = fmt.Errorf("authentication failed")

// ErrProtocol is returned when a response does not have the expected shape.
var ErrProtocol = fmt.Errorf("unexpected protocol response")

// Operation request kinds accepted by the /operation endpoint.
const (
	opRefillRequest = "refill_req"
	opRefillStart   = "refill_drf"
	opRefillParams  = "refill_params"
	opRefillFinish  = "refill_finish"
	opVehicleInfo   = "vehicle_info"
)

// Response discriminants the harness branches on. Anything else is passed
// through to the caller untouched.
const (
	RespInvalid      = "invalid"
	RespInvalidToken = "invalid_token"
	RespVehicleInfo  = "vehicle_info"
)

// OpResponse is a decoded /operation reply. Raw keeps the full body for
// callers that need payload fields beyond the discriminant.
type OpResponse struct {
	Response string
	Message  string
	Raw      map[string]any
}

// Invalid reports whether the response carries one of the two rejection
// discriminants. Both mean the current cycle should be abandoned.
func (r *OpResponse) Invalid() bool {
	return r.Response == RespInvalid || r.Response == RespInvalidToken
}

// Client talks to one control box. The address may carry a path prefix
// (e.g. "10.0.0.43/api") as advertised by some firmware revisions.
type Client struct {
	addr     string
	username string
	password string
	httpc    *http.Client
}

// NewClient creates a client for the control box at addr.
func NewClient(addr, username, password string) *Client {
	return &Client{
		addr:     addr,
		username: username,
		password: password,
		httpc:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Addr returns the device address the client was created with.
func (c *Client) Addr() string { return c.addr }

func (c *Client) url(path string) string {
	return "http://" + c.addr + path
}

// AuthDigest computes the challenge answer: the lowercase hex MD5 of
// "username:password". The algorithm is fixed by the control box firmware.
func AuthDigest(username, password string) string {
	sum := md5.Sum([]byte(username + ":" + password))
	return hex.EncodeToString(sum[:])
}

// Ping probes the control box. The firmware answers the liveness probe with
// a body starting with "pong"; anything else counts as unreachable.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url("/ping"), nil)
	if err != nil {
		return err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	if !bytes.HasPrefix(body, []byte("pong")) {
		return fmt.Errorf("%w: unexpected ping reply %q", ErrUnreachable, body)
	}
	return nil
}

// Login performs the challenge-response handshake and returns the session
// token. It probes liveness first; a failed probe leaves no session state
// behind. Login never retries, the caller owns the retry cadence.
func (c *Client) Login(ctx context.Context) (string, error) {
	if err := c.Ping(ctx); err != nil {
		return "", err
	}

	auth, err := c.postJSON(ctx, "/auth", map[string]any{
		"username": c.username,
		"state":    "initial",
	})
	if err != nil {
		return "", err
	}

	challenge, _ := auth["challenge"].(string)
	if challenge == "" {
		// The firmware always challenges; an empty challenge means we are
		// not talking to what we think we are.
		return "", fmt.Errorf("%w: empty auth challenge", ErrProtocol)
	}

	auth["key"] = AuthDigest(c.username, c.password)
	reply, err := c.postJSON(ctx, "/auth", auth)
	if err != nil {
		return "", err
	}

	token, _ := reply["token"].(string)
	if token == "" {
		return "", ErrAuth
	}
	return token, nil
}

// SendOperation posts a named request to the operation endpoint. extra
// fields are merged into the payload next to the request kind and token.
// A rejection discriminant is a data outcome, not an error.
func (c *Client) SendOperation(ctx context.Context, kind, token string, extra map[string]any) (*OpResponse, error) {
	payload := map[string]any{"request": kind, "token": token}
	for k, v := range extra {
		payload[k] = v
	}

	raw, err := c.postJSON(ctx, "/operation", payload)
	if err != nil {
		return nil, err
	}

	discriminant, _ := raw["response"].(string)
	if discriminant == "" {
		return nil, fmt.Errorf("%w: operation reply missing response field", ErrProtocol)
	}

	resp := &OpResponse{Response: discriminant, Raw: raw}
	if msg, _ := raw["message"].(string); msg != "" {
		resp.Message = msg
		log.Info().Str("request", kind).Str("message", msg).Msg("control box message")
	}
	log.Debug().Str("request", kind).Str("response", discriminant).Msg("operation")
	return resp, nil
}

// RefillRequest asks the control box to open a refill transaction.
func (c *Client) RefillRequest(ctx context.Context, token string) (*OpResponse, error) {
	return c.SendOperation(ctx, opRefillRequest, token, nil)
}

// RefillStart begins the metered fill with the vehicle's working hours.
func (c *Client) RefillStart(ctx context.Context, token string, hours int) (*OpResponse, error) {
	return c.SendOperation(ctx, opRefillStart, token, map[string]any{
		"refill_op_workinghours": hours,
	})
}

// QueryRefillParams polls the state of the running fill.
func (c *Client) QueryRefillParams(ctx context.Context, token string) (*OpResponse, error) {
	return c.SendOperation(ctx, opRefillParams, token, nil)
}

// RequestVehicleInfo polls for the vehicle identification result.
func (c *Client) RequestVehicleInfo(ctx context.Context, token string) (*OpResponse, error) {
	return c.SendOperation(ctx, opVehicleInfo, token, nil)
}

// EndRefill closes the refill transaction.
func (c *Client) EndRefill(ctx context.Context, token string) (*OpResponse, error) {
	return c.SendOperation(ctx, opRefillFinish, token, nil)
}

// CancelRefill aborts the refill. The firmware uses the same request kind
// for a cancel as for a normal finish.
func (c *Client) CancelRefill(ctx context.Context, token string) (*OpResponse, error) {
	return c.SendOperation(ctx, opRefillFinish, token, nil)
}

// UploadImage sends the refill photo as a multipart upload. A missing file
// downgrades to a logged skip: cycles run fine without the photo.
func (c *Client) UploadImage(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		log.Warn().Str("path", path).Msg("refill image missing, skipping upload")
		return nil
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, f); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url("/upload"), &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	reply, _ := io.ReadAll(resp.Body)
	log.Info().Str("path", path).Str("reply", string(reply)).Msg("uploaded refill image")
	return nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload any) (map[string]any, error) {
	buf, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(path), bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	return decoded, nil
}
