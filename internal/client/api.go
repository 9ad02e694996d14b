package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"fullmetal-planet/internal/protocol"
	"fullmetal-planet/internal/room"
	"fullmetal-planet/internal/server"
)

// APIError is a non-2xx answer from the bootstrap API.
type APIError struct {
	Status  int
	Code    protocol.ErrorCode
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s: %s", e.Status, e.Code, e.Message)
}

// API calls the server's HTTP bootstrap endpoints.
type API struct {
	base string
	http *http.Client
}

// NewAPI creates an API client for a server address such as
// "localhost:30000" or a full http(s) URL.
func NewAPI(serverAddr string) *API {
	return &API{
		base: HTTPURL(serverAddr),
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

// CreateGame opens a room hosted by name. mapID and seed may be empty.
func (a *API) CreateGame(ctx context.Context, name, mapID string, seed int64) (*server.CreateGameResponse, error) {
	var out server.CreateGameResponse
	req := server.CreateGameRequest{PlayerName: name, MapID: mapID, Seed: seed}
	if err := a.do(ctx, http.MethodPost, "/games", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// JoinGame takes a seat in a waiting room.
func (a *API) JoinGame(ctx context.Context, gameID, name string) (*server.JoinGameResponse, error) {
	var out server.JoinGameResponse
	req := server.JoinGameRequest{PlayerName: name}
	if err := a.do(ctx, http.MethodPost, "/games/"+url.PathEscape(gameID)+"/join", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Spectate joins a room read-only.
func (a *API) Spectate(ctx context.Context, gameID, name string) (*server.SpectateResponse, error) {
	var out server.SpectateResponse
	req := server.SpectateRequest{SpectatorName: name}
	if err := a.do(ctx, http.MethodPost, "/games/"+url.PathEscape(gameID)+"/spectate", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetGame fetches the public view of a room.
func (a *API) GetGame(ctx context.Context, gameID string) (*room.View, error) {
	var out room.View
	if err := a.do(ctx, http.MethodGet, "/games/"+url.PathEscape(gameID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListGames fetches the room listing.
func (a *API) ListGames(ctx context.Context) ([]room.Info, error) {
	var out []room.Info
	if err := a.do(ctx, http.MethodGet, "/games", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// History fetches logged actions after a sequence number.
func (a *API) History(ctx context.Context, gameID string, after int) ([]json.RawMessage, error) {
	var out []json.RawMessage
	path := "/games/" + url.PathEscape(gameID) + "/history?after=" + strconv.Itoa(after)
	if err := a.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *API) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.base+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var p protocol.ErrorPayload
		json.NewDecoder(resp.Body).Decode(&p)
		return &APIError{Status: resp.StatusCode, Code: p.Code, Message: p.Message}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
