package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/plumemail/netkit/credentials"
	"github.com/plumemail/netkit/logger"
)

// refreshCoordinator exchanges the stored refresh token for a new token pair.
// Concurrent 401 handlers share a single in-flight refresh call: refresh
// tokens rotate on use, so a second concurrent call would race the first and
// fail spuriously on an already-invalidated token.
type refreshCoordinator struct {
	group      singleflight.Group
	store      credentials.Store
	refreshURL string
	// httpClient talks to the transport directly, bypassing the
	// interceptor chain. A refresh call must never be intercepted by the
	// auth stage or it would recurse on its own 401.
	httpClient       *http.Client
	timeout          time.Duration
	onSessionExpired func()
	log              logger.Logger
}

const refreshFlightKey = "refresh"

// refreshEnvelope is the wire shape of a successful refresh response.
type refreshEnvelope struct {
	Success bool `json:"success"`
	Data    struct {
		Tokens struct {
			AccessToken  string `json:"accessToken"`
			RefreshToken string `json:"refreshToken"`
			ExpiresIn    int64  `json:"expiresIn"`
		} `json:"tokens"`
	} `json:"data"`
}

func newRefreshCoordinator(store credentials.Store, refreshURL string, transport http.RoundTripper, timeout time.Duration, onSessionExpired func(), log logger.Logger) *refreshCoordinator {
	return &refreshCoordinator{
		store:            store,
		refreshURL:       refreshURL,
		httpClient:       &http.Client{Transport: transport, Timeout: timeout},
		timeout:          timeout,
		onSessionExpired: onSessionExpired,
		log:              log,
	}
}

// Refresh returns a fresh access token, joining the in-flight refresh when
// one exists. A caller whose context is already cancelled does not join the
// flight; a caller cancelled while waiting abandons the flight without
// aborting it, so the remaining waiters still observe its outcome.
func (r *refreshCoordinator) Refresh(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", NewCancelledError(err)
	}

	ch := r.group.DoChan(refreshFlightKey, func() (any, error) {
		return r.refreshOnce()
	})

	select {
	case <-ctx.Done():
		return "", NewCancelledError(ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		if res.Shared {
			r.log.Debug().Msg("joined shared token refresh")
		}
		return res.Val.(string), nil
	}
}

// refreshOnce performs the actual refresh call. It runs at most once per
// failure episode; singleflight drops the key when it returns, so the next
// 401 episode starts a fresh cycle. Any failure here is fatal to the
// session: credentials are cleared and the session-expired callback fires,
// both exactly once because this function is the single flight.
func (r *refreshCoordinator) refreshOnce() (string, error) {
	// Detached from caller contexts: the outcome is shared by every waiter,
	// so one caller's cancellation must not abort the flight.
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	token, err := r.exchange(ctx)
	if err != nil {
		r.log.Warn().Err(err).Msg("token refresh failed; expiring session")
		r.expireSession(ctx)
		return "", err
	}
	r.log.Info().Msg("token refresh succeeded")
	return token, nil
}

func (r *refreshCoordinator) exchange(ctx context.Context) (string, error) {
	refreshToken, err := r.store.RefreshToken(ctx)
	if err != nil {
		return "", fmt.Errorf("read refresh token: %w", err)
	}
	if refreshToken == "" {
		return "", fmt.Errorf("no refresh token stored")
	}

	payload, err := json.Marshal(map[string]string{"refreshToken": refreshToken})
	if err != nil {
		return "", fmt.Errorf("encode refresh payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.refreshURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("refresh call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("refresh rejected with status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read refresh response: %w", err)
	}

	var envelope refreshEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", fmt.Errorf("decode refresh response: %w", err)
	}
	tokens := envelope.Data.Tokens
	if !envelope.Success || tokens.AccessToken == "" || tokens.RefreshToken == "" {
		return "", fmt.Errorf("malformed refresh response")
	}

	expiresIn := time.Duration(tokens.ExpiresIn) * time.Second
	if err := r.store.StoreTokens(ctx, tokens.AccessToken, tokens.RefreshToken, expiresIn); err != nil {
		return "", fmt.Errorf("persist refreshed tokens: %w", err)
	}
	return tokens.AccessToken, nil
}

// expireSession clears stored credentials and notifies the application. The
// caller guarantees this runs once per failed refresh.
func (r *refreshCoordinator) expireSession(ctx context.Context) {
	if err := r.store.ClearAll(ctx); err != nil {
		r.log.Error().Err(err).Msg("failed to clear credentials after refresh failure")
	}
	if r.onSessionExpired != nil {
		r.onSessionExpired()
	}
}
