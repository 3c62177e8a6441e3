package hrapi

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// TokenManager serves the API bearer token. It either holds a static token
// or runs an external command (e.g. "hrctl auth print-token") and refreshes
// its output on an interval.
type TokenManager struct {
	mu              sync.RWMutex
	token           string
	lastRefresh     time.Time
	refreshInterval time.Duration
	cliCommand      string
	logger          *zap.Logger
	cancel          context.CancelFunc
}

// NewTokenManager creates a token manager. With an empty cliCommand the
// static token is served as is (an empty token means no auth).
func NewTokenManager(token, cliCommand string, refreshInterval time.Duration, logger *zap.Logger) *TokenManager {
	if refreshInterval <= 0 {
		refreshInterval = time.Hour
	}

	return &TokenManager{
		token:           token,
		refreshInterval: refreshInterval,
		cliCommand:      strings.TrimSpace(cliCommand),
		logger:          logger,
	}
}

// Start fetches the first token and starts the refresh loop.
// It is a no-op for static tokens.
func (tm *TokenManager) Start(ctx context.Context) error {
	if tm.cliCommand == "" {
		return nil
	}

	if err := tm.Refresh(ctx); err != nil {
		return fmt.Errorf("failed to get initial token: %w", err)
	}

	loopCtx, cancel := context.WithCancel(ctx)
	tm.mu.Lock()
	tm.cancel = cancel
	tm.mu.Unlock()

	go tm.refreshLoop(loopCtx)

	tm.logger.Info("Token manager started",
		zap.Duration("refresh_interval", tm.refreshInterval))

	return nil
}

// Stop stops the refresh loop
func (tm *TokenManager) Stop() {
	tm.mu.Lock()
	cancel := tm.cancel
	tm.cancel = nil
	tm.mu.Unlock()

	if cancel != nil {
		cancel()
		tm.logger.Info("Token manager stopped")
	}
}

// GetToken returns the current token
func (tm *TokenManager) GetToken() (string, error) {
	tm.mu.RLock()
	defer tm.mu.RUnlock()

	if tm.cliCommand != "" && tm.token == "" {
		return "", errors.New("token not available")
	}

	return tm.token, nil
}

// LastRefresh returns the time of the last successful command run
func (tm *TokenManager) LastRefresh() time.Time {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return tm.lastRefresh
}

// Refresh runs the token command. A failure keeps the previous token when
// there is one.
func (tm *TokenManager) Refresh(ctx context.Context) error {
	if tm.cliCommand == "" {
		return nil
	}

	token, err := tm.runCommand(ctx)
	if err != nil {
		tm.mu.RLock()
		hasToken := tm.token != ""
		tm.mu.RUnlock()

		if hasToken {
			tm.logger.Warn("Token refresh failed, keeping previous token", zap.Error(err))
			return nil
		}
		return err
	}

	now := time.Now()
	tm.mu.Lock()
	tm.token = token
	tm.lastRefresh = now
	tm.mu.Unlock()

	tm.logger.Debug("Token refreshed", zap.Time("last_refresh", now))
	return nil
}

func (tm *TokenManager) refreshLoop(ctx context.Context) {
	ticker := time.NewTicker(tm.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := tm.Refresh(ctx); err != nil {
				tm.logger.Error("Failed to refresh token in background", zap.Error(err))
			}
		}
	}
}

func (tm *TokenManager) runCommand(ctx context.Context) (string, error) {
	parts := strings.Fields(tm.cliCommand)
	if len(parts) == 0 {
		return "", errors.New("empty token command")
	}

	output, err := exec.CommandContext(ctx, parts[0], parts[1:]...).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("token command failed: %s: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("failed to execute token command: %w", err)
	}

	token := strings.TrimSpace(string(output))
	if token == "" {
		return "", errors.New("empty token received from command")
	}

	return token, nil
}
