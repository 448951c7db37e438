// Package identity caches the authenticated user and tracks identity
// transitions. Every login, signup, logout and stale-session demotion bumps
// an epoch counter so that responses fetched under an older identity can be
// recognized and discarded.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/askify/askify-cli/internal/model"
	"github.com/askify/askify-cli/internal/remote"
)

// API is the slice of the backend client the provider needs.
type API interface {
	Login(ctx context.Context, email, password string) (model.Identity, error)
	Signup(ctx context.Context, email, password, name string) (model.Identity, error)
	Logout(ctx context.Context) error
	Profile(ctx context.Context) (model.Identity, error)
}

// Provider owns the current identity. States are Anonymous (nil cached
// identity) and Authenticated; the only transitions are login/signup
// success, logout, and passive demotion when a profile check returns 401.
type Provider struct {
	api API

	// OnChange fires exactly once after each successful identity
	// transition, after the cache has been replaced. The app layer hooks
	// the history refresh here.
	OnChange func(ctx context.Context)

	mu      sync.Mutex
	current *model.Identity
	epoch   uint64
}

// NewProvider creates a provider in the Anonymous state.
func NewProvider(api API) *Provider {
	return &Provider{api: api}
}

// Current returns the cached identity, nil for an anonymous visitor.
// The value reflects the last successful session check, not a live lookup.
func (p *Provider) Current() *model.Identity {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return nil
	}
	ident := *p.current
	return &ident
}

// Epoch returns a counter that increases on every identity transition.
func (p *Provider) Epoch() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.epoch
}

// transition replaces the cached identity and bumps the epoch.
func (p *Provider) transition(ident *model.Identity) {
	p.mu.Lock()
	p.current = ident
	p.epoch++
	p.mu.Unlock()
}

func (p *Provider) fireChange(ctx context.Context) {
	if p.OnChange != nil {
		p.OnChange(ctx)
	}
}

// Login authenticates and, on success, replaces the cached identity before
// firing the change hook once.
func (p *Provider) Login(ctx context.Context, email, password string) (model.Identity, error) {
	ident, err := p.api.Login(ctx, email, password)
	if err != nil {
		return model.Identity{}, err
	}
	p.transition(&ident)
	p.fireChange(ctx)
	slog.Info("logged in", "email", ident.Email)
	return ident, nil
}

// Signup creates an account and signs the new user in.
func (p *Provider) Signup(ctx context.Context, email, password, name string) (model.Identity, error) {
	ident, err := p.api.Signup(ctx, email, password, name)
	if err != nil {
		return model.Identity{}, err
	}
	p.transition(&ident)
	p.fireChange(ctx)
	slog.Info("signed up", "email", ident.Email)
	return ident, nil
}

// Logout drops the cached identity and fires the change hook once. The
// cache is invalidated whether or not the server call succeeds.
func (p *Provider) Logout(ctx context.Context) error {
	err := p.api.Logout(ctx)
	p.transition(nil)
	p.fireChange(ctx)
	if err != nil {
		slog.Warn("logout request failed", "error", err)
		return fmt.Errorf("logout: %w", err)
	}
	slog.Info("logged out")
	return nil
}

// Refresh re-checks the session with the backend. A 401 demotes the cached
// identity to Anonymous (lazy stale-session detection); other failures keep
// the cache untouched.
func (p *Provider) Refresh(ctx context.Context) (*model.Identity, error) {
	ident, err := p.api.Profile(ctx)
	if errors.Is(err, remote.ErrUnauthorized) {
		p.mu.Lock()
		wasAuthenticated := p.current != nil
		p.mu.Unlock()
		if wasAuthenticated {
			p.transition(nil)
			slog.Info("session expired, now anonymous")
		}
		return nil, nil
	}
	if err != nil {
		return p.Current(), fmt.Errorf("refresh identity: %w", err)
	}
	p.mu.Lock()
	changed := p.current == nil || p.current.ID != ident.ID
	p.mu.Unlock()
	if changed {
		p.transition(&ident)
	} else {
		p.mu.Lock()
		p.current = &ident
		p.mu.Unlock()
	}
	return &ident, nil
}
