// Package identity verifies third-party credentials. The rest of the
// service only sees the Verifier surface; the Facebook Graph call is an
// implementation detail.
package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/writtenhq/written/internal/written"
)

// Identity is what the provider attests about a credential.
type Identity struct {
	FacebookID string `json:"id"`
	Name       string `json:"name"`
}

// Verifier checks that an access token really belongs to the claimed user.
type Verifier interface {
	Verify(ctx context.Context, facebookID, accessToken string) (Identity, error)
}

const defaultGraphURL = "https://graph.facebook.com/v7.0"

// Facebook verifies tokens against the Facebook Graph API.
type Facebook struct {
	client   *http.Client
	graphURL string

	// Verified tokens are cached so repeated calls with the same session
	// don't refetch the Graph API.
	cache *lru.Cache[string, Identity]
}

// Option configures a Facebook verifier.
type Option func(*Facebook)

// WithGraphURL overrides the Graph API base URL. Used in tests.
func WithGraphURL(u string) Option {
	return func(f *Facebook) {
		f.graphURL = u
	}
}

func NewFacebook(opts ...Option) *Facebook {
	cache, _ := lru.New[string, Identity](1024)

	f := &Facebook{
		client: &http.Client{
			Timeout: 2 * time.Second,
		},
		graphURL: defaultGraphURL,
		cache:    cache,
	}
	for _, opt := range opts {
		opt(f)
	}

	return f
}

func (f *Facebook) Verify(ctx context.Context, facebookID, accessToken string) (Identity, error) {
	ident, ok := f.cache.Get(accessToken)
	if !ok {
		fetched, err := f.fetch(ctx, accessToken)
		if err != nil {
			return Identity{}, err
		}
		ident = fetched

		f.cache.Add(accessToken, ident)
	}

	if ident.FacebookID != facebookID {
		return Identity{}, written.ErrInvalidToken
	}

	return ident, nil
}

func (f *Facebook) fetch(ctx context.Context, accessToken string) (Identity, error) {
	u := fmt.Sprintf("%s/me?access_token=%s", f.graphURL, url.QueryEscape(accessToken))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Identity{}, fmt.Errorf("error building graph request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return Identity{}, fmt.Errorf("error calling graph api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Identity{}, written.ErrInvalidToken
	}

	var ident Identity
	if err := json.NewDecoder(resp.Body).Decode(&ident); err != nil {
		return Identity{}, fmt.Errorf("error decoding graph response: %w", err)
	}

	return ident, nil
}
