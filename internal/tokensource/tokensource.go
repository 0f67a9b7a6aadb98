package tokensource

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
)

// DefaultReloadInterval is how long a key read from a store is reused.
const DefaultReloadInterval = 5 * time.Minute

// storeTokenSource reads the key on every call. Callers wrap it in
// oauth2.ReuseTokenSource to cache it.
type storeTokenSource struct {
	store  Store
	reload time.Duration
	now    func() time.Time
}

func (s *storeTokenSource) Token() (*oauth2.Token, error) {
	// oauth2.TokenSource carries no context.
	key, err := s.store.Read(context.Background())
	if err != nil {
		return nil, fmt.Errorf("read API key: %w", err)
	}
	return &oauth2.Token{
		AccessToken: key,
		TokenType:   "x-api-key",
		Expiry:      s.now().Add(s.reload),
	}, nil
}

// NewTokenSource returns a TokenSource that rereads the key from store once reload has
// elapsed. A non-positive reload uses DefaultReloadInterval.
func NewTokenSource(store Store, reload time.Duration) oauth2.TokenSource {
	if reload <= 0 {
		reload = DefaultReloadInterval
	}
	return oauth2.ReuseTokenSource(nil, &storeTokenSource{
		store:  store,
		reload: reload,
		now:    time.Now,
	})
}
