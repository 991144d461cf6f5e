package fcm

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"
)

const (
	assertionTTL = time.Hour
	refreshSkew  = 60 * time.Second
	grantType    = "urn:ietf:params:oauth:grant-type:jwt-bearer"
)

// Signer builds RS256 service-account assertions.
type Signer struct {
	email    string
	audience string
	scope    string
	key      *rsa.PrivateKey
	now      func() time.Time
}

func NewSigner(sa *ServiceAccount) (*Signer, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(sa.PrivateKey))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	return &Signer{
		email:    sa.ClientEmail,
		audience: sa.TokenURI,
		scope:    MessagingScope,
		key:      key,
		now:      time.Now,
	}, nil
}

// Assertion returns a signed JWT valid for one hour from now.
func (s *Signer) Assertion() (string, error) {
	iat := s.now()
	claims := jwt.MapClaims{
		"iss":   s.email,
		"sub":   s.email,
		"aud":   s.audience,
		"iat":   iat.Unix(),
		"exp":   iat.Add(assertionTTL).Unix(),
		"scope": s.scope,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign assertion: %w", err)
	}
	return signed, nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// TokenSource exchanges assertions for bearer tokens and caches each one
// until shortly before it expires. Concurrent refreshes share one exchange.
type TokenSource struct {
	signer   *Signer
	tokenURI string
	client   *http.Client

	mu      sync.RWMutex
	token   string
	expires time.Time

	group singleflight.Group
}

func NewTokenSource(signer *Signer, tokenURI string, client *http.Client) *TokenSource {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &TokenSource{
		signer:   signer,
		tokenURI: tokenURI,
		client:   client,
	}
}

func (ts *TokenSource) Token(ctx context.Context) (string, error) {
	if token, ok := ts.cached(); ok {
		return token, nil
	}

	v, err, _ := ts.group.Do("token", func() (any, error) {
		if token, ok := ts.cached(); ok {
			return token, nil
		}
		return ts.refresh(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (ts *TokenSource) cached() (string, bool) {
	ts.mu.RLock()
	defer ts.mu.RUnlock()

	if ts.token == "" || !ts.signer.now().Before(ts.expires.Add(-refreshSkew)) {
		return "", false
	}
	return ts.token, true
}

func (ts *TokenSource) refresh(ctx context.Context) (string, error) {
	assertion, err := ts.signer.Assertion()
	if err != nil {
		return "", err
	}

	form := url.Values{}
	form.Set("grant_type", grantType)
	form.Set("assertion", assertion)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ts.tokenURI, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := ts.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("exchange assertion: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to get access token: status %d: %s", resp.StatusCode, string(body))
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("token response has no access_token")
	}

	ttl := time.Duration(tr.ExpiresIn) * time.Second
	if ttl <= 0 {
		ttl = assertionTTL
	}

	ts.mu.Lock()
	ts.token = tr.AccessToken
	ts.expires = ts.signer.now().Add(ttl)
	ts.mu.Unlock()

	return tr.AccessToken, nil
}
