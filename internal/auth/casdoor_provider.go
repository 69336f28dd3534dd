package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/SAP-F-2025/classroom-session/internal/config"
	apperrors "github.com/SAP-F-2025/classroom-session/internal/errors"
	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// casdoorClient is the subset of the SDK client the provider calls.
type casdoorClient interface {
	ParseJwtToken(token string) (*casdoorsdk.Claims, error)
	AddUser(user *casdoorsdk.User) (bool, error)
}

// CasdoorProvider signs users in against a Casdoor server with the OAuth2 password grant.
// The refresh token is kept inside an oauth2.TokenSource so Token refreshes on demand.
type CasdoorProvider struct {
	client       casdoorClient
	oauth        *oauth2.Config
	endpoint     string
	organization string
	application  string
	httpClient   *http.Client

	mu     sync.Mutex
	source oauth2.TokenSource
	userID string
}

func NewCasdoorProvider(cfg config.CasdoorConfig) *CasdoorProvider {
	client := casdoorsdk.NewClient(cfg.Endpoint, cfg.ClientID, cfg.ClientSecret, cfg.Certificate, cfg.Organization, cfg.Application)
	return newCasdoorProvider(client, cfg, http.DefaultClient)
}

func newCasdoorProvider(client casdoorClient, cfg config.CasdoorConfig, httpClient *http.Client) *CasdoorProvider {
	endpoint := strings.TrimSuffix(cfg.Endpoint, "/")
	return &CasdoorProvider{
		client: client,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint: oauth2.Endpoint{
				AuthURL:   endpoint + "/login/oauth/authorize",
				TokenURL:  endpoint + "/api/login/oauth/access_token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
			Scopes: []string{"openid", "profile", "email"},
		},
		endpoint:     endpoint,
		organization: cfg.Organization,
		application:  cfg.Application,
		httpClient:   httpClient,
	}
}

func (p *CasdoorProvider) SignIn(ctx context.Context, email, password string) (string, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	token, err := p.oauth.PasswordCredentialsToken(ctx, email, password)
	if err != nil {
		return "", mapOAuthError(err, "invalid email or password")
	}

	claims, err := p.client.ParseJwtToken(token.AccessToken)
	if err != nil {
		return "", apperrors.AuthWrap("an error occurred when logging in", err)
	}
	if claims.Id == "" {
		return "", apperrors.Auth("an error occurred when logging in")
	}

	p.mu.Lock()
	// The background context keeps refreshes alive after this call returns.
	refreshCtx := context.WithValue(context.Background(), oauth2.HTTPClient, p.httpClient)
	p.source = p.oauth.TokenSource(refreshCtx, token)
	p.userID = claims.Id
	p.mu.Unlock()

	return claims.Id, nil
}

func (p *CasdoorProvider) SignUp(ctx context.Context, email, password string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id := uuid.NewString()
	ok, err := p.client.AddUser(&casdoorsdk.User{
		Owner:    p.organization,
		Name:     id,
		Id:       id,
		Email:    email,
		Password: password,
		Type:     "normal-user",
	})
	if err != nil {
		if mapped := apperrors.FromTransport(err); apperrors.IsNetwork(mapped) {
			return "", mapped
		}
		return "", apperrors.AuthWrap("registration was rejected", err)
	}
	if !ok {
		return "", apperrors.Auth("registration was rejected")
	}
	return p.SignIn(ctx, email, password)
}

type casdoorResponse struct {
	Status string `json:"status"`
	Msg    string `json:"msg"`
}

func (p *CasdoorProvider) SendPasswordReset(ctx context.Context, email string) error {
	form := url.Values{
		"dest":          {email},
		"type":          {"email"},
		"method":        {"forget"},
		"captchaType":   {"none"},
		"applicationId": {"admin/" + p.application},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint+"/api/send-verification-code", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build reset request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return apperrors.FromTransport(err)
	}
	defer resp.Body.Close()

	var body casdoorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return apperrors.AuthWrap("password reset failed", err)
	}
	if resp.StatusCode >= http.StatusBadRequest || body.Status != "ok" {
		return apperrors.Auth(body.Msg)
	}
	return nil
}

// CurrentUser refreshes the token when needed; a rejected refresh ends the session.
func (p *CasdoorProvider) CurrentUser(ctx context.Context) (string, error) {
	if _, err := p.Token(ctx); err != nil {
		return "", err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.userID, nil
}

func (p *CasdoorProvider) Token(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p.mu.Lock()
	source := p.source
	p.mu.Unlock()
	if source == nil {
		return "", ErrNoSession
	}

	token, err := source.Token()
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return "", ErrNoSession
		}
		return "", apperrors.FromTransport(err)
	}
	return token.AccessToken, nil
}

func (p *CasdoorProvider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	p.source = nil
	p.userID = ""
	p.mu.Unlock()
	return nil
}

func mapOAuthError(err error, rejected string) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		if retrieveErr.ErrorDescription != "" {
			return apperrors.AuthWrap(retrieveErr.ErrorDescription, err)
		}
		return apperrors.AuthWrap(rejected, err)
	}
	if mapped := apperrors.FromTransport(err); apperrors.IsNetwork(mapped) || errors.Is(err, context.Canceled) {
		return mapped
	}
	return apperrors.AuthWrap("an error occurred when logging in", err)
}
