package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/sakif/repo-explainer/internal/httpjson"
)

const (
	GoogleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"
	GitHubAPIURL      = "https://api.github.com"
)

// ProviderUser is the part of a provider profile sign-in needs.
type ProviderUser struct {
	ID    string
	Email string
}

// Provider runs the authorization-code flow against one identity provider.
type Provider struct {
	name    string
	config  *oauth2.Config
	profile func(ctx context.Context, client *http.Client) (*ProviderUser, error)
}

type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	CallbackURL  string
	// Endpoint and APIURL override the provider defaults in tests.
	Endpoint *oauth2.Endpoint
	APIURL   string
}

func NewGoogleProvider(cfg ProviderConfig) *Provider {
	endpoint := endpoints.Google
	if cfg.Endpoint != nil {
		endpoint = *cfg.Endpoint
	}
	userInfo := GoogleUserInfoURL
	if cfg.APIURL != "" {
		userInfo = strings.TrimRight(cfg.APIURL, "/") + "/userinfo"
	}

	return &Provider{
		name: "google",
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.CallbackURL,
			Scopes:       []string{"openid", "email"},
			Endpoint:     endpoint,
		},
		profile: func(ctx context.Context, client *http.Client) (*ProviderUser, error) {
			var info struct {
				Sub           string `json:"sub"`
				Email         string `json:"email"`
				EmailVerified bool   `json:"email_verified"`
			}
			if err := httpjson.Do(ctx, client, http.MethodGet, userInfo, nil, &info); err != nil {
				return nil, fmt.Errorf("fetching Google userinfo: %w", err)
			}
			if info.Sub == "" {
				return nil, errors.New("google returned a profile without a subject")
			}
			u := &ProviderUser{ID: "google:" + info.Sub}
			if info.EmailVerified {
				u.Email = strings.ToLower(info.Email)
			}
			return u, nil
		},
	}
}

func NewGitHubProvider(cfg ProviderConfig) *Provider {
	endpoint := endpoints.GitHub
	if cfg.Endpoint != nil {
		endpoint = *cfg.Endpoint
	}
	api := GitHubAPIURL
	if cfg.APIURL != "" {
		api = strings.TrimRight(cfg.APIURL, "/")
	}

	return &Provider{
		name: "github",
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.CallbackURL,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     endpoint,
		},
		profile: func(ctx context.Context, client *http.Client) (*ProviderUser, error) {
			accept := httpjson.WithHeader("Accept", "application/vnd.github+json")

			var user struct {
				ID    int64  `json:"id"`
				Email string `json:"email"`
			}
			if err := httpjson.Do(ctx, client, http.MethodGet, api+"/user", nil, &user, accept); err != nil {
				return nil, fmt.Errorf("fetching GitHub user: %w", err)
			}
			if user.ID == 0 {
				return nil, errors.New("github returned an invalid user (id 0)")
			}
			u := &ProviderUser{ID: "github:" + strconv.FormatInt(user.ID, 10), Email: strings.ToLower(user.Email)}
			if u.Email != "" {
				return u, nil
			}

			// Hidden public email: ask for the primary verified address.
			var emails []struct {
				Email    string `json:"email"`
				Primary  bool   `json:"primary"`
				Verified bool   `json:"verified"`
			}
			if err := httpjson.Do(ctx, client, http.MethodGet, api+"/user/emails", nil, &emails, accept); err != nil {
				return u, nil
			}
			for _, e := range emails {
				if e.Primary && e.Verified {
					u.Email = strings.ToLower(e.Email)
					break
				}
			}
			return u, nil
		},
	}
}

func (p *Provider) Name() string { return p.name }

// AuthURL is where the browser is sent; state is echoed back on callback.
func (p *Provider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades the callback code for an access token and loads the
// user's profile with it.
func (p *Provider) Exchange(ctx context.Context, code string) (*ProviderUser, error) {
	tok, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: %s code exchange: %w", p.name, err)
	}

	user, err := p.profile(ctx, p.config.Client(ctx, tok))
	if err != nil {
		return nil, fmt.Errorf("auth: %s: %w", p.name, err)
	}
	return user, nil
}
