package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

// fakeProvider serves a token endpoint plus the profile endpoints of both
// providers; handlers are registered per test.
func fakeProvider(t *testing.T) (*httptest.Server, *http.ServeMux) {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.Form.Get("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"error":"bad_verification_code"}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"at-123","token_type":"bearer"}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, mux
}

func providerConfig(srv *httptest.Server) ProviderConfig {
	return ProviderConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		CallbackURL:  "http://localhost:8080/auth/x/callback",
		Endpoint:     &oauth2.Endpoint{AuthURL: srv.URL + "/authorize", TokenURL: srv.URL + "/token"},
		APIURL:       srv.URL,
	}
}

func TestProvider_AuthURLCarriesState(t *testing.T) {
	srv, _ := fakeProvider(t)
	p := NewGitHubProvider(providerConfig(srv))

	u, err := url.Parse(p.AuthURL("state-xyz"))
	require.NoError(t, err)
	assert.Equal(t, "state-xyz", u.Query().Get("state"))
	assert.Equal(t, "client-id", u.Query().Get("client_id"))
	assert.Equal(t, "github", p.Name())
}

func TestGoogleExchange(t *testing.T) {
	srv, mux := fakeProvider(t)
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer at-123", r.Header.Get("Authorization"))
		fmt.Fprint(w, `{"sub":"1090","email":"Bob@Example.com","email_verified":true}`)
	})

	user, err := NewGoogleProvider(providerConfig(srv)).Exchange(context.Background(), "good-code")
	require.NoError(t, err)
	assert.Equal(t, &ProviderUser{ID: "google:1090", Email: "bob@example.com"}, user)
}

func TestGitHubExchange_HiddenEmailFallsBackToPrimary(t *testing.T) {
	srv, mux := fakeProvider(t)
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":42,"login":"octo","email":null}`)
	})
	mux.HandleFunc("/user/emails", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"email":"old@example.com","primary":false,"verified":true},{"email":"octo@example.com","primary":true,"verified":true}]`)
	})

	user, err := NewGitHubProvider(providerConfig(srv)).Exchange(context.Background(), "good-code")
	require.NoError(t, err)
	assert.Equal(t, "github:42", user.ID)
	assert.Equal(t, "octo@example.com", user.Email)
}

func TestExchange_BadCode(t *testing.T) {
	srv, _ := fakeProvider(t)
	_, err := NewGitHubProvider(providerConfig(srv)).Exchange(context.Background(), "stolen-code")
	assert.Error(t, err)
}
