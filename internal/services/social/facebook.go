// Package social fetches user info from social login providers that do not issue
// tokens the identity provider can verify directly.
package social

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"

	"github.com/benvon/pet-shop/internal/httpjson"
)

var (
	// ErrInvalidToken means the provider rejected the access token.
	ErrInvalidToken = errors.New("social access token rejected")
	// ErrUnavailable means the provider could not be reached or failed.
	ErrUnavailable = errors.New("social provider unavailable")
)

// DefaultFacebookGraphURL is the production Graph API base.
const DefaultFacebookGraphURL = "https://graph.facebook.com"

// FacebookUser is the subset of the Graph /me object used for login.
type FacebookUser struct {
	ID         string
	Name       string
	Email      string
	PictureURL string
}

type graphMe struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture struct {
		Data struct {
			URL string `json:"url"`
		} `json:"data"`
	} `json:"picture"`
}

// Facebook calls the Graph API with a user access token.
type Facebook struct {
	baseURL    string
	httpClient *http.Client
}

// NewFacebook creates a Graph client. An empty baseURL uses DefaultFacebookGraphURL and a nil
// httpClient uses httpjson.New.
func NewFacebook(baseURL string, httpClient *http.Client) *Facebook {
	if baseURL == "" {
		baseURL = DefaultFacebookGraphURL
	}
	if httpClient == nil {
		httpClient = httpjson.New()
	}
	return &Facebook{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

// Me returns the owner of accessToken.
func (f *Facebook) Me(ctx context.Context, accessToken string) (*FacebookUser, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, f.httpClient)
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken}))
	client.Timeout = f.httpClient.Timeout

	endpoint := f.baseURL + "/me?" + url.Values{"fields": {"id,name,email,picture"}}.Encode()
	var me graphMe
	if err := httpjson.Do(ctx, client, http.MethodGet, endpoint, nil, &me); err != nil {
		var se *httpjson.StatusError
		if errors.As(err, &se) && se.StatusCode >= 400 && se.StatusCode < 500 {
			return nil, fmt.Errorf("facebook me: %w", ErrInvalidToken)
		}
		return nil, fmt.Errorf("facebook me: %w: %v", ErrUnavailable, err)
	}
	if me.ID == "" {
		return nil, fmt.Errorf("facebook me: %w", ErrInvalidToken)
	}
	return &FacebookUser{
		ID:         me.ID,
		Name:       me.Name,
		Email:      me.Email,
		PictureURL: me.Picture.Data.URL,
	}, nil
}
