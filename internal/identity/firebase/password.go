package firebase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/benvon/pet-shop/internal/httpjson"
	"github.com/benvon/pet-shop/internal/identity"
)

var errMissingAPIKey = errors.New("FIREBASE_WEB_API_KEY is not set")

type signInRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type signInResponse struct {
	LocalID string `json:"localId"`
	IDToken string `json:"idToken"`
}

type toolkitError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// SignInWithPassword exchanges email and password for an ID token through the
// Identity Toolkit REST API. The Admin SDK cannot verify passwords.
func (p *Provider) SignInWithPassword(ctx context.Context, email, password string) (*identity.SignInResult, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("%w: %v", identity.ErrNotConfigured, errMissingAPIKey)
	}

	endpoint := p.toolkitURL + "/v1/accounts:signInWithPassword?key=" + url.QueryEscape(p.apiKey)
	var out signInResponse
	err := httpjson.Do(ctx, p.httpClient, http.MethodPost, endpoint,
		signInRequest{Email: email, Password: password, ReturnSecureToken: true}, &out)
	if err != nil {
		return nil, classifySignInError(err)
	}
	if out.IDToken == "" {
		return nil, fmt.Errorf("%w: empty id token", identity.ErrUpstream)
	}
	return &identity.SignInResult{UID: out.LocalID, IDToken: out.IDToken}, nil
}

// classifySignInError maps Identity Toolkit error messages such as
// "TOO_MANY_ATTEMPTS_TRY_LATER : ..." onto identity errors.
func classifySignInError(err error) error {
	var statusErr *httpjson.StatusError
	if !errors.As(err, &statusErr) {
		return fmt.Errorf("%w: %v", identity.ErrUpstream, err)
	}

	var body toolkitError
	if jsonErr := json.Unmarshal(statusErr.Body, &body); jsonErr != nil {
		return fmt.Errorf("%w: %v", identity.ErrUpstream, err)
	}
	code, _, _ := strings.Cut(body.Error.Message, " ")

	switch code {
	case "INVALID_PASSWORD", "EMAIL_NOT_FOUND", "INVALID_LOGIN_CREDENTIALS", "INVALID_EMAIL":
		return identity.ErrInvalidCredentials
	case "USER_DISABLED":
		return identity.ErrUserDisabled
	case "TOO_MANY_ATTEMPTS_TRY_LATER":
		return identity.ErrTooManyAttempts
	}
	return fmt.Errorf("%w: %s", identity.ErrUpstream, code)
}
