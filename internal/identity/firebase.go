package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"

	"github.com/expert-buddy/expertbuddy-backend/config"
)

const identityToolkitURL = "https://identitytoolkit.googleapis.com/v1/accounts:signInWithPassword"

// FirebaseProvider adapts the Firebase Admin SDK (plus the Identity
// Toolkit REST endpoint for password verification, which the Admin SDK
// does not expose) to the Provider contract.
type FirebaseProvider struct {
	client    *fbauth.Client
	apiKey    string
	tokenSrc  oauth2.TokenSource
	httpc     *http.Client
	mu        sync.Mutex
	listeners []func(userID string)
}

// NewFirebaseProvider initializes the Firebase Admin SDK from the
// configured service-account credentials file.
func NewFirebaseProvider(ctx context.Context, cfg *config.FirebaseConfig) (*FirebaseProvider, error) {
	if cfg.CredentialsPath == "" {
		return nil, fmt.Errorf("FIREBASE_CREDENTIALS_PATH is required")
	}

	opt := option.WithCredentialsFile(cfg.CredentialsPath)
	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	authClient, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get Auth client: %w", err)
	}

	p := &FirebaseProvider{
		client: authClient,
		apiKey: cfg.WebAPIKey,
		httpc:  &http.Client{Timeout: 10 * time.Second},
	}

	// Without a browser API key the REST call authenticates with a
	// service-account OAuth token instead.
	if p.apiKey == "" {
		creds, err := google.FindDefaultCredentials(ctx, "https://www.googleapis.com/auth/identitytoolkit")
		if err != nil {
			return nil, fmt.Errorf("no FIREBASE_WEB_API_KEY and no default credentials: %w", err)
		}
		p.tokenSrc = creds.TokenSource
	}

	return p, nil
}

func (p *FirebaseProvider) VerifyCredentials(ctx context.Context, email, password string) (*Identity, error) {
	payload, err := json.Marshal(map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	})
	if err != nil {
		return nil, err
	}

	url := identityToolkitURL
	if p.apiKey != "" {
		url += "?key=" + p.apiKey
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	if p.tokenSrc != nil {
		tok, err := p.tokenSrc.Token()
		if err != nil {
			return nil, fmt.Errorf("mint identity toolkit token: %w", err)
		}
		tok.SetAuthHeader(req)
	}

	resp, err := p.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity toolkit request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.Unmarshal(body, &apiErr)
		msg := apiErr.Error.Message
		if strings.Contains(msg, "EMAIL_NOT_FOUND") ||
			strings.Contains(msg, "INVALID_PASSWORD") ||
			strings.Contains(msg, "INVALID_LOGIN_CREDENTIALS") {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("identity toolkit: %s (status %d)", msg, resp.StatusCode)
	}

	var ok struct {
		LocalID string `json:"localId"`
		Email   string `json:"email"`
	}
	if err := json.Unmarshal(body, &ok); err != nil {
		return nil, fmt.Errorf("decode identity toolkit response: %w", err)
	}

	return &Identity{UserID: ok.LocalID, Email: ok.Email}, nil
}

func (p *FirebaseProvider) CreateIdentity(ctx context.Context, email, password string) (*Identity, error) {
	params := (&fbauth.UserToCreate{}).Email(email).Password(password)
	rec, err := p.client.CreateUser(ctx, params)
	if err != nil {
		if fbauth.IsEmailAlreadyExists(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create firebase user: %w", err)
	}
	return &Identity{UserID: rec.UID, Email: rec.Email}, nil
}

func (p *FirebaseProvider) EmailInUse(ctx context.Context, email string) (bool, error) {
	_, err := p.client.GetUserByEmail(ctx, email)
	if err != nil {
		if fbauth.IsUserNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("lookup firebase user: %w", err)
	}
	return true, nil
}

func (p *FirebaseProvider) DestroySession(ctx context.Context, userID string) error {
	if userID == "" {
		return nil
	}
	if err := p.client.RevokeRefreshTokens(ctx, userID); err != nil {
		return fmt.Errorf("revoke refresh tokens: %w", err)
	}
	return nil
}

func (p *FirebaseProvider) OnIdentityChange(fn func(userID string)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, fn)
}

// NotifyIdentityChange fans an out-of-band invalidation (observed
// revocation, expired token) out to registered listeners.
func (p *FirebaseProvider) NotifyIdentityChange(userID string) {
	p.mu.Lock()
	listeners := make([]func(string), len(p.listeners))
	copy(listeners, p.listeners)
	p.mu.Unlock()

	for _, fn := range listeners {
		fn(userID)
	}
}
