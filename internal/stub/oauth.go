package stub

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// StateConfig configures the anti-forgery state tokens handed out by the
// authorize endpoint. They are signed and expiring so a pasted code cannot
// be exchanged against a forged or stale state.
type StateConfig struct {
	Secret string
	Expiry time.Duration
	Issuer string
}

type stateClaims struct {
	Provider string `json:"provider"`
	jwt.RegisteredClaims
}

// OAuth tracks which providers have completed the code exchange.
type OAuth struct {
	cfg StateConfig

	mu            sync.Mutex
	authenticated map[string]bool
}

func NewOAuth(cfg StateConfig) *OAuth {
	if cfg.Issuer == "" {
		cfg.Issuer = "chika-stub"
	}
	return &OAuth{cfg: cfg, authenticated: make(map[string]bool)}
}

// NewState mints a signed state token bound to the provider.
func (o *OAuth) NewState(provider string) (string, error) {
	if o.cfg.Secret == "" {
		return "", errors.New("missing secret")
	}
	if provider == "" {
		return "", errors.New("missing provider")
	}

	claims := stateClaims{
		Provider: provider,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    o.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(o.cfg.Expiry)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(o.cfg.Secret))
}

// Exchange verifies the code/state pair. The code may arrive in the
// "code#state" paste format; the embedded state wins over the submitted
// one in that case, mirroring the real backend. A valid exchange marks the
// provider authenticated.
func (o *OAuth) Exchange(provider, code, state string) bool {
	code = strings.TrimSpace(code)
	if code == "" {
		return false
	}
	if i := strings.IndexByte(code, '#'); i >= 0 {
		if embedded := code[i+1:]; embedded != "" {
			state = embedded
		}
		code = code[:i]
		if code == "" {
			return false
		}
	}

	claims := &stateClaims{}
	parsed, err := jwt.ParseWithClaims(state, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(o.cfg.Secret), nil
	})
	if err != nil || !parsed.Valid || claims.Provider != provider {
		return false
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.authenticated[provider] = true
	return true
}

// Authenticated lists the providers that completed an exchange.
func (o *OAuth) Authenticated() []string {
	o.mu.Lock()
	defer o.mu.Unlock()

	result := make([]string, 0, len(o.authenticated))
	for p := range o.authenticated {
		result = append(result, p)
	}
	return result
}
