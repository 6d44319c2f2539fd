package token

import (
	"errors"
	"fmt"
	"strings"

	bootstraputil "k8s.io/cluster-bootstrap/token/util"
)

// ErrInvalidToken is returned for strings that are not bootstrap tokens.
var ErrInvalidToken = errors.New("invalid join token")

// Token is a kubeadm bootstrap token.
type Token struct {
	id     string
	secret string
}

// Generate returns a new random token.
func Generate() (Token, error) {
	raw, err := bootstraputil.GenerateBootstrapToken()
	if err != nil {
		return Token{}, fmt.Errorf("failed to generate join token: %w", err)
	}
	return Parse(raw)
}

// Parse validates s and splits it into id and secret.
func Parse(s string) (Token, error) {
	if !bootstraputil.IsValidBootstrapToken(s) {
		return Token{}, fmt.Errorf("%w: expected <6 chars>.<16 chars> of [a-z0-9]", ErrInvalidToken)
	}
	id, secret, _ := strings.Cut(s, ".")
	return Token{id: id, secret: secret}, nil
}

// ID is the public part of the token.
func (t Token) ID() string { return t.id }

// Secret is the private part of the token.
func (t Token) Secret() string { return t.secret }

// IsZero reports whether t is the zero Token.
func (t Token) IsZero() bool { return t.id == "" && t.secret == "" }

// String returns the token in "<id>.<secret>" form.
func (t Token) String() string {
	if t.IsZero() {
		return ""
	}
	return t.id + "." + t.secret
}

// Redacted returns the token with the secret masked, for logs.
func (t Token) Redacted() string {
	if t.IsZero() {
		return ""
	}
	return t.id + "." + strings.Repeat("*", len(t.secret))
}
