package token

import (
	"context"
	"errors"
	"os"
	"strings"
)

// Provider supplies the access token used to authenticate the socket and
// REST calls. Implementations must be safe for concurrent use.
type Provider interface {
	Token(ctx context.Context) (string, error)
}

// Func adapts a plain function to Provider.
type Func func(ctx context.Context) (string, error)

func (f Func) Token(ctx context.Context) (string, error) { return f(ctx) }

// Static always returns the same token. An empty string yields ErrNoToken.
type Static string

func (s Static) Token(context.Context) (string, error) {
	if s == "" {
		return "", ErrNoToken
	}
	return string(s), nil
}

// Env reads the token from the named environment variable on every call.
type Env string

func (e Env) Token(context.Context) (string, error) {
	v := strings.TrimSpace(os.Getenv(string(e)))
	if v == "" {
		return "", ErrNoToken
	}
	return v, nil
}

// Chain asks each provider in turn and returns the first token found.
// Errors other than ErrNoToken stop the chain.
func Chain(providers ...Provider) Provider {
	return Func(func(ctx context.Context) (string, error) {
		for _, p := range providers {
			if p == nil {
				continue
			}
			tok, err := p.Token(ctx)
			switch {
			case err == nil && tok != "":
				return tok, nil
			case err != nil && !errors.Is(err, ErrNoToken):
				return "", err
			}
		}
		return "", ErrNoToken
	})
}

// Require fetches a token and normalises "no token" outcomes, including a
// nil provider or an empty string with a nil error, to ErrNoToken.
func Require(ctx context.Context, p Provider) (string, error) {
	if p == nil {
		return "", ErrNoToken
	}
	tok, err := p.Token(ctx)
	if err != nil {
		return "", err
	}
	if tok == "" {
		return "", ErrNoToken
	}
	return tok, nil
}
