package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/idtoken"
)

var ErrNotAJWT = errors.New("credential is not a JWT")

// GoogleIdentity holds the verified claims from a google ID token.
type GoogleIdentity struct {
	Email    string
	Name     string
	Picture  string
	GoogleID string
}

type GoogleVerifier struct {
	clientID string
	oauthCfg *oauth2.Config
	// ability to inject the id token validation (for unit testing)
	ValidateFunc func(ctx context.Context, idToken, audience string) (*idtoken.Payload, error)
}

func NewGoogleVerifier(clientID, clientSecret string) *GoogleVerifier {
	return &GoogleVerifier{
		clientID: clientID,
		oauthCfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     google.Endpoint,
			// the web client obtains the code via the popup flow
			RedirectURL: "postmessage",
		},
		ValidateFunc: idtoken.Validate,
	}
}

// VerifyCredential checks a google-issued ID token and extracts the identity
// claims. Malformed tokens (not 3 dot-separated segments) are rejected before
// calling google at all.
func (v *GoogleVerifier) VerifyCredential(ctx context.Context, credential string) (*GoogleIdentity, error) {
	if len(strings.Split(credential, ".")) != 3 {
		return nil, ErrNotAJWT
	}

	payload, err := v.ValidateFunc(ctx, credential, v.clientID)
	if err != nil {
		return nil, fmt.Errorf("validate google id token: %w", err)
	}

	email, _ := payload.Claims["email"].(string)
	if email == "" {
		return nil, errors.New("google id token carries no email")
	}

	name, _ := payload.Claims["name"].(string)
	if name == "" {
		name = strings.Split(email, "@")[0]
	}
	picture, _ := payload.Claims["picture"].(string)

	return &GoogleIdentity{
		Email:    email,
		Name:     name,
		Picture:  picture,
		GoogleID: payload.Subject,
	}, nil
}

// ExchangeCode swaps a google authorization code for the ID token it grants.
func (v *GoogleVerifier) ExchangeCode(ctx context.Context, code string) (string, error) {
	token, err := v.oauthCfg.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("exchange authorization code: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return "", errors.New("token response carries no id_token")
	}

	return rawIDToken, nil
}
