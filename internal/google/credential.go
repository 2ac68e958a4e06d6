package google

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// Sentinel errors.
var (
	// ErrAuthFailure wraps every failure to obtain a usable credential.
	ErrAuthFailure = errors.New("authentication failed")

	// ErrNoCredential is returned by a TokenStore that holds nothing.
	ErrNoCredential = errors.New("no stored credential")
)

// expirySkew matches the early-expiry window used by golang.org/x/oauth2.
const expirySkew = 10 * time.Second

// Credential is the persisted form of an OAuth token.
type Credential struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	Expiry       time.Time `json:"expiry,omitempty"`
	Scopes       []string  `json:"scopes,omitempty"`
	Strategy     string    `json:"strategy,omitempty"`
}

// Valid reports whether the access token can be used at now.
// A zero Expiry means the token does not expire.
func (c *Credential) Valid(now time.Time) bool {
	if c == nil || c.AccessToken == "" {
		return false
	}
	if c.Expiry.IsZero() {
		return true
	}
	return now.Add(expirySkew).Before(c.Expiry)
}

// Refreshable reports whether the credential carries a refresh token.
func (c *Credential) Refreshable() bool {
	return c != nil && c.RefreshToken != ""
}

// Token converts the credential to an oauth2.Token.
func (c *Credential) Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		TokenType:    c.TokenType,
		Expiry:       c.Expiry,
	}
}

// newCredential builds a Credential from a token returned by a provider.
// Granted scopes come from the token response when the server reports them.
func newCredential(tok *oauth2.Token, strategy string, requested []string) *Credential {
	scopes := requested
	if granted, ok := tok.Extra("scope").(string); ok && granted != "" {
		scopes = strings.Fields(granted)
	}
	return &Credential{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		Expiry:       tok.Expiry,
		Scopes:       scopes,
		Strategy:     strategy,
	}
}
