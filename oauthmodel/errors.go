package oauthmodel

import "errors"

var (
	ErrMissingAccessToken = errors.New("auth response missing access token")
	ErrMissingIDToken     = errors.New("auth response missing id token")
	ErrMissingSubject     = errors.New("profile missing subject")
)
