// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrTenantNotFound indicates no tenant record exists for a subdomain.
var ErrTenantNotFound = errors.New("tenant not found")

// ErrSubdomainInvalid indicates a subdomain candidate failed validation.
var ErrSubdomainInvalid = errors.New("subdomain invalid")

// ErrSubdomainTaken indicates a subdomain is already claimed by another tenant.
var ErrSubdomainTaken = errors.New("subdomain taken")

// ErrInvalidTenantID indicates a string is not a valid tenant identifier.
var ErrInvalidTenantID = errors.New("invalid tenant id")

// ErrInvalidCredentials indicates an email/password pair was rejected.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrMalformedResponse indicates a login response was missing required
// fields (token or user).
var ErrMalformedResponse = errors.New("malformed login response")

// ErrMissingTenantLinkage indicates a login response carried a user with no
// tenant identifier. Kept distinct from ErrInvalidCredentials so a backend
// data problem is never mistaken for a wrong password.
var ErrMissingTenantLinkage = errors.New("login response missing tenant linkage")

// ErrUnauthenticated indicates an operation requires an authenticated session.
var ErrUnauthenticated = errors.New("unauthenticated")
