package domain

import "errors"

// Common domain errors
var (
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrInternalServer     = errors.New("internal server error")
	ErrDuplicateEntry     = errors.New("duplicate entry")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("token invalid")
)

// User errors
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrInvalidPassword   = errors.New("invalid password")
)

// Request errors
var (
	ErrRequestNotFound   = errors.New("request not found")
	ErrRequestResolved   = errors.New("request already resolved")
	ErrRequestDeleted    = errors.New("request is deleted")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Project errors
var (
	ErrProjectNotFound = errors.New("project not found")
	ErrNotProjectOwner = errors.New("not the project owner")
	ErrAlreadyMember   = errors.New("user is already a project member")
)
