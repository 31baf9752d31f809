package types

import (
	"errors"
	"fmt"
	"strings"
)

// Backend lifecycle errors.
var (
	ErrDetached        = errors.New("backend is detached")
	ErrAlreadyAttached = errors.New("backend is already attached")
)

// Storage errors surfaced by the entity layer.
var (
	ErrNotFound        = errors.New("entity not found")
	ErrConflict        = errors.New("entity already exists")
	ErrIntegrityFault  = errors.New("index references missing state")
	ErrInvalidArgument = errors.New("invalid argument")
)

// Service errors returned by the tracker layer.
var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserInactive       = errors.New("user is not active")
	ErrForbidden          = errors.New("operation not permitted")
	ErrProtected          = errors.New("entity is protected")
)

// IntegrityError reports index entries whose state could not be read.
// It matches ErrIntegrityFault under errors.Is.
type IntegrityError struct {
	Index string
	IDs   []string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("index %s: %d id(s) without state: %s",
		e.Index, len(e.IDs), strings.Join(e.IDs, ", "))
}

func (e *IntegrityError) Unwrap() error { return ErrIntegrityFault }
