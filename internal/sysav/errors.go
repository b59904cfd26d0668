package sysav

import (
	"errors"
	"fmt"

	"github.com/auto-dns/sysav-sync/internal/domain"
)

// ErrClientClosed is returned by any network call made after Close.
var ErrClientClosed = errors.New("sysav client is closed")

// DiscoveryError means no API base was supplied and none could be inferred.
type DiscoveryError struct {
	PageURL string
	Err     error
}

func NewDiscoveryError(pageURL string, err error) *DiscoveryError {
	return &DiscoveryError{PageURL: pageURL, Err: err}
}

func (e *DiscoveryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("could not discover API base from %s: %v", e.PageURL, e.Err)
	}
	return fmt.Sprintf("could not discover API base from %s: no known API url found in page", e.PageURL)
}

func (e *DiscoveryError) Unwrap() error {
	return e.Err
}

// QueryError means none of the candidate endpoints produced a usable response.
type QueryError struct {
	Err error
}

func NewQueryError(err error) *QueryError {
	return &QueryError{Err: err}
}

func (e *QueryError) Error() string {
	if e.Err == nil {
		return "no compatible endpoint found"
	}
	return fmt.Sprintf("no endpoint returned usable data: %v", e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

type UnsupportedMunicipalityError struct {
	municipality domain.Municipality
}

func NewUnsupportedMunicipalityError(m domain.Municipality) *UnsupportedMunicipalityError {
	return &UnsupportedMunicipalityError{municipality: m}
}

func (e *UnsupportedMunicipalityError) Error() string {
	return fmt.Sprintf("unsupported municipality: %q", string(e.municipality))
}

type statusError struct {
	method     string
	url        string
	statusCode int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%s %s returned status %d", e.method, e.url, e.statusCode)
}

// InvalidAPIBaseError means a supplied API base is not an absolute http(s) URL.
type InvalidAPIBaseError struct {
	APIBase string
	Err     error
}

func NewInvalidAPIBaseError(apiBase string, err error) *InvalidAPIBaseError {
	return &InvalidAPIBaseError{APIBase: apiBase, Err: err}
}

func (e *InvalidAPIBaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid api base %q: %v", e.APIBase, e.Err)
	}
	return fmt.Sprintf("api base %q is not an absolute http(s) url", e.APIBase)
}

func (e *InvalidAPIBaseError) Unwrap() error {
	return e.Err
}
