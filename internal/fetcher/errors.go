package fetcher

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
)

// NetworkError wraps connection and timeout failures. These are recoverable:
// the engine logs them, counts the task as failed, and keeps crawling.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error fetching %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// TLSError wraps certificate validation failures. Raised only when TLS
// verification is enabled; with verification off these surface as plain
// network errors or succeed.
type TLSError struct {
	URL string
	Err error
}

func (e *TLSError) Error() string {
	return fmt.Sprintf("tls error fetching %s: %v", e.URL, e.Err)
}

func (e *TLSError) Unwrap() error { return e.Err }

// classifyErr maps a transport error onto the fetch error taxonomy.
func classifyErr(rawURL string, err error) error {
	if err == nil {
		return nil
	}
	var certErr *tls.CertificateVerificationError
	var hostErr x509.HostnameError
	var authErr x509.UnknownAuthorityError
	if errors.As(err, &certErr) || errors.As(err, &hostErr) || errors.As(err, &authErr) {
		return &TLSError{URL: rawURL, Err: err}
	}
	return &NetworkError{URL: rawURL, Err: err}
}
