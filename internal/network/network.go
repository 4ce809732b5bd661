// Package network classifies errors from outbound requests, so callers
// can tell a machine that is simply offline apart from a failing
// remote service.
package network

import (
	"errors"
	"net"
	"net/url"
	"strings"
	"syscall"
)

// Fragments of dial failures that indicate there is no usable route
// out, across platforms and resolvers. Matched as a fallback when the
// error does not carry a typed cause.
var offlineFragments = []string{
	"no such host",
	"connection refused",
	"network is unreachable",
	"no route to host",
	"host is down",
	"connection timed out",
	"temporary failure in name resolution",
}

// IsOfflineError reports whether err looks like a lost network rather
// than a broken remote. The update check uses it to stay quiet on
// machines without connectivity instead of logging a failure on every
// start.
func IsOfflineError(err error) bool {
	if err == nil {
		return false
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return IsOfflineError(urlErr.Err)
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && (dnsErr.IsNotFound || !dnsErr.Temporary()) {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		var errno syscall.Errno
		if errors.As(opErr.Err, &errno) {
			return errno == syscall.ECONNREFUSED ||
				errno == syscall.ENETUNREACH ||
				errno == syscall.EHOSTUNREACH ||
				errno == syscall.ETIMEDOUT
		}
		return opErr.Op == "dial" || opErr.Op == "read"
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, fragment := range offlineFragments {
		if strings.Contains(msg, fragment) {
			return true
		}
	}
	return false
}
