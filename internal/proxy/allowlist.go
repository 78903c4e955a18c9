package proxy

import (
	"errors"
	"net/url"
	"strings"
)

var (
	ErrMissingURL       = errors.New("missing url parameter")
	ErrInvalidURL       = errors.New("invalid url")
	ErrDomainNotAllowed = errors.New("domain not allowed")
)

// AllowList is a set of hostnames. A host matches an entry when it equals
// it or is a subdomain of it.
type AllowList []string

func NewAllowList(hosts ...string) AllowList {
	list := make(AllowList, 0, len(hosts))
	for _, h := range hosts {
		h = strings.Trim(strings.ToLower(strings.TrimSpace(h)), ".")
		if h != "" {
			list = append(list, h)
		}
	}
	return list
}

func (l AllowList) Allows(host string) bool {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	if host == "" {
		return false
	}
	for _, entry := range l {
		if host == entry || strings.HasSuffix(host, "."+entry) {
			return true
		}
	}
	return false
}

// IsAllowed reports whether rawURL parses and its host is allow-listed.
func IsAllowed(rawURL string, hosts []string) bool {
	_, err := Validate(rawURL, NewAllowList(hosts...))
	return err == nil
}

// Validate parses an http(s) target and checks it against the list.
func Validate(rawURL string, list AllowList) (*url.URL, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, ErrMissingURL
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, ErrInvalidURL
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, ErrInvalidURL
	}
	if u.Hostname() == "" {
		return nil, ErrInvalidURL
	}

	if !list.Allows(u.Hostname()) {
		return nil, ErrDomainNotAllowed
	}
	return u, nil
}
