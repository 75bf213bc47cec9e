// Package stringutil contains formatting helpers shared by the web and client packages.
package stringutil

import (
	"net/mail"
	"strings"
)

// StringAddress converts an Address to a UTF-8 string, or "" if nil.
func StringAddress(a *mail.Address) string {
	if a == nil {
		return ""
	}
	switch {
	case a.Address == "":
		return a.Name
	case a.Name == "":
		return "<" + a.Address + ">"
	}
	return a.Name + " <" + a.Address + ">"
}

// StringAddressList converts a list of addresses to a list of UTF-8 strings.
func StringAddressList(addrs []*mail.Address) []string {
	s := make([]string, len(addrs))
	for i, a := range addrs {
		s[i] = StringAddress(a)
	}
	return s
}

// MakePathPrefixer returns a func that prefixes paths with the provided base path.
func MakePathPrefixer(prefix string) func(string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix != "" {
		prefix = "/" + prefix
	}
	return func(path string) string {
		return prefix + path
	}
}
