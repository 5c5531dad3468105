// Copyright (c) 2021-2024 Paradigm4, Inc. All rights reserved.

package goscidb

import (
	"regexp"
)

const (
	// matches password and scidb_password values in URL query strings and
	// key = "value" pairs from connections.toml
	passwordPattern = `(?i)(password|pwd)([\'\"\s:=]+)([a-z0-9!#\$%&\(\)\*\+\,\-\./:;<=>\?@\[\]\^_\{\|\}~]{3,})`
	// matches user:password@host in DSN strings
	dsnPasswordPattern = `([^/:@\s]+):([^@/:\s]{3,})@`
)

var (
	passwordRegexp    = regexp.MustCompile(passwordPattern)
	dsnPasswordRegexp = regexp.MustCompile(dsnPasswordPattern)
)

type secretmasker string

func (s secretmasker) maskPassword() secretmasker {
	return secretmasker(passwordRegexp.ReplaceAllString(s.String(), "$1${2}****"))
}

func (s secretmasker) maskDsnPassword() secretmasker {
	return secretmasker(dsnPasswordRegexp.ReplaceAllString(s.String(), "$1:****@"))
}

func (s secretmasker) String() string {
	return string(s)
}

// maskSecrets masks credentials embedded in text before it reaches logs or
// test failure messages.
func maskSecrets(text string) string {
	return secretmasker(text).
		maskPassword().
		maskDsnPassword().
		String()
}
