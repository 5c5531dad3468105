// Copyright (c) 2019-2024 Paradigm4, Inc. All rights reserved.

package goscidb

import (
	"fmt"
	"net/http"
	"net/url"
	"runtime"

	"github.com/icholy/digest"
)

var userAgent = fmt.Sprintf("goscidb/%v/%v/%v/%v-%v",
	SciDBGoClientVersion,
	runtime.Compiler,
	runtime.Version(),
	runtime.GOOS,
	runtime.GOARCH)

// authTransport wraps the base transport with HTTP Digest authentication
// when Shim credentials are configured. Shim challenges every request when
// it runs with HTTP authentication enabled, so the wrapper applies to all
// endpoints.
func authTransport(cfg *Config, base http.RoundTripper) http.RoundTripper {
	if cfg.User == "" {
		return base
	}
	return &digest.Transport{
		Username:  cfg.User,
		Password:  cfg.Password,
		Transport: base,
	}
}

// scidbAuthParams returns the URL parameters carrying database credentials.
// Shim forwards these to SciDB, and only the execute_query and cancel
// endpoints accept them.
func scidbAuthParams(cfg *Config) url.Values {
	if cfg.SciDBUser == "" && cfg.SciDBPassword == "" {
		return nil
	}
	params := url.Values{}
	params.Set("user", cfg.SciDBUser)
	params.Set("password", cfg.SciDBPassword)
	return params
}
