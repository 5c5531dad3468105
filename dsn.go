// Copyright (c) 2019-2024 Paradigm4, Inc. All rights reserved.

package goscidb

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultHost      = "localhost"
	defaultHTTPPort  = 8080
	defaultHTTPSPort = 8083

	defaultConnectTimeout = 60 * time.Second
	defaultMaxRetryCount  = 7
)

var (
	errInvalidDSNScheme = errors.New("invalid DSN: scheme must be http or https")
)

// Config is a set of connection parameters for Shim, SciDB's HTTP bridge.
type Config struct {
	Protocol string // http or https (optional)
	Host     string // Shim host (optional)
	Port     int    // Shim port (optional)

	User     string // username for HTTP Digest authentication (optional)
	Password string // password for HTTP Digest authentication (requires User)

	SciDBUser     string // database username forwarded to SciDB (requires https)
	SciDBPassword string // database password forwarded to SciDB (requires https)

	Role      string // role to assume in every session (optional)
	Namespace string // namespace to set in every session (optional)

	InsecureMode bool // skip TLS certificate verification

	ConnectTimeout time.Duration // dial timeout
	RequestTimeout time.Duration // request read timeout. 0 means no limit
	MaxRetryCount  int           // retry limit for transient request failures

	Transporter http.RoundTripper // RoundTripper to intercept HTTP requests (optional)
}

// ParseDSN parses the DSN string to a Config. The DSN is the Shim URL with
// optional HTTP Digest credentials and query parameters:
//
//	http[s]://[user[:password]@]host[:port][?param1=value1&...&paramN=valueN]
//
// An empty DSN yields the default configuration, http://localhost:8080.
func ParseDSN(dsn string) (*Config, error) {
	cfg := &Config{}
	if dsn != "" {
		u, err := url.Parse(dsn)
		if err != nil {
			return nil, &SciDBError{
				Number:      ErrCodeInvalidDSN,
				Message:     "failed to parse DSN. err: %v",
				MessageArgs: []interface{}{err},
			}
		}
		switch u.Scheme {
		case "http", "https":
			cfg.Protocol = u.Scheme
		default:
			return nil, errInvalidDSNScheme
		}
		cfg.Host = u.Hostname()
		if port := u.Port(); port != "" {
			cfg.Port, err = strconv.Atoi(port)
			if err != nil {
				return nil, &SciDBError{
					Number:      ErrCodeFailedToParsePort,
					Message:     errMsgFailedToParsePort,
					MessageArgs: []interface{}{port},
				}
			}
		}
		if u.User != nil {
			cfg.User = u.User.Username()
			cfg.Password, _ = u.User.Password()
		}
		if err = parseDSNParams(cfg, u.RawQuery); err != nil {
			return nil, err
		}
	}
	if err := fillMissingConfigParameters(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseDSNParams parses the DSN "query string". Values must be
// url.QueryEscape'd.
func parseDSNParams(cfg *Config, params string) error {
	values, err := url.ParseQuery(params)
	if err != nil {
		return &SciDBError{
			Number:      ErrCodeInvalidDSN,
			Message:     "failed to parse DSN parameters. err: %v",
			MessageArgs: []interface{}{err},
		}
	}
	for param, value := range values {
		v := value[len(value)-1]
		switch param {
		case "scidb_user":
			cfg.SciDBUser = v
		case "scidb_password":
			cfg.SciDBPassword = v
		case "role":
			cfg.Role = v
		case "namespace":
			cfg.Namespace = v
		case "insecure":
			cfg.InsecureMode, err = strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid insecure value. %v", v)
			}
		case "connect_timeout":
			cfg.ConnectTimeout, err = parseTimeout(v)
			if err != nil {
				return err
			}
		case "request_timeout":
			cfg.RequestTimeout, err = parseTimeout(v)
			if err != nil {
				return err
			}
		case "max_retry_count":
			cfg.MaxRetryCount, err = strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid max_retry_count value. %v", v)
			}
		default:
			logger.Debugf("unknown DSN parameter: %v", param)
		}
	}
	return nil
}

// parseTimeout reads a timeout DSN parameter given in seconds.
func parseTimeout(value string) (time.Duration, error) {
	vv, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout value. %v", value)
	}
	return time.Duration(vv * int64(time.Second)), nil
}

func fillMissingConfigParameters(cfg *Config) error {
	if strings.TrimSpace(cfg.Protocol) == "" {
		cfg.Protocol = "http"
	}
	if cfg.Protocol != "http" && cfg.Protocol != "https" {
		return errInvalidDSNScheme
	}
	if strings.TrimSpace(cfg.Host) == "" {
		cfg.Host = defaultHost
	}
	if cfg.Port == 0 {
		if cfg.Protocol == "https" {
			cfg.Port = defaultHTTPSPort
		} else {
			cfg.Port = defaultHTTPPort
		}
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = defaultConnectTimeout
	}
	if cfg.MaxRetryCount == 0 {
		cfg.MaxRetryCount = defaultMaxRetryCount
	}
	// Database credentials travel as URL parameters and would be readable
	// in flight on a plain HTTP connection.
	if (cfg.SciDBUser != "" || cfg.SciDBPassword != "") && cfg.Protocol != "https" {
		return ErrInsecureSciDBAuth
	}
	return nil
}

// DSN constructs a DSN string from the given Config.
func DSN(cfg *Config) (string, error) {
	if err := fillMissingConfigParameters(cfg); err != nil {
		return "", err
	}
	params := url.Values{}
	if cfg.SciDBUser != "" {
		params.Add("scidb_user", cfg.SciDBUser)
	}
	if cfg.SciDBPassword != "" {
		params.Add("scidb_password", cfg.SciDBPassword)
	}
	if cfg.Role != "" {
		params.Add("role", cfg.Role)
	}
	if cfg.Namespace != "" {
		params.Add("namespace", cfg.Namespace)
	}
	if cfg.InsecureMode {
		params.Add("insecure", "true")
	}
	if cfg.ConnectTimeout != defaultConnectTimeout {
		params.Add("connect_timeout", strconv.FormatInt(int64(cfg.ConnectTimeout/time.Second), 10))
	}
	if cfg.RequestTimeout > 0 {
		params.Add("request_timeout", strconv.FormatInt(int64(cfg.RequestTimeout/time.Second), 10))
	}
	if cfg.MaxRetryCount != defaultMaxRetryCount {
		params.Add("max_retry_count", strconv.Itoa(cfg.MaxRetryCount))
	}
	u := &url.URL{
		Scheme:   cfg.Protocol,
		Host:     fmt.Sprintf("%v:%v", cfg.Host, cfg.Port),
		RawQuery: params.Encode(),
	}
	if cfg.User != "" {
		if cfg.Password != "" {
			u.User = url.UserPassword(cfg.User, cfg.Password)
		} else {
			u.User = url.User(cfg.User)
		}
	}
	return u.String(), nil
}
