package goscidb

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"
)

// transportConfig holds the configuration for creating HTTP transports
type transportConfig struct {
	MaxIdleConns    int
	IdleConnTimeout time.Duration
	DialTimeout     time.Duration
	KeepAlive       time.Duration
}

// defaultTransportConfig returns the standard transport configuration
func defaultTransportConfig() *transportConfig {
	return &transportConfig{
		MaxIdleConns:    10,
		IdleConnTimeout: 30 * time.Minute,
		DialTimeout:     30 * time.Second,
		KeepAlive:       30 * time.Second,
	}
}

// transportFactory handles creation of HTTP transports
type transportFactory struct {
	config *Config
}

func newTransportFactory(config *Config) *transportFactory {
	return &transportFactory{config: config}
}

// createBaseTransport creates a base HTTP transport with the given configuration
func (tf *transportFactory) createBaseTransport(transportConfig *transportConfig, tlsConfig *tls.Config) *http.Transport {
	dialer := &net.Dialer{
		Timeout:   transportConfig.DialTimeout,
		KeepAlive: transportConfig.KeepAlive,
	}

	return &http.Transport{
		TLSClientConfig: tlsConfig,
		MaxIdleConns:    transportConfig.MaxIdleConns,
		IdleConnTimeout: transportConfig.IdleConnTimeout,
		Proxy:           http.ProxyFromEnvironment,
		DialContext:     dialer.DialContext,
	}
}

// createTransport is the main entry point for creating transports
func (tf *transportFactory) createTransport() http.RoundTripper {
	if tf.config.Transporter != nil {
		return tf.config.Transporter
	}
	transportConfig := defaultTransportConfig()
	if tf.config.ConnectTimeout > 0 {
		transportConfig.DialTimeout = tf.config.ConnectTimeout
	}
	if tf.config.InsecureMode {
		// Shim installations commonly run with a self-signed certificate.
		return tf.createBaseTransport(transportConfig, &tls.Config{InsecureSkipVerify: true})
	}
	return tf.createBaseTransport(transportConfig, nil)
}
