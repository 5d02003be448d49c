package api

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"

	"github.com/AaronLay10/BlindEngine/internal/events"
)

const (
	EnvTLSCert       = "BLINDENGINE_TLS_CERT"
	EnvTLSKey        = "BLINDENGINE_TLS_KEY"
	EnvTLSMinVersion = "BLINDENGINE_TLS_MIN_VERSION"
	// EnvTLSClientCA names a PEM bundle; when set, clients must present a
	// certificate signed by it.
	EnvTLSClientCA = "BLINDENGINE_TLS_CLIENT_CA"
)

// TLSConfig is the listener's TLS setup.
type TLSConfig struct {
	CertFile   string
	KeyFile    string
	ClientCA   string
	MinVersion uint16
}

var tlsConfig *TLSConfig

// InitTLS reads the BLINDENGINE_TLS_* variables. TLS stays off unless both
// the certificate and key are set. A half-configured pair is logged and
// ignored; an unknown minimum version is an error.
func InitTLS() error {
	tlsConfig = nil
	cert, key := os.Getenv(EnvTLSCert), os.Getenv(EnvTLSKey)
	if cert == "" || key == "" {
		if cert != key {
			events.Logger().Warn().Msgf("%s and %s must both be set, serving plain HTTP", EnvTLSCert, EnvTLSKey)
		}
		return nil
	}
	minVersion, err := parseTLSVersion(os.Getenv(EnvTLSMinVersion))
	if err != nil {
		return err
	}
	tlsConfig = &TLSConfig{
		CertFile:   cert,
		KeyFile:    key,
		ClientCA:   os.Getenv(EnvTLSClientCA),
		MinVersion: minVersion,
	}
	return nil
}

func parseTLSVersion(v string) (uint16, error) {
	switch v {
	case "", "1.2":
		return tls.VersionTLS12, nil
	case "1.3":
		return tls.VersionTLS13, nil
	}
	return 0, fmt.Errorf("%s: unsupported version %q (want 1.2 or 1.3)", EnvTLSMinVersion, v)
}

func IsTLSEnabled() bool { return tlsConfig != nil }

// LoadTLSConfig builds the listener config. It returns nil, nil when TLS
// is off and an error when the configured files cannot be used, so a
// broken setup never falls back to plain HTTP.
func LoadTLSConfig() (*tls.Config, error) {
	if tlsConfig == nil {
		return nil, nil
	}
	cert, err := tls.LoadX509KeyPair(tlsConfig.CertFile, tlsConfig.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("load TLS key pair: %w", err)
	}
	cfg := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tlsConfig.MinVersion,
	}
	if tlsConfig.ClientCA != "" {
		pem, err := os.ReadFile(tlsConfig.ClientCA)
		if err != nil {
			return nil, fmt.Errorf("read client CA: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("client CA %s holds no certificates", tlsConfig.ClientCA)
		}
		cfg.ClientCAs = pool
		cfg.ClientAuth = tls.RequireAndVerifyClientCert
	}
	return cfg, nil
}
