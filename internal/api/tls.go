package api

import (
	"crypto/tls"
	"fmt"
	"os"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// TLSConfig names the certificate and key served by the API.
type TLSConfig struct {
	CertFile string
	KeyFile  string
}

var tlsConfig *TLSConfig

// InitTLS enables TLS when both SENTIENT_TLS_CERT and SENTIENT_TLS_KEY
// are set. Setting only one of them is reported and leaves TLS off.
func InitTLS() {
	tlsConfig = nil
	cert, key := os.Getenv("SENTIENT_TLS_CERT"), os.Getenv("SENTIENT_TLS_KEY")
	switch {
	case cert != "" && key != "":
		tlsConfig = &TLSConfig{CertFile: cert, KeyFile: key}
		log.WithField("cert", cert).Info("api: TLS enabled")
	case cert != "" || key != "":
		log.Warn("api: SENTIENT_TLS_CERT and SENTIENT_TLS_KEY must both be set, TLS disabled")
	}
}

// IsTLSEnabled reports whether a certificate is configured.
func IsTLSEnabled() bool {
	return tlsConfig != nil && tlsConfig.CertFile != "" && tlsConfig.KeyFile != ""
}

// GetTLSConfig returns the configured paths, or nil.
func GetTLSConfig() *TLSConfig {
	return tlsConfig
}

// SetTLSConfigForTest replaces the configured paths.
func SetTLSConfigForTest(cfg *TLSConfig) {
	tlsConfig = cfg
}

// LoadTLSConfig returns a server tls.Config, or nil when TLS is off. The
// key pair is reloaded when the certificate file changes on disk, so a
// renewed certificate is picked up without a restart.
func LoadTLSConfig() (*tls.Config, error) {
	if !IsTLSEnabled() {
		return nil, nil
	}

	r := &certReloader{cert: tlsConfig.CertFile, key: tlsConfig.KeyFile}
	if err := r.load(); err != nil {
		return nil, err
	}
	return &tls.Config{
		MinVersion: tls.VersionTLS12,
		GetCertificate: func(*tls.ClientHelloInfo) (*tls.Certificate, error) {
			return r.get()
		},
	}, nil
}

type certReloader struct {
	cert, key string

	mu      sync.Mutex
	pair    *tls.Certificate
	modTime time.Time
}

func (r *certReloader) load() error {
	info, err := os.Stat(r.cert)
	if err != nil {
		return fmt.Errorf("load TLS certificate: %w", err)
	}
	pair, err := tls.LoadX509KeyPair(r.cert, r.key)
	if err != nil {
		return fmt.Errorf("load TLS certificate: %w", err)
	}
	r.pair, r.modTime = &pair, info.ModTime()
	return nil
}

func (r *certReloader) get() (*tls.Certificate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if info, err := os.Stat(r.cert); err == nil && info.ModTime().After(r.modTime) {
		if err := r.load(); err != nil {
			// Keep serving the previous pair.
			log.WithError(err).Warn("api: TLS certificate reload failed")
		} else {
			log.WithField("cert", r.cert).Info("api: TLS certificate reloaded")
		}
	}
	return r.pair, nil
}
