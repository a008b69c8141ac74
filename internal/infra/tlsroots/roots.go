package tlsroots

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrNoCertsFound is returned when no certificates are found in a PEM file.
	ErrNoCertsFound = errors.New("tlsroots: no certificates found in PEM data")

	// ErrMissingKeyPair is returned when only one of cert and key is set.
	ErrMissingKeyPair = errors.New("tlsroots: cert file and key file must be set together")
)

// Pool is a set of trusted CA certificates.
type Pool struct {
	certPool *x509.CertPool
	count    int
}

// NewPool creates a pool seeded with the system roots. If system roots
// cannot be loaded the pool starts empty.
func NewPool() *Pool {
	pool, err := x509.SystemCertPool()
	if err != nil {
		pool = x509.NewCertPool()
	}
	return &Pool{certPool: pool}
}

// NewEmptyPool creates a pool without system roots.
func NewEmptyPool() *Pool {
	return &Pool{certPool: x509.NewCertPool()}
}

// Add loads CA certificates from path. A directory contributes every
// .pem, .crt and .cer file in it.
func (p *Pool) Add(path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("tlsroots: %w", err)
	}
	if !fi.IsDir() {
		return p.addFile(path)
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return fmt.Errorf("tlsroots: read dir %s: %w", path, err)
	}
	before := p.count
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".pem", ".crt", ".cer":
			if err := p.addFile(filepath.Join(path, e.Name())); err != nil {
				return err
			}
		}
	}
	if p.count == before {
		return fmt.Errorf("%w: %s", ErrNoCertsFound, path)
	}
	return nil
}

func (p *Pool) addFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("tlsroots: read cert file %s: %w", path, err)
	}
	if err := p.AddPEM(data); err != nil {
		return fmt.Errorf("%w (%s)", err, path)
	}
	return nil
}

// AddPEM adds every CERTIFICATE block of pemData.
func (p *Pool) AddPEM(pemData []byte) error {
	added := 0
	for len(pemData) > 0 {
		var block *pem.Block
		block, pemData = pem.Decode(pemData)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return fmt.Errorf("tlsroots: parse certificate: %w", err)
		}
		p.certPool.AddCert(cert)
		added++
	}
	if added == 0 {
		return ErrNoCertsFound
	}
	p.count += added
	return nil
}

// Len returns the number of certificates added to the pool. System roots
// are not counted.
func (p *Pool) Len() int { return p.count }

// CertPool returns the underlying x509.CertPool.
func (p *Pool) CertPool() *x509.CertPool {
	return p.certPool
}

// ServerOptions describes the TLS setup of the RESP listener.
type ServerOptions struct {
	CertFile string
	KeyFile  string
	// CAFile verifies client certificates when AuthClients is set.
	CAFile      string
	AuthClients bool
}

// ServerConfig builds the listener tls.Config. The returned watcher
// serves the key pair; run it to pick up renewed certificates.
func ServerConfig(opts ServerOptions, wopts ...WatcherOption) (*tls.Config, *CertWatcher, error) {
	if opts.CertFile == "" || opts.KeyFile == "" {
		return nil, nil, ErrMissingKeyPair
	}
	cw, err := NewCertWatcher(opts.CertFile, opts.KeyFile, wopts...)
	if err != nil {
		return nil, nil, err
	}

	cfg := &tls.Config{
		GetCertificate: cw.GetCertificate,
		MinVersion:     tls.VersionTLS12,
	}
	if opts.AuthClients {
		pool := NewEmptyPool()
		if opts.CAFile == "" {
			return nil, nil, errors.New("tlsroots: client authentication needs a CA file")
		}
		if err := pool.Add(opts.CAFile); err != nil {
			return nil, nil, err
		}
		cfg.ClientCAs = pool.CertPool()
		cfg.ClientAuth = tls.RequireAndVerifyClientCert
	}
	return cfg, cw, nil
}

// ClientOptions describes the TLS setup of a RESP client.
type ClientOptions struct {
	ServerName string
	// CAFile is added to the system roots when set.
	CAFile string
	// CertFile and KeyFile present a client certificate when set.
	CertFile string
	KeyFile  string
	Insecure bool
}

// ClientConfig builds a client tls.Config.
func ClientConfig(opts ClientOptions) (*tls.Config, error) {
	pool := NewPool()
	if opts.CAFile != "" {
		if err := pool.Add(opts.CAFile); err != nil {
			return nil, err
		}
	}
	cfg := &tls.Config{
		RootCAs:            pool.CertPool(),
		ServerName:         opts.ServerName,
		InsecureSkipVerify: opts.Insecure, //nolint:gosec // explicit --insecure flag
		MinVersion:         tls.VersionTLS12,
	}
	if (opts.CertFile == "") != (opts.KeyFile == "") {
		return nil, ErrMissingKeyPair
	}
	if opts.CertFile != "" {
		cert, err := tls.LoadX509KeyPair(opts.CertFile, opts.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("tlsroots: load key pair: %w", err)
		}
		cfg.Certificates = []tls.Certificate{cert}
	}
	return cfg, nil
}
