package server

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/mpapenbr/pitstrategy/log"
	"github.com/mpapenbr/pitstrategy/pkg/config"
	"github.com/mpapenbr/pitstrategy/pkg/utils/certs/traefik"
)

type certs struct {
	ctx       context.Context
	tlsconfig *tls.Config
	log       *log.Logger
	cert      *tls.Certificate
	mu        sync.RWMutex
}

// NewTLSConfigProvider returns nil if no certificate could be loaded.
// Changes of the certificate files are picked up until ctx is done.
func NewTLSConfigProvider(ctx context.Context) *tls.Config {
	c := &certs{
		ctx: ctx,
		log: log.GetFromContext(ctx).Named("server.certs"),
	}
	c.loadCert()
	if c.current() == nil {
		return nil
	}
	c.tlsconfig = &tls.Config{
		GetCertificate: func(chi *tls.ClientHelloInfo) (*tls.Certificate, error) {
			return c.current(), nil
		},
		MinVersion: tls.VersionTLS13,
	}
	if config.TLSCAFile != "" {
		c.addClientCA(config.TLSCAFile)
	}
	go c.watchAndReloadCerts()
	return c.tlsconfig
}

func (c *certs) current() *tls.Certificate {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cert
}

func (c *certs) addClientCA(file string) {
	c.log.Info("Loading ca cert", log.String("file", file))
	caCert, err := os.ReadFile(file)
	if err != nil {
		c.log.Error("could not read TLS root CA", log.ErrorField(err))
		return
	}
	caCertPool := x509.NewCertPool()
	if ok := caCertPool.AppendCertsFromPEM(caCert); !ok {
		c.log.Error("could not append cert to pool")
		return
	}
	c.tlsconfig.ClientCAs = caCertPool
	c.tlsconfig.ClientAuth = tls.VerifyClientCertIfGiven
}

func (c *certs) watchAndReloadCerts() {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		c.log.Error("could not create fsnotify watcher", log.ErrorField(err))
		return
	}
	defer watcher.Close()

	for _, file := range []string{
		config.TLSCertFile, config.TLSKeyFile, config.TraefikCerts,
	} {
		if file == "" {
			continue
		}
		if err := watcher.Add(file); err != nil {
			c.log.Error("could not watch file",
				log.String("file", file), log.ErrorField(err))
		}
	}
	for {
		select {
		case <-c.ctx.Done():
			c.log.Info("context done, stopping cert reload")
			return
		case event, ok := <-watcher.Events:
			if !ok {
				c.log.Info("watcher events channel closed, stopping cert reload")
				return
			}
			c.log.Debug("change detected",
				log.String("file", event.Name), log.Any("event", event))
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Chmod) ||
				event.Has(fsnotify.Create) {

				c.log.Info("cert file changed, reloading cert",
					log.String("file", event.Name))
				c.loadCert()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				c.log.Info("watcher errors channel closed, stopping cert reload")
				return
			}
			c.log.Error("watcher error", log.ErrorField(err))
		}
	}
}

// loadCert prefers the traefik acme file over plain cert/key files.
// The current certificate is kept if loading fails.
func (c *certs) loadCert() {
	var cert tls.Certificate
	var err error
	switch {
	case config.TraefikCerts != "" && config.TraefikCertDomain != "":
		c.log.Info("Looking up traefik certs",
			log.String("file", config.TraefikCerts),
			log.String("domain", config.TraefikCertDomain))
		cert, err = traefik.GetCertFromTraefik(
			config.TraefikCerts,
			config.TraefikCertDomain)
	case config.TLSCertFile != "" && config.TLSKeyFile != "":
		c.log.Info("Loading cert",
			log.String("key", config.TLSKeyFile),
			log.String("cert", config.TLSCertFile))
		cert, err = tls.LoadX509KeyPair(config.TLSCertFile, config.TLSKeyFile)
	default:
		return
	}
	if err != nil {
		c.log.Error("could not load certificate", log.ErrorField(err))
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cert = &cert
}
