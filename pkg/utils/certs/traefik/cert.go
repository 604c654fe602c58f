package traefik

import (
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"os"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
)

var ErrDomainNotFound = errors.New("domain not found")

// acmeEntry is an element of the Certificates list in a traefik acme.json
type acmeEntry struct {
	Certificate string `json:"certificate"`
	Key         string `json:"key"`
}

// GetCertFromTraefik reads the certificate for domain from a traefik acme file
func GetCertFromTraefik(file, domain string) (tls.Certificate, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("read acme file: %w", err)
	}
	return GetCertificate(string(data), domain)
}

func GetCertificate(jsonData, domain string) (tls.Certificate, error) {
	certData, keyData, err := getCertData(jsonData, domain)
	if err != nil {
		return tls.Certificate{}, err
	}
	decodedCertData, err := base64.StdEncoding.DecodeString(certData)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("decode certificate: %w", err)
	}
	decodedKeyData, err := base64.StdEncoding.DecodeString(keyData)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("decode key: %w", err)
	}
	return tls.X509KeyPair(decodedCertData, decodedKeyData)
}

// getCertData returns the base64 encoded certificate and key of the first
// entry whose main domain matches. Entries of all resolvers are searched.
func getCertData(jsonData, domain string) (cert, key string, err error) {
	obj, err := oj.ParseString(jsonData)
	if err != nil {
		return "", "", err
	}
	path, err := jp.ParseString(
		fmt.Sprintf(`$..Certificates[?(@.domain.main == %q)]`, domain))
	if err != nil {
		return "", "", err
	}
	res := path.Get(obj)
	if len(res) == 0 {
		return "", "", fmt.Errorf("%w: %s", ErrDomainNotFound, domain)
	}
	entry := acmeEntry{}
	if err = oj.Unmarshal([]byte(oj.JSON(res[0])), &entry); err != nil {
		return "", "", err
	}
	return entry.Certificate, entry.Key, nil
}
