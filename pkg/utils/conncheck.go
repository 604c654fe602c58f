package utils

import (
	"context"
	"fmt"
	"net"
	"regexp"
	"time"

	"github.com/mpapenbr/pitstrategy/log"
)

// WaitForTCP tries to connect to addr until it succeeds or timeout is reached
func WaitForTCP(ctx context.Context, addr string, timeout time.Duration) error {
	timeoutReached := time.Now().Add(timeout)
	start := time.Now()
	log.Debug("wait for tcp connection",
		log.String("addr", addr),
		log.String("timeout", timeout.String()))
	var d net.Dialer
	for time.Now().Before(timeoutReached) {
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err == nil {
			conn.Close()

			log.Debug("tcp connection successful",
				log.String("addr", addr),
				log.String("duration", time.Since(start).String()))
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(200 * time.Millisecond):
		}
	}
	return fmt.Errorf("%s could not be reached after %v", addr, timeout)
}

// ExtractFromNatsURL returns host:port of a nats url, the port defaults to 4222.
// Only the first server of a comma separated list is used.
func ExtractFromNatsURL(url string) string {
	param := resolveRegex(
		"^(?P<proto>nats|tls)://(.*@)?(?P<host>[^:/,]+)(:(?P<port>\\d+))?", url)
	if len(param) == 0 || param["host"] == "" {
		return ""
	}
	if port := param["port"]; port != "" {
		return fmt.Sprintf("%s:%s", param["host"], port)
	}
	return fmt.Sprintf("%s:4222", param["host"])
}

// ExtractFromDBURL returns host:port of a postgres url, the port defaults to 5432.
// An empty string is returned for other urls (for example sqlite files).
func ExtractFromDBURL(url string) string {
	param := resolveRegex(
		"^postgres(ql)?://(.*@)?(?P<addr>(?P<host>.*?)(:(?P<port>\\d+))?)/.*", url)
	if len(param) == 0 {
		return ""
	}
	if port, ok := param["port"]; ok && port != "" {
		return param["addr"] // if port is found, the addr contains our wanted value
	} else {
		return fmt.Sprintf("%s:5432", param["addr"])
	}
}

func resolveRegex(regEx, url string) (paramsMap map[string]string) {
	compRegEx := regexp.MustCompile(regEx)
	match := compRegEx.FindStringSubmatch(url)
	if match == nil {
		return nil
	}
	paramsMap = make(map[string]string)
	for i, name := range compRegEx.SubexpNames() {
		if i > 0 && name != "" {
			paramsMap[name] = match[i]
		}
	}
	return paramsMap
}
