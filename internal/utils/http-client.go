package utils

import (
	"net/http"
	"net/url"
	"time"
)

type HTTPClientConfig struct {
	Timeout  time.Duration
	ProxyURL string
}

// MediaqHTTPClient is used for the few direct fetches mediaq makes itself,
// currently bootstrapping the engine binary.
type MediaqHTTPClient struct {
	client *http.Client
}

func NewMediaqHTTPClient(cfg HTTPClientConfig) *MediaqHTTPClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultHTTPTimeout
	}
	transport := &http.Transport{
		IdleConnTimeout:     cfg.Timeout,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 10,
	}
	if cfg.ProxyURL != "" {
		if proxyURL, err := url.Parse(cfg.ProxyURL); err == nil {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}
	return &MediaqHTTPClient{
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
	}
}

func (c *MediaqHTTPClient) Do(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", "mediaq-cli")
	return c.client.Do(req)
}
