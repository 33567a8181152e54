// Package auth attaches authentication to outgoing export requests.
package auth

import (
	"context"
	"encoding/base64"
	"net/http"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// ClientConfig holds authentication configuration for exporters.
type ClientConfig struct {
	// BearerToken is the bearer token to send with requests.
	BearerToken string
	// BasicAuthUsername is the username for basic authentication.
	BasicAuthUsername string
	// BasicAuthPassword is the password for basic authentication.
	BasicAuthPassword string
	// Headers is a map of custom headers to send with requests.
	Headers map[string]string
}

// Enabled reports whether any credential or custom header is configured.
func (c ClientConfig) Enabled() bool {
	return c.BearerToken != "" || c.BasicAuthUsername != "" || len(c.Headers) > 0
}

// GRPCClientInterceptor returns a unary interceptor that injects the
// configured credentials into outgoing metadata. Basic auth takes
// precedence over a bearer token when both are set.
func GRPCClientInterceptor(cfg ClientConfig) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		md := metadata.MD{}

		if cfg.BearerToken != "" {
			md.Set("authorization", "Bearer "+cfg.BearerToken)
		}
		if cfg.BasicAuthUsername != "" && cfg.BasicAuthPassword != "" {
			md.Set("authorization", "Basic "+basicAuthEncoded(cfg.BasicAuthUsername, cfg.BasicAuthPassword))
		}
		for k, v := range cfg.Headers {
			md.Set(k, v)
		}

		if len(md) > 0 {
			ctx = metadata.NewOutgoingContext(ctx, md)
		}
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

// HTTPTransport wraps a RoundTripper so every request carries the
// configured credentials.
func HTTPTransport(cfg ClientConfig, base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &authTransport{base: base, cfg: cfg}
}

type authTransport struct {
	base http.RoundTripper
	cfg  ClientConfig
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// RoundTrippers must not mutate the caller's request.
	reqClone := req.Clone(req.Context())

	if t.cfg.BearerToken != "" {
		reqClone.Header.Set("Authorization", "Bearer "+t.cfg.BearerToken)
	}
	if t.cfg.BasicAuthUsername != "" && t.cfg.BasicAuthPassword != "" {
		reqClone.SetBasicAuth(t.cfg.BasicAuthUsername, t.cfg.BasicAuthPassword)
	}
	for k, v := range t.cfg.Headers {
		reqClone.Header.Set(k, v)
	}

	return t.base.RoundTrip(reqClone)
}

func basicAuthEncoded(username, password string) string {
	return base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
}
