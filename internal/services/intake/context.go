package intake

import "context"

type ctxKey string

const clientIPKey ctxKey = "intake_client_ip"

// WithClientIP stamps the uploader's IP address onto the request context.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey, ip)
}

// ClientIPFromContext recovers the uploader's IP address, if any.
func ClientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(clientIPKey).(string)
	return v
}
