package middleware

import (
	"context"
	"net/http"

	"github.com/irsalhamdi/govod-storefront/api/web"
)

// Cors allows the browser application served from origin to call the API
// with its session cookies.
func Cors(origin string) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			hd := w.Header()
			hd.Set("Access-Control-Allow-Origin", origin)
			hd.Set("Access-Control-Allow-Credentials", "true")
			hd.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			hd.Set("Access-Control-Allow-Headers", "Content-Type, "+RequestIDHeader)
			hd.Set("Access-Control-Expose-Headers", RequestIDHeader)
			hd.Add("Vary", "Origin")

			return handler(ctx, w, r)
		}
		return h
	}
	return m
}
