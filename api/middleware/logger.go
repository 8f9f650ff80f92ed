package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/irsalhamdi/govod-storefront/api/web"
	"github.com/irsalhamdi/govod-storefront/core/claims"
	"github.com/sirupsen/logrus"
	"github.com/zenazn/goji/web/mutil"
)

// Logger writes one line per completed request.
func Logger(log logrus.FieldLogger) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			start := time.Now()

			lw := mutil.WrapWriter(w)
			err := handler(ctx, lw, r)

			entry := log.WithFields(logrus.Fields{
				"req_id":     ContextRequestID(ctx),
				"method":     r.Method,
				"path":       r.URL.Path,
				"remoteaddr": r.RemoteAddr,
				"statuscode": lw.Status(),
				"bytes":      lw.BytesWritten(),
				"since":      time.Since(start).String(),
			})
			if c, cerr := claims.Get(ctx); cerr == nil {
				entry = entry.WithField("user_id", c.UserID)
			}
			entry.Info("completed")

			return err
		}
		return h
	}
	return m
}
