package middleware

import (
	"context"
	"net/http"

	"github.com/irsalhamdi/govod-storefront/api/web"
	"github.com/irsalhamdi/govod-storefront/api/weberr"
	"github.com/sirupsen/logrus"
)

// Errors turns handler errors into responses. Errors carrying a response
// body are client-facing and logged at info level; anything else is a 500.
func Errors(log logrus.FieldLogger) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			err := handler(ctx, w, r)
			if err == nil {
				return nil
			}

			fields := logrus.Fields{
				"req_id":  ContextRequestID(ctx),
				"message": err,
			}
			if f, ok := weberr.Fields(err); ok {
				for k, v := range f {
					fields[k] = v
				}
			}

			body, code, ok := weberr.Response(err)
			if !ok {
				body = weberr.ErrorResponse{Error: http.StatusText(http.StatusInternalServerError)}
				code = http.StatusInternalServerError
			}

			fields["statuscode"] = code
			entry := log.WithFields(fields)
			if code >= http.StatusInternalServerError {
				entry.Error("ERROR")
			} else {
				entry.Info("request rejected")
			}

			return web.Respond(ctx, w, body, code)
		}
		return h
	}
	return m
}
