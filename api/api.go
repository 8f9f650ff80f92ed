package api

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/irsalhamdi/govod-storefront/api/middleware"
	"github.com/irsalhamdi/govod-storefront/api/web"
	"github.com/irsalhamdi/govod-storefront/backend"
	"github.com/irsalhamdi/govod-storefront/core/auth"
	"github.com/irsalhamdi/govod-storefront/core/cart"
	"github.com/irsalhamdi/govod-storefront/core/course"
	"github.com/irsalhamdi/govod-storefront/core/order"
	"github.com/irsalhamdi/govod-storefront/core/video"
	"github.com/irsalhamdi/govod-storefront/rate"
	"github.com/sirupsen/logrus"
)

type APIConfig struct {
	CorsOrigin string
	Log        logrus.FieldLogger
	Manager    *auth.Manager
	Client     *backend.Client
	Limiter    *rate.Limiter
	Carts      *cart.Store
	Checkouts  *order.Store
	Gateway    order.Gateway
}

type api struct {
	*mux.Router
	mw  []web.Middleware
	log logrus.FieldLogger
}

func APIMux(cfg APIConfig) http.Handler {
	a := &api{
		Router: mux.NewRouter(),
		log:    cfg.Log,
	}

	submits := map[string]bool{
		"/auth/login":       true,
		"/checkout/payment": true,
	}
	submit := func(r *http.Request) bool { return submits[r.URL.Path] }

	if cfg.CorsOrigin != "" {
		a.mw = append(a.mw, middleware.Cors(cfg.CorsOrigin))
	}
	a.mw = append(a.mw, cfg.Manager.Serialize(submit))
	a.mw = append(a.mw, cfg.Manager.Scopes()...)
	a.mw = append(a.mw, middleware.RequestID())
	a.mw = append(a.mw, auth.Resolve(cfg.Manager))
	a.mw = append(a.mw, middleware.Logger(cfg.Log))
	a.mw = append(a.mw, middleware.Errors(cfg.Log))
	a.mw = append(a.mw, middleware.Panics())

	if cfg.CorsOrigin != "" {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			w.WriteHeader(http.StatusNoContent)
			return nil
		}

		a.Handle(http.MethodOptions, "/{path:.*}", h)
	}

	authen := auth.RequireAuth(cfg.Manager.LoginPath())
	instructor := auth.RequireInstructor(cfg.Manager.LoginPath())

	lessons := func(ctx context.Context) (video.Lessons, error) {
		c, err := cfg.Manager.Client(ctx)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	teaching := func(ctx context.Context) (course.Teaching, error) {
		c, err := cfg.Manager.Client(ctx)
		if err != nil {
			return nil, err
		}
		return c, nil
	}

	a.Handle(http.MethodPost, "/auth/login", auth.HandleLogin(cfg.Limiter))
	a.Handle(http.MethodPost, "/auth/logout", auth.HandleLogout())
	a.Handle(http.MethodPost, "/auth/register", auth.HandleRegister())
	a.Handle(http.MethodGet, "/auth/session", auth.HandleShowSession())

	a.Handle(http.MethodGet, "/courses/{course_id}/lessons", video.HandleListByCourse(lessons), authen)
	a.Handle(http.MethodGet, "/courses/{id}", course.HandleShow(cfg.Client))
	a.Handle(http.MethodGet, "/courses", course.HandleList(cfg.Client))
	a.Handle(http.MethodGet, "/categories", course.HandleListCategories(cfg.Client))
	a.Handle(http.MethodGet, "/instructors/{id}", course.HandleShowInstructor(cfg.Client))
	a.Handle(http.MethodGet, "/instructors", course.HandleListInstructors(cfg.Client))
	a.Handle(http.MethodGet, "/instructor/courses", course.HandleListTeaching(teaching), instructor)

	a.Handle(http.MethodPut, "/lessons/{id}/progress", video.HandleUpdateProgress(lessons), authen)

	a.Handle(http.MethodGet, "/cart", cart.HandleShow(cfg.Carts))
	a.Handle(http.MethodDelete, "/cart", cart.HandleDelete(cfg.Carts))
	a.Handle(http.MethodPut, "/cart/items", cart.HandleCreateItem(cfg.Carts, cfg.Client))
	a.Handle(http.MethodPatch, "/cart/items/{course_id}", cart.HandleUpdateItem(cfg.Carts))
	a.Handle(http.MethodDelete, "/cart/items/{course_id}", cart.HandleDeleteItem(cfg.Carts))

	a.Handle(http.MethodGet, "/checkout", order.HandleShow(cfg.Checkouts, cfg.Carts), authen)
	a.Handle(http.MethodPost, "/checkout/shipping", order.HandleShipping(cfg.Checkouts, cfg.Carts), authen)
	a.Handle(http.MethodPost, "/checkout/back", order.HandleBack(cfg.Checkouts, cfg.Carts), authen)
	a.Handle(http.MethodPost, "/checkout/payment", order.HandlePayment(cfg.Checkouts, cfg.Carts, cfg.Gateway, cfg.Log), authen)
	a.Handle(http.MethodDelete, "/checkout", order.HandleAbandon(cfg.Checkouts), authen)

	return a.Router
}

func (a *api) Handle(method string, path string, handler web.Handler, mw ...web.Middleware) {
	handler = web.WrapMiddleware(mw, handler)
	handler = web.WrapMiddleware(a.mw, handler)

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if err := handler(ctx, w, r); err != nil {
			a.log.WithFields(logrus.Fields{
				"req_id":  middleware.ContextRequestID(ctx),
				"message": err,
			}).Error("ERROR")
		}
	})

	a.Router.Handle(path, h).Methods(method)
}
