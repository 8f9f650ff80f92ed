package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"
	"github.com/ardanlabs/conf/v3"
	"github.com/irsalhamdi/govod-storefront/api"
	"github.com/irsalhamdi/govod-storefront/api/background"
	"github.com/irsalhamdi/govod-storefront/backend"
	"github.com/irsalhamdi/govod-storefront/config"
	"github.com/irsalhamdi/govod-storefront/core/auth"
	"github.com/irsalhamdi/govod-storefront/core/cart"
	"github.com/irsalhamdi/govod-storefront/core/order"
	"github.com/irsalhamdi/govod-storefront/database"
	"github.com/irsalhamdi/govod-storefront/rate"
	"github.com/irsalhamdi/govod-storefront/sessionstore"
	"github.com/plutov/paypal/v4"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v74"
	stripecl "github.com/stripe/stripe-go/v74/client"
)

func main() {
	log := logrus.New()
	log.SetOutput(os.Stdout)

	if err := Run(log); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func Run(logger *logrus.Logger) error {
	logger.Infof("starting server")
	defer logger.Info("shutdown complete")

	const prefix = "GOVOD"
	var cfg config.Config
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("rendering config: %w", err)
	}
	logger.Infof("config:\n%s", out)

	lw := logger.Writer()
	defer lw.Close()
	errLog := log.New(lw, "", 0)

	bg := background.New(logger)

	durable := scs.New()
	durable.Lifetime = cfg.Session.RememberLifetime
	durable.Cookie.Name = "govod_remember"
	durable.Cookie.Persist = true
	durable.Cookie.Secure = cfg.Session.SecureCookie
	durable.Cookie.SameSite = http.SameSiteLaxMode

	ephemeral := scs.New()
	ephemeral.Lifetime = cfg.Session.Lifetime
	ephemeral.Cookie.Name = "govod_session"
	ephemeral.Cookie.Persist = false
	ephemeral.Cookie.Secure = cfg.Session.SecureCookie
	ephemeral.Cookie.SameSite = http.SameSiteLaxMode

	if cfg.DB.Host != "" {
		db, err := database.Open(cfg.DB)
		if err != nil {
			return fmt.Errorf("failed to open db connection: %w", err)
		}
		defer db.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err = database.StatusCheck(ctx, db)
		cancel()
		if err != nil {
			return fmt.Errorf("database not ready: %w", err)
		}

		if err := database.Migrate(db); err != nil {
			return err
		}

		pg := sessionstore.NewPostgres(db, logger)
		durable.Store = pg
		bg.Go("session-cleanup", func(ctx context.Context) { pg.Cleanup(ctx, 5*time.Minute) })
	} else {
		logger.Warn("no database configured, remember-me sessions live in memory")
		durable.Store = memstore.New()
	}

	if cfg.Redis.Address != "" {
		rdb, err := sessionstore.OpenRedis(context.Background(), cfg.Redis)
		if err != nil {
			return fmt.Errorf("failed to open redis connection: %w", err)
		}
		defer rdb.Close()
		ephemeral.Store = sessionstore.NewRedis(rdb)
	}

	client := backend.New(cfg.Backend.URL, cfg.Backend.Timeout, logger)

	limiter := rate.NewLimiter(cfg.Auth.LoginBurst, cfg.Auth.LoginInterval, cfg.Auth.LimiterExpiry)
	bg.Go("login-limiter", limiter.Run)

	gw, err := gateway(cfg)
	if err != nil {
		return err
	}

	mux := api.APIMux(api.APIConfig{
		CorsOrigin: cfg.Cors.Origin,
		Log:        logger,
		Manager:    auth.NewManager(client, durable, ephemeral, cfg.Session.LoginPath, logger),
		Client:     client,
		Limiter:    limiter,
		Carts:      cart.NewStore(ephemeral),
		Checkouts:  order.NewStore(ephemeral),
		Gateway:    gw,
	})

	api := http.Server{
		Handler:      mux,
		Addr:         cfg.Web.Address,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     errLog,
	}

	serverErrors := make(chan error, 1)

	go func() {
		logger.Infof("starting api router at %s", api.Addr)
		serverErrors <- api.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Infof("shutting down: signal %s", sig)

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		if err := api.Shutdown(ctx); err != nil {
			api.Close()
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}

		if err := bg.Shutdown(ctx); err != nil {
			return fmt.Errorf("could not complete all background tasks: %w", err)
		}
	}
	return nil
}

func gateway(cfg config.Config) (order.Gateway, error) {
	switch strings.ToLower(cfg.Payment.Provider) {
	case "stripe":
		var backends *stripe.Backends
		if cfg.Stripe.URL != "" {
			b := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{URL: stripe.String(cfg.Stripe.URL)})
			backends = &stripe.Backends{API: b, Connect: b, Uploads: b}
		}

		strp := &stripecl.API{}
		strp.Init(cfg.Stripe.APISecret, backends)
		return order.NewStripe(strp, cfg.Payment.Currency), nil

	case "paypal":
		pp, err := paypal.NewClient(cfg.Paypal.ClientID, cfg.Paypal.Secret, cfg.Paypal.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to build the paypal client: %w", err)
		}

		if _, err = pp.GetAccessToken(context.TODO()); err != nil {
			return nil, fmt.Errorf("failed to get the first paypal access token: %w", err)
		}
		return order.NewPaypal(pp, cfg.Payment.Currency), nil
	}

	return nil, fmt.Errorf("unknown payment provider %q", cfg.Payment.Provider)
}
