package order

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/irsalhamdi/govod-storefront/api/web"
	"github.com/irsalhamdi/govod-storefront/api/weberr"
	"github.com/irsalhamdi/govod-storefront/core/cart"
	"github.com/irsalhamdi/govod-storefront/core/claims"
	"github.com/irsalhamdi/govod-storefront/validate"
	"github.com/sirupsen/logrus"
)

type View struct {
	Step         string          `json:"step"`
	Shipping     *Shipping       `json:"shipping,omitempty"`
	Error        string          `json:"error,omitempty"`
	Totals       cart.TotalsView `json:"totals"`
	Confirmation *Confirmation   `json:"confirmation,omitempty"`
}

func view(st State, c *cart.Cart) View {
	v := View{Step: st.Step().String(), Totals: c.Totals().View()}
	switch s := st.(type) {
	case ShippingInfo:
		v.Shipping = &s.Draft
	case PaymentInfo:
		v.Shipping = &s.Shipping
		v.Error = s.Err
	case Submitted:
		v.Confirmation = &s.Confirmation
		v.Totals = s.Confirmation.Totals
	}
	return v
}

func load(ctx context.Context, store *Store, carts *cart.Store) (State, *cart.Cart, error) {
	st, err := store.Load(ctx)
	if err != nil {
		return nil, nil, err
	}
	c, err := carts.Load(ctx)
	if err != nil {
		return nil, nil, err
	}
	return st, c, nil
}

func HandleShow(store *Store, carts *cart.Store) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		st, c, err := load(ctx, store, carts)
		if err != nil {
			return err
		}
		return web.Respond(ctx, w, view(st, c), http.StatusOK)
	}
}

func HandleShipping(store *Store, carts *cart.Store) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var in Shipping
		if err := web.Decode(w, r, &in); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		st, c, err := load(ctx, store, carts)
		if err != nil {
			return err
		}

		var si ShippingInfo
		switch s := st.(type) {
		case ShippingInfo:
			si = s
		case Submitted:
			si = Start()
		default:
			return weberr.NewError(ErrStep, ErrStep.Error(), http.StatusConflict)
		}

		if c.Empty() {
			return weberr.NewError(ErrEmptyCart, ErrEmptyCart.Error(), http.StatusUnprocessableEntity)
		}

		next, err := si.Continue(in)
		if err != nil {
			fe, ok := validate.AsFieldErrors(err)
			if !ok {
				return err
			}
			si.Draft = in
			if err := store.Save(ctx, si); err != nil {
				return err
			}
			return weberr.Invalid(err, err.Error(), fe)
		}

		if err := store.Save(ctx, next); err != nil {
			return err
		}
		return web.Respond(ctx, w, view(next, c), http.StatusOK)
	}
}

func HandleBack(store *Store, carts *cart.Store) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		st, c, err := load(ctx, store, carts)
		if err != nil {
			return err
		}

		pi, ok := st.(PaymentInfo)
		if !ok {
			return weberr.NewError(ErrStep, ErrStep.Error(), http.StatusConflict)
		}

		prev := pi.Back()
		if err := store.Save(ctx, prev); err != nil {
			return err
		}
		return web.Respond(ctx, w, view(prev, c), http.StatusOK)
	}
}

func HandlePayment(store *Store, carts *cart.Store, gw Gateway, log logrus.FieldLogger) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		var in Payment
		if err := web.Decode(w, r, &in); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		st, c, err := load(ctx, store, carts)
		if err != nil {
			return err
		}

		pi, ok := st.(PaymentInfo)
		if !ok {
			return weberr.NewError(ErrStep, ErrStep.Error(), http.StatusConflict)
		}

		next, serr := pi.Submit(ctx, gw, c, in)
		if err := store.Save(ctx, next); err != nil {
			return err
		}

		if serr != nil {
			failed := next.(PaymentInfo)
			switch {
			case errors.Is(serr, ErrEmptyCart):
				return weberr.NewError(serr, failed.Err, http.StatusUnprocessableEntity)
			case errors.Is(serr, ErrDeclined):
				return weberr.NewError(serr, failed.Err, http.StatusPaymentRequired)
			}
			if fe, ok := validate.AsFieldErrors(serr); ok {
				return weberr.Invalid(serr, failed.Err, fe)
			}
			return weberr.Unavailable(serr, failed.Err)
		}

		if err := carts.Save(ctx, c); err != nil {
			return err
		}

		conf := next.(Submitted).Confirmation
		log.WithFields(logrus.Fields{
			"user_id":    clm.UserID,
			"order_id":   conf.ID,
			"reference":  conf.Reference,
			"provider":   conf.Provider,
			"payment_id": conf.PaymentID,
			"total":      conf.Totals.Total,
		}).Info("order confirmed")

		return web.Respond(ctx, w, view(next, c), http.StatusCreated)
	}
}

func HandleAbandon(store *Store) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		store.Reset(ctx)
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}
