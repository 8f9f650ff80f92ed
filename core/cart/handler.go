package cart

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/irsalhamdi/govod-storefront/api/web"
	"github.com/irsalhamdi/govod-storefront/api/weberr"
	"github.com/irsalhamdi/govod-storefront/backend"
	"github.com/irsalhamdi/govod-storefront/core/course"
	"github.com/irsalhamdi/govod-storefront/validate"
)

type Catalog interface {
	FetchCourse(ctx context.Context, id string) (course.Course, error)
}

type ItemNew struct {
	CourseID string `json:"courseId" validate:"required"`
}

type ItemUp struct {
	Quantity int `json:"quantity"`
}

type View struct {
	Items  []Item     `json:"items"`
	Count  int        `json:"count"`
	Totals TotalsView `json:"totals"`
}

func (c *Cart) View() View {
	items := c.Items
	if items == nil {
		items = []Item{}
	}
	return View{
		Items:  items,
		Count:  c.Count(),
		Totals: c.Totals().View(),
	}
}

func HandleShow(store *Store) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		c, err := store.Load(ctx)
		if err != nil {
			return err
		}
		return web.Respond(ctx, w, c.View(), http.StatusOK)
	}
}

func HandleCreateItem(store *Store, catalog Catalog) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var in ItemNew
		if err := web.Decode(w, r, &in); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(in); err != nil {
			fe, _ := validate.AsFieldErrors(err)
			return weberr.Invalid(err, err.Error(), fe)
		}

		co, err := catalog.FetchCourse(ctx, in.CourseID)
		if err != nil {
			if backend.IsNotFound(err) {
				return weberr.NotFound(fmt.Errorf("course[%s]: %w", in.CourseID, err))
			}
			if errors.Is(err, backend.ErrUnreachable) {
				return weberr.Unavailable(err, "the course catalog is unavailable, please try again")
			}
			return fmt.Errorf("fetching course[%s]: %w", in.CourseID, err)
		}

		c, err := store.Load(ctx)
		if err != nil {
			return err
		}

		status := http.StatusOK
		if c.AddItem(co) {
			status = http.StatusCreated
		}

		if err := store.Save(ctx, c); err != nil {
			return err
		}
		return web.Respond(ctx, w, c.View(), status)
	}
}

func HandleUpdateItem(store *Store) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var in ItemUp
		if err := web.Decode(w, r, &in); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		c, err := store.Load(ctx)
		if err != nil {
			return err
		}

		if c.UpdateQuantity(web.Param(r, "course_id"), in.Quantity) {
			if err := store.Save(ctx, c); err != nil {
				return err
			}
		}
		return web.Respond(ctx, w, c.View(), http.StatusOK)
	}
}

func HandleDeleteItem(store *Store) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		c, err := store.Load(ctx)
		if err != nil {
			return err
		}

		if c.RemoveItem(web.Param(r, "course_id")) {
			if err := store.Save(ctx, c); err != nil {
				return err
			}
		}
		return web.Respond(ctx, w, c.View(), http.StatusOK)
	}
}

func HandleDelete(store *Store) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		c, err := store.Load(ctx)
		if err != nil {
			return err
		}

		c.Clear()
		if err := store.Save(ctx, c); err != nil {
			return err
		}
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}
