package course

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/irsalhamdi/govod-storefront/api/web"
	"github.com/irsalhamdi/govod-storefront/api/weberr"
)

const msgCatalogUnavailable = "the course catalog is unavailable, please try again"

type Catalog interface {
	ListCourses(ctx context.Context, query url.Values) ([]Course, error)
	FetchCourse(ctx context.Context, id string) (Course, error)
	ListCategories(ctx context.Context) ([]Category, error)
	ListInstructors(ctx context.Context) ([]Instructor, error)
	FetchInstructor(ctx context.Context, id string) (Instructor, error)
}

// Teaching lists the courses of the signed-in instructor.
type Teaching interface {
	ListInstructorCourses(ctx context.Context) ([]Course, error)
}

// filters forwarded to the catalog listing.
var filters = []string{"search", "category", "instructor", "level", "sort", "page", "per_page"}

func listQuery(in url.Values) url.Values {
	out := url.Values{}
	for _, k := range filters {
		if v := in.Get(k); v != "" {
			out.Set(k, v)
		}
	}
	return out
}

func HandleList(catalog Catalog) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		courses, err := catalog.ListCourses(ctx, listQuery(r.URL.Query()))
		if err != nil {
			return weberr.Upstream(fmt.Errorf("listing courses: %w", err), msgCatalogUnavailable)
		}
		return web.Respond(ctx, w, nonNil(courses), http.StatusOK)
	}
}

func HandleShow(catalog Catalog) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		c, err := catalog.FetchCourse(ctx, id)
		if err != nil {
			return weberr.Upstream(fmt.Errorf("course[%s]: %w", id, err), msgCatalogUnavailable)
		}
		return web.Respond(ctx, w, c, http.StatusOK)
	}
}

func HandleListCategories(catalog Catalog) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		cats, err := catalog.ListCategories(ctx)
		if err != nil {
			return weberr.Upstream(fmt.Errorf("listing categories: %w", err), msgCatalogUnavailable)
		}
		return web.Respond(ctx, w, nonNil(cats), http.StatusOK)
	}
}

func HandleListInstructors(catalog Catalog) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		ins, err := catalog.ListInstructors(ctx)
		if err != nil {
			return weberr.Upstream(fmt.Errorf("listing instructors: %w", err), msgCatalogUnavailable)
		}
		return web.Respond(ctx, w, nonNil(ins), http.StatusOK)
	}
}

func HandleShowInstructor(catalog Catalog) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		in, err := catalog.FetchInstructor(ctx, id)
		if err != nil {
			return weberr.Upstream(fmt.Errorf("instructor[%s]: %w", id, err), msgCatalogUnavailable)
		}
		return web.Respond(ctx, w, in, http.StatusOK)
	}
}

// HandleListTeaching serves the instructor dashboard listing. teaching binds
// the backend to the requester's credential.
func HandleListTeaching(teaching func(ctx context.Context) (Teaching, error)) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		t, err := teaching(ctx)
		if err != nil {
			return err
		}

		courses, err := t.ListInstructorCourses(ctx)
		if err != nil {
			return weberr.Upstream(fmt.Errorf("listing instructor courses: %w", err), msgCatalogUnavailable)
		}
		return web.Respond(ctx, w, nonNil(courses), http.StatusOK)
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
