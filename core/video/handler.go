package video

import (
	"context"
	"fmt"
	"net/http"

	"github.com/irsalhamdi/govod-storefront/api/web"
	"github.com/irsalhamdi/govod-storefront/api/weberr"
	"github.com/irsalhamdi/govod-storefront/validate"
)

const msgLessonsUnavailable = "lessons are unavailable right now, please try again"

type Lessons interface {
	ListLessons(ctx context.Context, courseID string) ([]Lesson, error)
	UpdateProgress(ctx context.Context, lessonID string, progress int) error
}

// Source binds the lesson backend to the requester's credential.
type Source func(ctx context.Context) (Lessons, error)

type CourseView struct {
	CourseID string    `json:"courseId"`
	Sections []Section `json:"sections"`
	Progress int       `json:"progress"`
}

// Progress is the mean completion over every lesson, in percent.
func Progress(lessons []Lesson) int {
	if len(lessons) == 0 {
		return 0
	}
	sum := 0
	for _, l := range lessons {
		sum += l.Progress
	}
	return sum / len(lessons)
}

func HandleListByCourse(src Source) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		lessons, err := src(ctx)
		if err != nil {
			return err
		}

		id := web.Param(r, "course_id")
		ls, err := lessons.ListLessons(ctx, id)
		if err != nil {
			return weberr.Upstream(fmt.Errorf("lessons of course[%s]: %w", id, err), msgLessonsUnavailable)
		}

		sections := Sections(ls)
		if sections == nil {
			sections = []Section{}
		}
		return web.Respond(ctx, w, CourseView{CourseID: id, Sections: sections, Progress: Progress(ls)}, http.StatusOK)
	}
}

func HandleUpdateProgress(src Source) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var in ProgressUp
		if err := web.Decode(w, r, &in); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(in); err != nil {
			fe, _ := validate.AsFieldErrors(err)
			return weberr.Invalid(err, err.Error(), fe)
		}

		lessons, err := src(ctx)
		if err != nil {
			return err
		}

		id := web.Param(r, "id")
		if err := lessons.UpdateProgress(ctx, id, in.Progress); err != nil {
			return weberr.Upstream(fmt.Errorf("progress of lesson[%s]: %w", id, err), msgLessonsUnavailable)
		}
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}
