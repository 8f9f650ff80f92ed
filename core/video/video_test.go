package video

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/mux"
	"github.com/irsalhamdi/govod-storefront/api/web"
	"github.com/irsalhamdi/govod-storefront/api/weberr"
)

func TestSectionsKeepFirstSeenOrder(t *testing.T) {
	lessons := []Lesson{
		{ID: "1", Section: "Basics"},
		{ID: "2", Section: "Concurrency"},
		{ID: "3", Section: "Basics"},
	}

	exp := []Section{
		{Title: "Basics", Lessons: []Lesson{lessons[0], lessons[2]}},
		{Title: "Concurrency", Lessons: []Lesson{lessons[1]}},
	}
	if diff := cmp.Diff(exp, Sections(lessons)); diff != "" {
		t.Fatalf("sections mismatch (-want +got):\n%s", diff)
	}
}

func TestProgress(t *testing.T) {
	if got := Progress(nil); got != 0 {
		t.Fatalf("empty progress = %d", got)
	}
	if got := Progress([]Lesson{{Progress: 100}, {Progress: 50}, {Progress: 0}}); got != 50 {
		t.Fatalf("progress = %d, want 50", got)
	}
}

type fakeLessons struct {
	updated map[string]int
}

func (f *fakeLessons) ListLessons(ctx context.Context, courseID string) ([]Lesson, error) {
	return []Lesson{{ID: "1", CourseID: courseID, Section: "Intro", Progress: 100}}, nil
}

func (f *fakeLessons) UpdateProgress(ctx context.Context, lessonID string, progress int) error {
	f.updated[lessonID] = progress
	return nil
}

func serve(h web.Handler, path string, req *http.Request) *httptest.ResponseRecorder {
	r := mux.NewRouter()
	r.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		if err := h(r.Context(), w, r); err != nil {
			body, code, _ := weberr.Response(err)
			web.Respond(r.Context(), w, body, code)
		}
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandleListByCourse(t *testing.T) {
	fl := &fakeLessons{}
	src := func(context.Context) (Lessons, error) { return fl, nil }

	w := serve(HandleListByCourse(src), "/courses/{course_id}/lessons", httptest.NewRequest(http.MethodGet, "/courses/7/lessons", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var got CourseView
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.CourseID != "7" || got.Progress != 100 || len(got.Sections) != 1 {
		t.Fatalf("unexpected view: %+v", got)
	}
}

func TestHandleUpdateProgress(t *testing.T) {
	fl := &fakeLessons{updated: map[string]int{}}
	src := func(context.Context) (Lessons, error) { return fl, nil }
	h := HandleUpdateProgress(src)

	req := httptest.NewRequest(http.MethodPut, "/lessons/4/progress", bytes.NewBufferString(`{"progress":60}`))
	if w := serve(h, "/lessons/{id}/progress", req); w.Code != http.StatusNoContent {
		t.Fatalf("status = %d", w.Code)
	}
	if fl.updated["4"] != 60 {
		t.Fatalf("progress not forwarded: %v", fl.updated)
	}

	req = httptest.NewRequest(http.MethodPut, "/lessons/4/progress", bytes.NewBufferString(`{"progress":101}`))
	if w := serve(h, "/lessons/{id}/progress", req); w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", w.Code)
	}
}
