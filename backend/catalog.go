package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/irsalhamdi/govod-storefront/core/course"
	"github.com/irsalhamdi/govod-storefront/core/video"
	"github.com/shopspring/decimal"
)

type courseDTO struct {
	ID            ID               `json:"id"`
	Title         string           `json:"title"`
	Description   string           `json:"description"`
	Instructor    json.RawMessage  `json:"instructor"`
	Category      json.RawMessage  `json:"category"`
	Price         decimal.Decimal  `json:"price"`
	OriginalPrice *decimal.Decimal `json:"original_price"`
	Image         string           `json:"image"`
	ImageURL      string           `json:"image_url"`
}

func (d courseDTO) course() course.Course {
	img := d.ImageURL
	if img == "" {
		img = d.Image
	}
	return course.Course{
		ID:            d.ID.String(),
		Title:         d.Title,
		Description:   d.Description,
		Instructor:    displayName(d.Instructor),
		Category:      displayName(d.Category),
		Price:         d.Price,
		OriginalPrice: d.OriginalPrice,
		ImageURL:      img,
	}
}

// displayName reads a relation that is embedded either as a plain string or
// as an object with a name.
func displayName(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Name
	}
	return ""
}

type categoryDTO struct {
	ID          ID     `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	CourseCount int    `json:"courses_count"`
}

type instructorDTO struct {
	ID          ID     `json:"id"`
	Name        string `json:"name"`
	Headline    string `json:"title"`
	Bio         string `json:"bio"`
	Avatar      string `json:"avatar"`
	CourseCount int    `json:"courses_count"`
}

type lessonDTO struct {
	ID       ID              `json:"id"`
	CourseID ID              `json:"course_id"`
	Section  json.RawMessage `json:"section"`
	Index    int             `json:"order"`
	Title    string          `json:"title"`
	Duration int             `json:"duration"`
	Free     bool            `json:"is_free"`
	URL      string          `json:"video_url"`
	Progress int             `json:"progress"`
}

func (c *Client) ListCourses(ctx context.Context, query url.Values) ([]course.Course, error) {
	var dtos []courseDTO
	if err := c.get(ctx, false, "/courses", query, &dtos); err != nil {
		return nil, err
	}
	return courses(dtos), nil
}

func (c *Client) FetchCourse(ctx context.Context, id string) (course.Course, error) {
	var d courseDTO
	if err := c.get(ctx, false, "/courses/"+url.PathEscape(id), nil, &d); err != nil {
		return course.Course{}, err
	}
	return d.course(), nil
}

func (c *Client) ListInstructorCourses(ctx context.Context) ([]course.Course, error) {
	var dtos []courseDTO
	if err := c.get(ctx, true, "/instructor/courses", nil, &dtos); err != nil {
		return nil, err
	}
	return courses(dtos), nil
}

func (c *Client) ListCategories(ctx context.Context) ([]course.Category, error) {
	var dtos []categoryDTO
	if err := c.get(ctx, false, "/categories", nil, &dtos); err != nil {
		return nil, err
	}
	out := make([]course.Category, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, course.Category{ID: d.ID.String(), Name: d.Name, Slug: d.Slug, CourseCount: d.CourseCount})
	}
	return out, nil
}

func (c *Client) ListInstructors(ctx context.Context) ([]course.Instructor, error) {
	var dtos []instructorDTO
	if err := c.get(ctx, false, "/instructors", nil, &dtos); err != nil {
		return nil, err
	}
	out := make([]course.Instructor, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, d.instructor())
	}
	return out, nil
}

func (c *Client) FetchInstructor(ctx context.Context, id string) (course.Instructor, error) {
	var d instructorDTO
	if err := c.get(ctx, false, "/instructors/"+url.PathEscape(id), nil, &d); err != nil {
		return course.Instructor{}, err
	}
	return d.instructor(), nil
}

func (c *Client) ListLessons(ctx context.Context, courseID string) ([]video.Lesson, error) {
	var dtos []lessonDTO
	if err := c.get(ctx, true, "/courses/"+url.PathEscape(courseID)+"/lessons", nil, &dtos); err != nil {
		return nil, err
	}
	out := make([]video.Lesson, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, video.Lesson{
			ID:       d.ID.String(),
			CourseID: d.CourseID.String(),
			Section:  strings.TrimSpace(displayTitle(d.Section)),
			Index:    d.Index,
			Title:    d.Title,
			Duration: d.Duration,
			Free:     d.Free,
			URL:      d.URL,
			Progress: d.Progress,
		})
	}
	return out, nil
}

func (c *Client) UpdateProgress(ctx context.Context, lessonID string, progress int) error {
	in := struct {
		Progress int `json:"progress"`
	}{progress}
	return c.do(ctx, true, http.MethodPut, "/lessons/"+url.PathEscape(lessonID)+"/progress", in, nil)
}

func (d instructorDTO) instructor() course.Instructor {
	return course.Instructor{
		ID:          d.ID.String(),
		Name:        d.Name,
		Headline:    d.Headline,
		Bio:         d.Bio,
		AvatarURL:   d.Avatar,
		CourseCount: d.CourseCount,
	}
}

func courses(dtos []courseDTO) []course.Course {
	out := make([]course.Course, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, d.course())
	}
	return out
}

// sections come either as a title or as an object carrying one.
func displayTitle(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var obj struct {
		Title string `json:"title"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Title != "" {
		return obj.Title
	}
	return displayName(raw)
}
