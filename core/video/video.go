package video

// Lesson is one video of a course curriculum.
type Lesson struct {
	ID       string `json:"id"`
	CourseID string `json:"courseId"`
	Section  string `json:"section"`
	Index    int    `json:"index"`
	Title    string `json:"title"`
	Duration int    `json:"duration"`
	Free     bool   `json:"free"`
	URL      string `json:"url,omitempty"`
	Progress int    `json:"progress"`
}

type ProgressUp struct {
	Progress int `json:"progress" validate:"gte=0,lte=100"`
}

// Sections groups lessons by section title, keeping the order in which
// sections first appear.
func Sections(lessons []Lesson) []Section {
	var out []Section
	idx := map[string]int{}
	for _, l := range lessons {
		i, ok := idx[l.Section]
		if !ok {
			i = len(out)
			idx[l.Section] = i
			out = append(out, Section{Title: l.Section})
		}
		out[i].Lessons = append(out[i].Lessons, l)
	}
	return out
}

type Section struct {
	Title   string   `json:"title"`
	Lessons []Lesson `json:"lessons"`
}
