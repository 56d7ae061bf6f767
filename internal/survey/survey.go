// Package survey holds the satisfaction survey configuration and validates
// submitted answers against it.
package survey

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jornadaii/certify/internal/errors"
	"github.com/jornadaii/certify/internal/models"
)

// Kind is the answer type of a question
type Kind string

const (
	KindRating       Kind = "rating_1_5"
	KindShortText    Kind = "short_text"
	KindLongText     Kind = "long_text"
	KindSingleChoice Kind = "single_choice"
)

// Section decides which participants see a question
type Section string

const (
	SectionGeneral  Section = "general"
	SectionWorkshop Section = "workshop"
	SectionContest  Section = "contest"
)

// OptionsFromConferences fills a single choice question with keynote titles
const OptionsFromConferences = "conferences"

var conferenceCode = regexp.MustCompile(`^C\d+$`)

// Question is one survey item
type Question struct {
	ID          int      `yaml:"id" json:"id"`
	Prompt      string   `yaml:"prompt" json:"prompt"`
	Kind        Kind     `yaml:"kind" json:"kind"`
	Section     Section  `yaml:"section" json:"section"`
	Optional    bool     `yaml:"optional" json:"optional"`
	Options     []string `yaml:"options,omitempty" json:"options,omitempty"`
	OptionsFrom string   `yaml:"options_from,omitempty" json:"-"`
}

// Required reports whether the question must be answered
func (q Question) Required() bool {
	return !q.Optional
}

// Set is an immutable, ordered question list
type Set struct {
	questions []Question
	byID      map[int]int
}

type file struct {
	Questions []Question `yaml:"questions"`
}

// NewSet validates questions and builds a Set
func NewSet(questions []Question) (*Set, error) {
	s := &Set{
		questions: make([]Question, len(questions)),
		byID:      make(map[int]int, len(questions)),
	}
	copy(s.questions, questions)

	for i, q := range s.questions {
		if q.ID <= 0 {
			return nil, errors.Validationf("question %d: id must be positive", i+1)
		}
		if _, dup := s.byID[q.ID]; dup {
			return nil, errors.Validationf("question id %d is duplicated", q.ID)
		}
		if strings.TrimSpace(q.Prompt) == "" {
			return nil, errors.Validationf("question %d: prompt is empty", q.ID)
		}
		switch q.Kind {
		case KindRating, KindShortText, KindLongText:
		case KindSingleChoice:
			if len(q.Options) == 0 && q.OptionsFrom == "" {
				return nil, errors.Validationf("question %d: single choice needs options", q.ID)
			}
			if q.OptionsFrom != "" && q.OptionsFrom != OptionsFromConferences {
				return nil, errors.Validationf("question %d: unknown options source %q", q.ID, q.OptionsFrom)
			}
		default:
			return nil, errors.Validationf("question %d: unknown kind %q", q.ID, q.Kind)
		}
		switch q.Section {
		case SectionGeneral, SectionWorkshop, SectionContest:
		case "":
			s.questions[i].Section = SectionGeneral
		default:
			return nil, errors.Validationf("question %d: unknown section %q", q.ID, q.Section)
		}
		s.byID[q.ID] = i
	}
	return s, nil
}

// Parse reads a YAML question file
func Parse(data []byte) (*Set, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(err, errors.ErrValidation, "invalid question file")
	}
	if len(f.Questions) == 0 {
		return nil, errors.Validation("question file has no questions")
	}
	return NewSet(f.Questions)
}

// Load returns the question set at path, or the built-in set when path is empty
func Load(path string) (*Set, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading question file: %w", err)
	}
	return Parse(data)
}

// All returns every question in order
func (s *Set) All() []Question {
	out := make([]Question, len(s.questions))
	copy(out, s.questions)
	return out
}

// Lookup finds a question by id
func (s *Set) Lookup(id int) (Question, bool) {
	i, ok := s.byID[id]
	if !ok {
		return Question{}, false
	}
	return s.questions[i], true
}

// Applicable returns general questions plus the workshop and contest
// sections when the participant attended them
func (s *Set) Applicable(workshop, contest bool) []Question {
	var out []Question
	for _, q := range s.questions {
		switch q.Section {
		case SectionWorkshop:
			if !workshop {
				continue
			}
		case SectionContest:
			if !contest {
				continue
			}
		}
		out = append(out, q)
	}
	return out
}

// WithActivities returns a copy whose dynamic option lists are filled from
// the activity catalogue
func (s *Set) WithActivities(activities []models.Activity) *Set {
	var conferences []string
	sorted := make([]models.Activity, len(activities))
	copy(sorted, activities)
	sort.SliceStable(sorted, func(i, j int) bool {
		return codeNumber(sorted[i].Code) < codeNumber(sorted[j].Code)
	})
	for _, a := range sorted {
		if conferenceCode.MatchString(a.Code) {
			title := a.Title
			if title == "" {
				title = a.Code
			}
			conferences = append(conferences, title)
		}
	}

	out := &Set{questions: s.All(), byID: s.byID}
	for i, q := range out.questions {
		if q.OptionsFrom == OptionsFromConferences {
			out.questions[i].Options = append([]string(nil), conferences...)
		}
	}
	return out
}

func codeNumber(code string) int {
	n, err := strconv.Atoi(strings.TrimLeft(code, "ABCDEFGHIJKLMNOPQRSTUVWXYZ"))
	if err != nil {
		return 1 << 30
	}
	return n
}

// Validate checks answers against the applicable questions. It returns the
// trimmed answers keyed by question id; unanswered optional questions are
// dropped. On failure the error lists every offending question.
func Validate(questions []Question, answers map[int]string) (map[int]string, error) {
	known := make(map[int]Question, len(questions))
	for _, q := range questions {
		known[q.ID] = q
	}

	var problems []string
	var unknown []int
	for id := range answers {
		if _, ok := known[id]; !ok {
			unknown = append(unknown, id)
		}
	}
	sort.Ints(unknown)
	for _, id := range unknown {
		problems = append(problems, fmt.Sprintf("pregunta %d: no forma parte de esta encuesta", id))
	}

	clean := make(map[int]string, len(questions))
	for _, q := range questions {
		value := strings.TrimSpace(answers[q.ID])
		if value == "" {
			if q.Required() {
				problems = append(problems, fmt.Sprintf("pregunta %d: la respuesta es obligatoria", q.ID))
			}
			continue
		}
		if msg := checkValue(q, value); msg != "" {
			problems = append(problems, fmt.Sprintf("pregunta %d: %s", q.ID, msg))
			continue
		}
		clean[q.ID] = value
	}

	if len(problems) > 0 {
		return nil, errors.Validation("Faltan respuestas o hay respuestas no válidas").WithDetails(problems...)
	}
	return clean, nil
}

func checkValue(q Question, value string) string {
	switch q.Kind {
	case KindRating:
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 || n > 5 {
			return "la calificación debe ser un número entero del 1 al 5"
		}
	case KindSingleChoice:
		// no catalogue loaded yet; free text is accepted
		if len(q.Options) == 0 {
			return ""
		}
		for _, opt := range q.Options {
			if opt == value {
				return ""
			}
		}
		return "la respuesta no es una de las opciones"
	}
	return ""
}
