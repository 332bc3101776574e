package listing

import (
	"strings"
	"sync"
	"time"

	"inkwell/models"
)

const (
	SuggestionLimit = 5
	SearchDelay     = 300 * time.Millisecond
)

// Suggest returns up to limit posts whose title contains input.
func Suggest(posts []models.Post, input string, limit int) []models.Post {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil
	}

	out := make([]models.Post, 0, limit)
	for _, p := range posts {
		if len(out) == limit {
			break
		}
		if MatchesTitle(p.Title, input) {
			out = append(out, p)
		}
	}
	return out
}

// SearchBox is the header search field: keystrokes are debounced into a
// suggestion list, and Submit or Select hands the query to the listing.
type SearchBox struct {
	debouncer *Debouncer
	onChange  func([]models.Post)

	mu          sync.Mutex
	posts       []models.Post
	input       string
	query       string
	suggestions []models.Post
}

// NewSearchBox creates a search box. onChange, if set, receives every new
// suggestion list on the debouncer's goroutine.
func NewSearchBox(delay time.Duration, onChange func([]models.Post)) *SearchBox {
	return &SearchBox{
		debouncer: NewDebouncer(delay),
		onChange:  onChange,
	}
}

// SetPosts replaces the corpus suggestions are drawn from and recomputes
// them for the current input.
func (s *SearchBox) SetPosts(posts []models.Post) {
	s.mu.Lock()
	s.posts = posts
	s.mu.Unlock()
	s.debouncer.Trigger(s.compute)
}

// Input records the field's new text and schedules a suggestion update.
func (s *SearchBox) Input(text string) {
	s.mu.Lock()
	s.input = text
	s.mu.Unlock()
	s.debouncer.Trigger(s.compute)
}

func (s *SearchBox) compute() {
	s.mu.Lock()
	s.suggestions = Suggest(s.posts, s.input, SuggestionLimit)
	out := append([]models.Post(nil), s.suggestions...)
	s.mu.Unlock()

	if s.onChange != nil {
		s.onChange(out)
	}
}

// Submit makes the current input the listing query.
func (s *SearchBox) Submit() string {
	s.debouncer.Cancel()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query = s.input
	s.suggestions = nil
	return s.query
}

// Select fills the field with a suggestion's title and makes it the query.
func (s *SearchBox) Select(title string) string {
	s.debouncer.Cancel()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.input = title
	s.query = title
	s.suggestions = nil
	return s.query
}

// Text returns the current field contents.
func (s *SearchBox) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.input
}

func (s *SearchBox) Query() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

func (s *SearchBox) Suggestions() []models.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Post(nil), s.suggestions...)
}

// Close cancels pending work; the box ignores input afterwards.
func (s *SearchBox) Close() {
	s.debouncer.Stop()
}
