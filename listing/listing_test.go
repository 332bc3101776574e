package listing

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inkwell/models"
)

func post(title string, category models.Category) models.Post {
	return models.Post{ID: title, Title: title, Category: category, IsPublished: true}
}

func titles(posts []models.Post) []string {
	out := make([]string, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.Title)
	}
	return out
}

func TestFilter(t *testing.T) {
	posts := []models.Post{
		post("Go Tips", models.CategoryTechnology),
		post("Travel Go", models.CategoryTravel),
		post("Budget", models.CategoryFinance),
	}

	tests := []struct {
		name     string
		query    string
		category models.Category
		expected []string
	}{
		{"query matches case-insensitively", "go", models.CategoryAll, []string{"Go Tips", "Travel Go"}},
		{"query and category", "go", models.CategoryTravel, []string{"Travel Go"}},
		{"empty query and all", "", models.CategoryAll, []string{"Go Tips", "Travel Go", "Budget"}},
		{"empty category passes through", "", "", []string{"Go Tips", "Travel Go", "Budget"}},
		{"no match", "zzz", models.CategoryAll, []string{}},
		{"unknown category", "", models.Category("Cooking"), []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, titles(Filter(posts, tt.query, tt.category)))
		})
	}
}

func TestFilter_QueryThenCategory(t *testing.T) {
	posts := []models.Post{
		post("Intro to Go", models.CategoryTechnology),
		post("React Basics", models.CategoryTechnology),
		post("Go Concurrency", models.CategoryTechnology),
	}

	byQuery := Filter(posts, "go", models.CategoryAll)
	assert.Equal(t, []string{"Intro to Go", "Go Concurrency"}, titles(byQuery))

	assert.Empty(t, Filter(posts, "go", models.CategoryFinance))
	assert.Empty(t, Filter(byQuery, "", models.CategoryFinance))
}

func TestPublished(t *testing.T) {
	draft := post("draft", models.CategoryHealth)
	draft.IsPublished = false

	got := Published([]models.Post{post("live", models.CategoryHealth), draft})
	assert.Equal(t, []string{"live"}, titles(got))
}

func numbered(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

func TestPaginate(t *testing.T) {
	items := numbered(13)

	page := Paginate(items, 1, 6)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, page.Items)
	assert.Equal(t, 3, page.TotalPages)
	assert.False(t, page.HasPrev)
	assert.True(t, page.HasNext)

	page = Paginate(items, 3, 6)
	assert.Equal(t, []int{13}, page.Items)
	assert.True(t, page.HasPrev)
	assert.False(t, page.HasNext)
}

func TestPaginate_Clamps(t *testing.T) {
	items := numbered(13)

	assert.Equal(t, 3, Paginate(items, 9, 6).Number)
	assert.Equal(t, 1, Paginate(items, 0, 6).Number)
	assert.Equal(t, 1, Paginate(items, -4, 6).Number)
}

func TestPaginate_Empty(t *testing.T) {
	page := Paginate([]int{}, 1, PageSize)
	assert.Empty(t, page.Items)
	assert.Equal(t, 1, page.TotalPages)
	assert.Equal(t, 1, page.Number)
	assert.False(t, page.HasNext)
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 1, TotalPages(0, 6))
	assert.Equal(t, 1, TotalPages(6, 6))
	assert.Equal(t, 2, TotalPages(7, 6))
	assert.Equal(t, 3, TotalPages(13, 6))
}

func TestSuggest(t *testing.T) {
	var posts []models.Post
	for i := 0; i < 8; i++ {
		posts = append(posts, post(fmt.Sprintf("Go %d", i), models.CategoryTechnology))
	}
	posts = append(posts, post("Budget", models.CategoryFinance))

	assert.Len(t, Suggest(posts, "go", SuggestionLimit), SuggestionLimit)
	assert.Equal(t, []string{"Budget"}, titles(Suggest(posts, "BUD", SuggestionLimit)))
	assert.Nil(t, Suggest(posts, "   ", SuggestionLimit))
}

func TestDebouncer_FiresOnceWithLastValue(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	defer d.Stop()

	var mu sync.Mutex
	var fired []string
	for _, v := range []string{"g", "go", "gol", "gola"} {
		v := v
		d.Trigger(func() {
			mu.Lock()
			fired = append(fired, v)
			mu.Unlock()
		})
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(fired) > 0
	}, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"gola"}, fired)
}

func TestDebouncer_StopPreventsFiring(t *testing.T) {
	d := NewDebouncer(10 * time.Millisecond)
	var calls atomic.Int32

	d.Trigger(func() { calls.Add(1) })
	d.Stop()
	d.Trigger(func() { calls.Add(1) })

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())
	assert.False(t, d.Pending())
}

func TestDebouncer_Cancel(t *testing.T) {
	d := NewDebouncer(10 * time.Millisecond)
	defer d.Stop()
	var calls atomic.Int32

	d.Trigger(func() { calls.Add(1) })
	assert.True(t, d.Pending())
	d.Cancel()
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())

	d.Trigger(func() { calls.Add(1) })
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
}

func TestSearchBox(t *testing.T) {
	updates := make(chan []models.Post, 4)
	box := NewSearchBox(10*time.Millisecond, func(p []models.Post) { updates <- p })
	defer box.Close()

	box.SetPosts([]models.Post{post("Go Tips", models.CategoryTechnology), post("Budget", models.CategoryFinance)})
	box.Input("g")
	box.Input("go")

	select {
	case got := <-updates:
		assert.Equal(t, []string{"Go Tips"}, titles(got))
	case <-time.After(time.Second):
		t.Fatal("no suggestions")
	}
	assert.Equal(t, "go", box.Text())
	assert.Equal(t, "", box.Query())

	assert.Equal(t, "Go Tips", box.Select("Go Tips"))
	assert.Equal(t, "Go Tips", box.Query())
	assert.Empty(t, box.Suggestions())
}

func TestSearchBox_SubmitCancelsPending(t *testing.T) {
	var calls atomic.Int32
	box := NewSearchBox(30*time.Millisecond, func([]models.Post) { calls.Add(1) })
	defer box.Close()

	box.Input("budget")
	assert.Equal(t, "budget", box.Submit())

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())
}
