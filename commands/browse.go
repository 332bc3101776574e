package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"inkwell/common"
	"inkwell/database"
	"inkwell/models"
	"inkwell/posts"
	"inkwell/realtime"
	"inkwell/tui"
	"inkwell/views"
)

var (
	demo         bool
	pollInterval time.Duration
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Read published posts in the terminal",
	Long: `Open an interactive reader over the published posts with search,
category tabs and paging.

Writes made by another process (a running server) are picked up by
polling the database every --poll interval.

Examples:
  inkwell browse                # read the configured database
  inkwell browse --demo         # read a seeded in-memory database
  inkwell browse --poll 2s      # refresh more often`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		return runBrowse(ctx)
	},
}

func init() {
	browseCmd.Flags().BoolVar(&demo, "demo", false, "Use an in-memory database with sample posts")
	browseCmd.Flags().DurationVar(&pollInterval, "poll", 5*time.Second, "How often to look for writes from other processes, 0 disables")
	rootCmd.AddCommand(browseCmd)
}

func runBrowse(ctx context.Context) error {
	cfg := loadConfig()

	var (
		db  *gorm.DB
		err error
	)
	if demo {
		db, err = database.OpenMemory()
	} else {
		db, err = common.ConnectDb(cfg.DSN())
	}
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	feed := realtime.NewFeed()
	if err := db.Use(feed); err != nil {
		return fmt.Errorf("failed to install change feed: %w", err)
	}
	svc := posts.NewService(db, feed)

	if demo {
		if err := seedDemo(ctx, svc); err != nil {
			return fmt.Errorf("failed to seed demo posts: %w", err)
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if pollInterval > 0 && !demo {
		go poll(ctx, feed, pollInterval)
	}

	return tui.Run(ctx, views.NewHome(svc))
}

// poll wakes the posts subscriptions on a timer so rows written by other
// processes show up.
func poll(ctx context.Context, feed *realtime.Feed, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			feed.Notify(models.PostsCollection)
		}
	}
}

var demoPosts = []posts.PostInput{
	{Title: "Shipping a Go service in a weekend", Subtitle: "From empty repo to production", Category: models.CategoryTechnology},
	{Title: "What we learned raising a seed round", Subtitle: "Notes from forty investor meetings", Category: models.CategoryStartup},
	{Title: "Slow mornings", Subtitle: "A case for the unhurried start", Category: models.CategoryLifestyle},
	{Title: "Index funds, explained simply", Subtitle: "Why boring can be brilliant", Category: models.CategoryFinance},
	{Title: "Sleep is a skill", Subtitle: "Small habits with large returns", Category: models.CategoryHealth},
	{Title: "Three days in Lisbon", Subtitle: "Trams, tiles and pastel de nata", Category: models.CategoryTravel},
	{Title: "Profiling Go programs with pprof", Subtitle: "Finding the hot path", Category: models.CategoryTechnology},
	{Title: "Pricing your first product", Subtitle: "Charge more than you think", Category: models.CategoryStartup},
	{Title: "Learning to cook with five ingredients", Subtitle: "Less shopping, better food", Category: models.CategoryLifestyle},
	{Title: "Building an emergency fund", Subtitle: "Start with one month", Category: models.CategoryFinance},
	{Title: "Walking as exercise", Subtitle: "The underrated workout", Category: models.CategoryHealth},
	{Title: "Night trains of Europe", Subtitle: "Slow travel, fast dreams", Category: models.CategoryTravel},
	{Title: "Go generics in practice", Subtitle: "Where type parameters pay off", Category: models.CategoryTechnology},
}

func seedDemo(ctx context.Context, svc *posts.Service) error {
	owner := models.Identity{ID: "demo", Email: "demo@inkwell.local"}
	for _, in := range demoPosts {
		in.Body = "<p>" + in.Subtitle + ".</p>"
		in.ImageURL = "https://picsum.photos/seed/inkwell/800/400"
		in.Author = owner.Email
		in.IsPublished = true
		if _, err := svc.Create(ctx, in, owner); err != nil {
			return err
		}
	}
	return nil
}
