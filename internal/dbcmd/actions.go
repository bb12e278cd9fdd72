// Package dbcmd implements the db inspection subcommands.
package dbcmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dtnitsch/news-clipper/internal/common"
	"github.com/dtnitsch/news-clipper/models"
	dbpkg "github.com/dtnitsch/news-clipper/pkg/db"
	"github.com/dtnitsch/news-clipper/pkg/report"
	"github.com/urfave/cli/v2"
)

// ArticlesAction lists the articles in the store, newest-collected first
// within each source.
func ArticlesAction(c *cli.Context) error {
	cfg, err := common.LoadConfig(c)
	if err != nil {
		return err
	}
	database, err := dbpkg.Open(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	st, err := database.LoadStore()
	if err != nil {
		return err
	}

	articles := st.All()
	if len(articles) == 0 {
		fmt.Println("No articles found")
		return nil
	}

	limit := c.Int("limit")
	sourceFilter := c.String("source")

	fmt.Printf("%-15s %-12s %-7s %-5s %-50s\n", "Source", "Collected", "Parsed", "Lang", "Title")
	fmt.Println(strings.Repeat("-", 95))

	shown := 0
	for _, a := range articles {
		if sourceFilter != "" && a.SourceID != sourceFilter {
			continue
		}
		if limit > 0 && shown >= limit {
			break
		}
		title := a.Title
		if len(title) > 50 {
			title = title[:47] + "..."
		}
		fmt.Printf("%-15s %-12s %-7t %-5s %-50s\n", a.SourceID, a.CollectedAt, a.Parsed, a.Language, title)
		shown++
	}
	fmt.Printf("\nTotal: %d articles (%d shown)\n", len(articles), shown)
	return nil
}

// MatchesAction lists recorded match state, optionally for one subscriber.
func MatchesAction(c *cli.Context) error {
	cfg, err := common.LoadConfig(c)
	if err != nil {
		return err
	}
	database, err := dbpkg.Open(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	st, err := database.LoadStore()
	if err != nil {
		return err
	}

	subscriberFilter := c.String("subscriber")
	matchedOnly := !c.Bool("all")

	fmt.Printf("%-12s %-15s %-8s %-25s %-40s\n", "Subscriber", "Source", "Matched", "Keywords", "URL")
	fmt.Println(strings.Repeat("-", 105))

	count := 0
	for _, a := range st.All() {
		for _, subID := range sortedSubscribers(a.MatchState) {
			res := a.MatchState[subID]
			if subscriberFilter != "" && subID != subscriberFilter {
				continue
			}
			if matchedOnly && !res.Matched {
				continue
			}
			fmt.Printf("%-12s %-15s %-8t %-25s %-40s\n",
				subID, a.SourceID, res.Matched, strings.Join(res.KeywordsHit, ","), a.URL)
			count++
		}
	}
	fmt.Printf("\nTotal: %d match records\n", count)
	return nil
}

// SourcesAction summarizes the store per source.
func SourcesAction(c *cli.Context) error {
	cfg, err := common.LoadConfig(c)
	if err != nil {
		return err
	}
	database, err := dbpkg.Open(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	st, err := database.LoadStore()
	if err != nil {
		return err
	}

	type stats struct {
		articles int
		parsed   int
		matched  int
	}
	bySource := make(map[string]*stats)
	var order []string
	for _, a := range st.All() {
		s, ok := bySource[a.SourceID]
		if !ok {
			s = &stats{}
			bySource[a.SourceID] = s
			order = append(order, a.SourceID)
		}
		s.articles++
		if a.Parsed {
			s.parsed++
		}
		for _, res := range a.MatchState {
			if res.Matched {
				s.matched++
				break
			}
		}
	}

	fmt.Printf("%-20s %-10s %-10s %-10s\n", "Source", "Articles", "Parsed", "Matched")
	fmt.Println(strings.Repeat("-", 55))
	for _, id := range order {
		s := bySource[id]
		fmt.Printf("%-20s %-10d %-10d %-10d\n", id, s.articles, s.parsed, s.matched)
	}
	return nil
}

// ExportAction writes the per-subscriber JSON export for a given date
// without running any other phase.
func ExportAction(c *cli.Context) error {
	cfg, err := common.LoadConfig(c)
	if err != nil {
		return err
	}
	runDate, err := common.RunDate(c)
	if err != nil {
		return err
	}
	database, err := dbpkg.Open(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	st, err := database.LoadStore()
	if err != nil {
		return err
	}

	path, err := report.WriteJSON(cfg.OutputDir, cfg.OutputPrefix, report.Build(st, cfg.Subscribers, runDate))
	if err != nil {
		return err
	}
	fmt.Printf("export written to %s\n", path)
	return nil
}

func sortedSubscribers(state map[string]models.MatchResult) []string {
	ids := make([]string, 0, len(state))
	for id := range state {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
