// Package crawler orchestrates the catalog crawl: section discovery,
// pagination planning, and the bounded per-section worker pool.
package crawler

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/aluiziolira/catalog-crawler/config"
	"github.com/aluiziolira/catalog-crawler/fetcher"
	"github.com/aluiziolira/catalog-crawler/models"
	"github.com/aluiziolira/catalog-crawler/parser"
	"github.com/aluiziolira/catalog-crawler/repository"
)

// Coordinator discovers sections and drives the crawl to completion.
type Coordinator struct {
	cfg     *config.Config
	fetcher *fetcher.Fetcher
	repo    *repository.Repository
	metrics *Metrics
}

// NewCoordinator builds a Coordinator over shared collaborators.
func NewCoordinator(cfg *config.Config, f *fetcher.Fetcher, repo *repository.Repository, metrics *Metrics) *Coordinator {
	return &Coordinator{
		cfg:     cfg,
		fetcher: f,
		repo:    repo,
		metrics: metrics,
	}
}

// Run executes a full crawl: migrate the schema, discover and persist
// sections, then process every section on a bounded worker pool and wait
// for all of them. One section's failure is recorded and does not stop
// the others.
func (c *Coordinator) Run(ctx context.Context) (*models.CrawlResult, error) {
	result := &models.CrawlResult{
		StartTime:    time.Now(),
		ErrorsByType: make(map[string]int),
	}

	if err := c.repo.Migrate(); err != nil {
		return nil, err
	}

	sections, err := c.discoverSections(ctx)
	if err != nil {
		return nil, err
	}
	result.Sections = len(sections)

	slog.Info("sections discovered",
		slog.Int("count", len(sections)),
		slog.Int("workers", c.cfg.Workers),
	)

	c.processSections(ctx, sections, result)

	result.EndTime = time.Now()
	return result, nil
}

// discoverSections fetches the catalog root and persists every category
// navigation entry in appearance order, resolving each row's generated ID.
func (c *Coordinator) discoverSections(ctx context.Context) ([]models.Section, error) {
	body, err := c.fetcher.Fetch(ctx, c.cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", c.cfg.BaseURL, err)
	}

	links, err := parser.ParseSectionList(doc, c.cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse section list: %w", err)
	}

	sections := make([]models.Section, 0, len(links))
	for _, link := range links {
		section := models.Section{Name: link.Name, URL: link.URL}
		if err := c.repo.InsertSection(ctx, &section); err != nil {
			return nil, err
		}
		if section.ID == 0 {
			// Fallback for stores that do not report the generated key.
			id, err := c.repo.SectionIDByName(ctx, section.Name)
			if err != nil {
				return nil, err
			}
			section.ID = id
		}
		c.metrics.IncSections()
		sections = append(sections, section)
	}
	return sections, nil
}

// processSections fans the sections out over a bounded worker pool and
// joins on all of them. Every section is submitted up front; the pool
// size bounds concurrent execution only.
func (c *Coordinator) processSections(ctx context.Context, sections []models.Section, result *models.CrawlResult) {
	jobs := make(chan models.Section, len(sections))
	for _, section := range sections {
		jobs <- section
	}
	close(jobs)

	worker := NewSectionWorker(c.fetcher, c.repo, c.cfg.CatalogueURL, c.metrics)

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for i := 0; i < c.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for section := range jobs {
				stats, err := worker.Process(ctx, section)

				mu.Lock()
				result.Pages += stats.Pages
				result.Items += stats.Items
				result.Details += stats.Details
				if stats.DetailFailures > 0 {
					result.ErrorsByType["detail"] += stats.DetailFailures
				}
				if err != nil {
					result.FailedSections = append(result.FailedSections, section.Name)
					result.ErrorsByType[fetcher.ErrorLabel(err)]++
				}
				mu.Unlock()

				if err != nil {
					c.metrics.IncError(fetcher.ErrorLabel(err))
					slog.Error("section failed",
						slog.String("section", section.Name),
						slog.Any("error", err),
					)
				}
			}
		}()
	}
	wg.Wait()
}
