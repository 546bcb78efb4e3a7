package crawler

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/PuerkitoBio/goquery"

	"github.com/aluiziolira/catalog-crawler/fetcher"
	"github.com/aluiziolira/catalog-crawler/models"
	"github.com/aluiziolira/catalog-crawler/parser"
	"github.com/aluiziolira/catalog-crawler/repository"
)

// SectionWorker crawls one section at a time: plan pages, extract items
// in listing order, persist each item and then its detail sheet. All work
// within a section is sequential; parallelism happens across sections.
type SectionWorker struct {
	fetcher      *fetcher.Fetcher
	repo         *repository.Repository
	catalogueURL string
	metrics      *Metrics
}

// NewSectionWorker builds a worker over shared collaborators.
func NewSectionWorker(f *fetcher.Fetcher, repo *repository.Repository, catalogueURL string, metrics *Metrics) *SectionWorker {
	return &SectionWorker{
		fetcher:      f,
		repo:         repo,
		catalogueURL: catalogueURL,
		metrics:      metrics,
	}
}

// Process crawls one section. Page-level failures abort the section and
// are reported to the caller; a failure on a single item's detail page
// keeps the already-committed item row and moves on to the next item.
func (w *SectionWorker) Process(ctx context.Context, section models.Section) (models.SectionStats, error) {
	stats := models.SectionStats{}

	doc, err := w.fetchDocument(ctx, section.URL)
	if err != nil {
		return stats, err
	}

	count, ok := parser.ParseItemCount(doc)
	if !ok {
		slog.Warn("section has no item count, skipping",
			slog.String("section", section.Name),
			slog.String("url", section.URL),
		)
		return stats, nil
	}

	for _, pageURL := range PlanPages(section.URL, count) {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if err := w.processPage(ctx, section, pageURL, &stats); err != nil {
			return stats, err
		}
	}

	slog.Debug("section done",
		slog.String("section", section.Name),
		slog.Int("pages", stats.Pages),
		slog.Int("items", stats.Items),
		slog.Int("details", stats.Details),
	)
	return stats, nil
}

func (w *SectionWorker) processPage(ctx context.Context, section models.Section, pageURL string, stats *models.SectionStats) error {
	doc, err := w.fetchDocument(ctx, pageURL)
	if err != nil {
		return err
	}
	stats.Pages++

	for _, summary := range parser.ParseItemListing(doc, w.catalogueURL) {
		item := models.Item{
			SectionID: section.ID,
			Name:      summary.Title,
			URL:       summary.DetailURL,
			Stars:     parser.RatingToNumeric(summary.RatingLabel),
			Price:     parser.ParsePrice(summary.RawPrice),
		}
		if err := w.repo.InsertItem(ctx, &item); err != nil {
			return err
		}

		itemID := item.ID
		if itemID == 0 {
			// Fallback for stores that do not report the generated key.
			itemID, err = w.repo.ItemIDByURL(ctx, item.URL)
			if err != nil {
				return err
			}
		}
		stats.Items++
		w.metrics.IncItems()

		if err := w.processDetail(ctx, itemID, summary.DetailURL); err != nil {
			// The item row is already committed and stays.
			stats.DetailFailures++
			w.metrics.IncError(fetcher.ErrorLabel(err))
			slog.Error("item detail failed",
				slog.String("section", section.Name),
				slog.String("item", summary.Title),
				slog.String("url", summary.DetailURL),
				slog.Any("error", err),
			)
			continue
		}
		stats.Details++
		w.metrics.IncDetails()
	}
	return nil
}

func (w *SectionWorker) processDetail(ctx context.Context, itemID uint, detailURL string) error {
	doc, err := w.fetchDocument(ctx, detailURL)
	if err != nil {
		return err
	}

	fields := parser.ParseItemDetail(doc)
	detail := models.ItemDetail{
		ItemID:       itemID,
		Description:  fields.Description,
		UPC:          fields.UPC,
		ProductType:  fields.ProductType,
		PriceExclTax: fields.PriceExclTax,
		PriceInclTax: fields.PriceInclTax,
		Tax:          fields.Tax,
		Availability: fields.Availability,
		ReviewCount:  fields.ReviewCount,
	}
	return w.repo.InsertItemDetail(ctx, &detail)
}

func (w *SectionWorker) fetchDocument(ctx context.Context, url string) (*goquery.Document, error) {
	body, err := w.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", url, err)
	}
	return doc, nil
}
