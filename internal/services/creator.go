package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"github.com/campusbridge/webhooks/internal/domain"
)

// ProductReportSubject is the subject of the product creation report email
const ProductReportSubject = "Shopify products created from Tahoe courses"

var reportHeader = []string{"Product Name", "Product SKU", "Tahoe URL", "Created AT"}

// ProductCreatorService copies campus courses missing from the store into store products
type ProductCreatorService struct {
	catalog  *CatalogService
	store    domain.StoreAPI
	notifier domain.Notifier
	reporter domain.ErrorReporter
	logger   domain.Logger

	now func() time.Time
}

// NewProductCreatorService creates a new product creator with dependency injection
func NewProductCreatorService(
	catalog *CatalogService,
	store domain.StoreAPI,
	notifier domain.Notifier,
	reporter domain.ErrorReporter,
	logger domain.Logger,
) *ProductCreatorService {
	return &ProductCreatorService{
		catalog:  catalog,
		store:    store,
		notifier: notifier,
		reporter: reporter,
		logger:   logger,
		now:      time.Now,
	}
}

// Run creates one unpublished product per course whose id is not yet a store SKU
func (s *ProductCreatorService) Run(ctx context.Context) domain.Result {
	courses, err := s.catalog.SiteCourses(ctx)
	if err != nil {
		// sites that answered are still synced
		s.logger.Warn("some catalogs are inaccessible", "error", err.Error())
		s.reporter.Report(err, nil)
	}

	existing, err := s.store.VariantSKUs(ctx)
	if err != nil {
		s.logger.Error("store variants unavailable", err)
		s.reporter.Report(err, nil)
		return domain.DownstreamFailure(http.StatusMultiStatus, "Store is inaccessible", err)
	}
	skus := make(map[string]bool, len(existing))
	for _, sku := range existing {
		skus[sku] = true
	}

	var created []domain.SiteCourse
	for _, course := range courses {
		if course.CourseID == "" || skus[course.CourseID] {
			continue
		}
		err := s.store.CreateProduct(ctx, domain.NewProduct{
			Title:    course.Name,
			BodyHTML: course.ShortDescription,
			Tags:     course.Site,
			SKU:      course.CourseID,
			ImageURL: course.Media.Image.Large,
		})
		if err != nil {
			s.logger.Error("product creation failed for "+course.CourseID, err)
			continue
		}
		skus[course.CourseID] = true
		created = append(created, course)
		s.logger.Info("product created", "sku", course.CourseID, "site", course.Site)
	}

	if len(created) > 0 {
		s.sendReport(ctx, created)
	}

	return domain.Accepted(http.StatusCreated, fmt.Sprintf("%d Product(s) got created", len(created)))
}

func (s *ProductCreatorService) sendReport(ctx context.Context, created []domain.SiteCourse) {
	report, err := BuildProductReport(created, s.now())
	if err != nil {
		s.logger.Error("report could not be built", err)
		return
	}

	shop, err := s.store.Shop(ctx)
	if err != nil {
		s.logger.Warn("store details unavailable, notifying operator only", "error", err.Error())
	}

	note := domain.Notification{
		Subject:    ProductReportSubject,
		Text:       fmt.Sprintf("%d product(s) were created in the store. See the attached report.", len(created)),
		AdminEmail: shop.AdminEmail(),
		AdminName:  shop.Name,
		Attachments: []domain.Attachment{{
			Name:    "products_report.csv",
			Type:    "text/csv",
			Content: report,
		}},
	}
	if err := s.notifier.Notify(ctx, note); err != nil {
		s.logger.Error("notification failed", err)
	}
}

// BuildProductReport renders created products as CSV, one row per course
func BuildProductReport(created []domain.SiteCourse, at time.Time) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(reportHeader); err != nil {
		return nil, err
	}

	date := at.Format("01-02-2006")
	for _, course := range created {
		if err := w.Write([]string{course.Name, course.CourseID, course.Site, date}); err != nil {
			return nil, err
		}
	}

	w.Flush()
	return buf.Bytes(), w.Error()
}
