package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"strings"

	"github.com/campusbridge/webhooks/internal/config"
	"github.com/campusbridge/webhooks/internal/domain"
)

// Notification subjects of the purchase flow
const (
	RegistrationSubject = "Tahoe User Registration"
	EnrollmentSubject   = "Tahoe User Enrollment"
)

// PurchaseListenerService registers and enrolls the buyer of a paid order
type PurchaseListenerService struct {
	auth     *WebhookAuthenticator
	catalog  *CatalogService
	campus   domain.CampusAPI
	store    domain.StoreAPI
	notifier domain.Notifier
	reporter domain.ErrorReporter
	logger   domain.Logger

	// suffix draws the random number appended to generated usernames
	suffix func() int
}

// NewPurchaseListenerService creates a new purchase listener with dependency injection
func NewPurchaseListenerService(
	auth *WebhookAuthenticator,
	catalog *CatalogService,
	campus domain.CampusAPI,
	store domain.StoreAPI,
	notifier domain.Notifier,
	reporter domain.ErrorReporter,
	logger domain.Logger,
) *PurchaseListenerService {
	return &PurchaseListenerService{
		auth:     auth,
		catalog:  catalog,
		campus:   campus,
		store:    store,
		notifier: notifier,
		reporter: reporter,
		logger:   logger,
		suffix:   func() int { return 100 + rand.Intn(9900) },
	}
}

// Process handles an orders/paid call end to end; the answer is the enrollment outcome
func (s *PurchaseListenerService) Process(ctx context.Context, req domain.WebhookRequest) domain.Result {
	log := s.logger.With("webhook_id", req.WebhookID, "topic", req.Topic)

	if err := s.auth.Authenticate(req); err != nil {
		return authFailure(log, req, err)
	}

	var order domain.Order
	if err := json.Unmarshal(req.Body, &order); err != nil {
		log.Warn("order payload could not be decoded", "error", err.Error())
		return domain.ValidationFailure(http.StatusOK, "Invalid payload", fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err))
	}

	if !order.IsPaid() {
		log.Info("ignoring unpaid order", "financial_status", order.FinancialStatus)
		return domain.Ignored("Can't handle unpaid calls")
	}

	if err := CheckOrder(order); err != nil {
		log.Warn("bad request", "error", err.Error(), "order_id", order.ID)
		return domain.ValidationFailure(http.StatusNotFound, MissingPurchaseFields, err)
	}

	info := s.BuildPurchaseInfo(ctx, order)
	log.Info("purchase received",
		"order_id", order.ID,
		"email", info.Email,
		"skus", info.SKUs,
		"sites", info.DistinctSites(),
	)

	registration := s.Register(ctx, info)
	log.Info("registration finished", "status", registration.Status, "message", registration.Message)

	return s.Enroll(ctx, info)
}

// BuildPurchaseInfo gathers what registration and enrollment need from a paid order.
// A SKU whose product carries no configured site tag is left out of Sites.
func (s *PurchaseListenerService) BuildPurchaseInfo(ctx context.Context, order domain.Order) domain.PurchaseInfo {
	info := domain.PurchaseInfo{
		SKUs:             order.SKUs(),
		Sites:            make(map[string]string),
		Email:            strings.TrimSpace(order.Email),
		FullName:         order.FullName(),
		PaymentConfirmed: order.Confirmed,
	}
	info.Username = GenerateUsername(info.Email, s.suffix())

	products := make(map[string]int64)
	for _, item := range order.LineItems {
		sku := strings.TrimSpace(item.SKU)
		if _, ok := products[sku]; sku != "" && !ok {
			products[sku] = item.ProductID
		}
	}

	for _, sku := range info.SKUs {
		product, err := s.store.Product(ctx, products[sku])
		if err != nil {
			s.logger.Error("product lookup failed for "+sku, err)
			continue
		}
		if site, ok := s.siteFromTags(product.TagList()); ok {
			info.Sites[sku] = site
		}
	}

	shop, err := s.store.Shop(ctx)
	if err != nil {
		s.logger.Warn("store details unavailable", "error", err.Error())
	}
	info.StoreAdmin = shop

	return info
}

func (s *PurchaseListenerService) siteFromTags(tags []string) (string, bool) {
	for _, tag := range tags {
		tag = config.NormalizeSite(tag)
		for _, site := range s.catalog.Sites() {
			if tag == site {
				return site, true
			}
		}
	}
	return "", false
}

// Register creates the buyer's account on every site implicated by the purchase
func (s *PurchaseListenerService) Register(ctx context.Context, info domain.PurchaseInfo) domain.Result {
	report := domain.StageReport{Summary: "End of registering user"}
	for _, site := range info.DistinctSites() {
		item := s.registerOn(ctx, site, info)
		s.record(ctx, RegistrationSubject, site, item)
		report.Add(item)
	}
	return report.Result()
}

func (s *PurchaseListenerService) registerOn(ctx context.Context, site string, info domain.PurchaseInfo) domain.Result {
	exists := domain.ValidationFailure(http.StatusConflict, fmt.Sprintf("User %s already exist", info.Email), nil)

	users, err := s.campus.FindUsers(ctx, site, info.Email)
	if err != nil {
		s.logger.Warn("user lookup failed, registering anyway", "site", site, "error", err.Error())
	}
	for _, user := range users {
		if strings.EqualFold(user.Email, info.Email) {
			return exists
		}
	}

	status, err := s.campus.Register(ctx, site, domain.Registration{
		Name:     info.FullName,
		Username: info.Username,
		Email:    info.Email,
	})
	switch {
	case err == nil && status >= 200 && status < 300:
		return domain.Accepted(http.StatusCreated, "User successfully registered in "+site)
	case err == nil && status == http.StatusConflict:
		return exists
	default:
		if err == nil {
			err = fmt.Errorf("%w: registration answered %d", domain.ErrCampusUnavailable, status)
		}
		return domain.DownstreamFailure(http.StatusMultiStatus,
			fmt.Sprintf("Something went wrong during registering %s in %s", info.Username, site), err)
	}
}

// Enroll enrolls the buyer in every purchased course
func (s *PurchaseListenerService) Enroll(ctx context.Context, info domain.PurchaseInfo) domain.Result {
	report := domain.StageReport{Summary: "End of enrollment"}
	catalogs := make(map[string]map[string]bool)

	for _, sku := range info.SKUs {
		site, ok := info.Sites[sku]
		if !ok {
			item := domain.DownstreamFailure(http.StatusMultiStatus,
				fmt.Sprintf("No campus site found for %s", sku), fmt.Errorf("%w: sku %s", domain.ErrUnknownSite, sku))
			s.record(ctx, EnrollmentSubject, "", item)
			report.Add(item)
			continue
		}

		item := s.enrollIn(ctx, site, sku, info, catalogs)
		s.record(ctx, EnrollmentSubject, site, item)
		report.Add(item)
	}
	return report.Result()
}

func (s *PurchaseListenerService) enrollIn(ctx context.Context, site, sku string, info domain.PurchaseInfo, catalogs map[string]map[string]bool) domain.Result {
	ids, ok := catalogs[site]
	if !ok {
		var err error
		ids, err = s.catalog.SiteCourseIDs(ctx, site)
		if err != nil {
			return domain.DownstreamFailure(http.StatusMultiStatus, "Catalog is inaccessible",
				fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err))
		}
		catalogs[site] = ids
	}

	if !ids[sku] {
		return domain.ValidationFailure(http.StatusNotFound, "Course doesn't exist",
			fmt.Errorf("%w: %q on %s", domain.ErrInvalidCourse, sku, site))
	}

	status, err := s.campus.Enroll(ctx, site, domain.Enrollment{CourseID: sku, Email: info.Email})
	switch {
	case err == nil && status >= 200 && status < 300:
		return domain.Accepted(http.StatusOK, "User successfully enrolled in the course")
	case err == nil && status == http.StatusConflict:
		return domain.ValidationFailure(http.StatusConflict, "User already enrolled in the course", nil)
	default:
		if err == nil {
			err = fmt.Errorf("%w: enrollment answered %d", domain.ErrCampusUnavailable, status)
		}
		return domain.DownstreamFailure(http.StatusMultiStatus,
			fmt.Sprintf("Something went wrong during enrolling %s in %s", info.Email, sku), err)
	}
}

// record logs one stage item and emails it to the operator
func (s *PurchaseListenerService) record(ctx context.Context, subject, site string, item domain.Result) {
	log := s.logger.With("stage", subject, "site", site, "status", item.Status)
	if item.Failed() {
		log.Error(item.Message, item.Err)
		s.reporter.Report(item.Err, nil)
	} else {
		log.Info(item.Message)
	}

	if err := s.notifier.Notify(ctx, domain.Notification{Subject: subject, Text: item.Message}); err != nil {
		log.Error("notification failed", err)
	}
}

// GenerateUsername derives a campus username from the email local part, without '+'
func GenerateUsername(email string, suffix int) string {
	local, _, _ := strings.Cut(email, "@")
	return fmt.Sprintf("%s%d", strings.ReplaceAll(local, "+", ""), suffix)
}
