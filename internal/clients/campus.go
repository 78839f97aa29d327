package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/campusbridge/webhooks/internal/config"
	"github.com/campusbridge/webhooks/internal/domain"
)

// MaxCatalogPages bounds pagination when a catalog announces an absurd page count
const MaxCatalogPages = 1000

// CampusOptions configures a CampusClient
type CampusOptions struct {
	CoursesAPI      string
	UsersAPI        string
	RegistrationAPI string
	EnrollmentAPI   string
	Tokens          config.SiteTokens
	CatalogTimeout  time.Duration
	APITimeout      time.Duration
	Limiter         *RateLimiter
}

// CampusClient implements domain.CampusAPI against campus sites
type CampusClient struct {
	catalog *resty.Client
	api     *resty.Client
	limiter *RateLimiter
	opts    CampusOptions
}

// NewCampusClient creates a campus client
func NewCampusClient(opts CampusOptions) *CampusClient {
	return &CampusClient{
		catalog: resty.New().SetTimeout(opts.CatalogTimeout).SetHeader("Accept", "application/json"),
		api:     resty.New().SetTimeout(opts.APITimeout).SetHeader("Accept", "application/json"),
		limiter: opts.Limiter,
		opts:    opts,
	}
}

// ListCourses returns every course of the site's catalog.
// The first page fixes the page count; later pages are reached through pagination.next,
// so exactly num_pages requests are made.
func (c *CampusClient) ListCourses(ctx context.Context, site string) ([]domain.Course, error) {
	page, err := c.fetchPage(ctx, config.NormalizeSite(site)+c.opts.CoursesAPI)
	if err != nil {
		return nil, err
	}

	numPages := page.Pagination.NumPages
	if numPages > MaxCatalogPages {
		return nil, fmt.Errorf("%w: %s announces %d pages", domain.ErrPaginationLimit, site, numPages)
	}

	courses := page.Results
	for fetched := 1; fetched < numPages; fetched++ {
		next := page.Pagination.Next
		if next == nil || *next == "" {
			break
		}
		if page, err = c.fetchPage(ctx, *next); err != nil {
			return nil, err
		}
		courses = append(courses, page.Results...)
	}

	return courses, nil
}

func (c *CampusClient) fetchPage(ctx context.Context, pageURL string) (domain.CatalogPage, error) {
	var page domain.CatalogPage

	if err := c.limiter.Wait(ctx); err != nil {
		return page, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
	}

	resp, err := c.catalog.R().SetContext(ctx).Get(pageURL)
	if err != nil {
		return page, fmt.Errorf("%w: %s: %v", domain.ErrCatalogUnavailable, pageURL, err)
	}
	if !resp.IsSuccess() {
		return page, fmt.Errorf("%w: %s answered %d", domain.ErrCatalogUnavailable, pageURL, resp.StatusCode())
	}
	if err := json.Unmarshal(resp.Body(), &page); err != nil {
		return page, fmt.Errorf("%w: %s: %v", domain.ErrCatalogUnavailable, pageURL, err)
	}

	return page, nil
}

// FindUsers lists the site's users matching email
func (c *CampusClient) FindUsers(ctx context.Context, site, email string) ([]domain.CampusUser, error) {
	req, err := c.authorized(ctx, site)
	if err != nil {
		return nil, err
	}

	resp, err := req.SetQueryParam("email", email).Get(config.NormalizeSite(site) + c.opts.UsersAPI)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrCampusUnavailable, site, err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%w: %s users answered %d", domain.ErrCampusUnavailable, site, resp.StatusCode())
	}

	return decodeUsers(resp.Body())
}

// decodeUsers accepts both a bare list and a paginated {"results": [...]} envelope
func decodeUsers(body []byte) ([]domain.CampusUser, error) {
	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "[") {
		var users []domain.CampusUser
		if err := json.Unmarshal(body, &users); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrCampusUnavailable, err)
		}
		return users, nil
	}

	var envelope struct {
		Results []domain.CampusUser `json:"results"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCampusUnavailable, err)
	}
	return envelope.Results, nil
}

// Register posts a registration form and returns the campus status code
func (c *CampusClient) Register(ctx context.Context, site string, reg domain.Registration) (int, error) {
	form := url.Values{}
	form.Set("name", reg.Name)
	form.Set("username", reg.Username)
	form.Set("email", reg.Email)

	return c.postForm(ctx, site, c.opts.RegistrationAPI, form)
}

// Enroll posts an enrollment directive and returns the campus status code
func (c *CampusClient) Enroll(ctx context.Context, site string, enrollment domain.Enrollment) (int, error) {
	form := url.Values{}
	form.Set("action", "enroll")
	form.Set("email_learners", "false")
	form.Set("courses", enrollment.CourseID)
	form.Set("identifiers", enrollment.Email)
	form.Set("auto_enroll", "true")

	return c.postForm(ctx, site, c.opts.EnrollmentAPI, form)
}

func (c *CampusClient) postForm(ctx context.Context, site, path string, form url.Values) (int, error) {
	req, err := c.authorized(ctx, site)
	if err != nil {
		return 0, err
	}

	resp, err := req.SetFormDataFromValues(form).Post(config.NormalizeSite(site) + path)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", domain.ErrCampusUnavailable, site, err)
	}
	return resp.StatusCode(), nil
}

func (c *CampusClient) authorized(ctx context.Context, site string) (*resty.Request, error) {
	token, ok := c.opts.Tokens.Lookup(site)
	if !ok {
		return nil, fmt.Errorf("%w: no token for %s", domain.ErrUnknownSite, site)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCampusUnavailable, err)
	}

	return c.api.R().
		SetContext(ctx).
		SetHeader("Authorization", "Token "+token), nil
}
