// Package domain contains domain models and interfaces following SOLID principles
package domain

import (
	"context"
	"net/http"
	"strings"
)

// Store webhook headers
const (
	HeaderTopic      = "X-Shopify-Topic"
	HeaderShopDomain = "X-Shopify-Shop-Domain"
	HeaderSignature  = "X-Shopify-Hmac-Sha256"
	HeaderWebhookID  = "X-Shopify-Webhook-Id"
)

// WebhookRequest is an inbound store webhook call, immutable once received
type WebhookRequest struct {
	Body       []byte
	Topic      string
	ShopDomain string
	Signature  string
	WebhookID  string
}

// Origin returns the caller's declared store URL
func (r WebhookRequest) Origin() string {
	return "https://" + r.ShopDomain
}

// Order is the subset of an orders/paid payload the handlers act on
type Order struct {
	ID              int64      `json:"id"`
	Email           string     `json:"email"`
	FinancialStatus string     `json:"financial_status"`
	Confirmed       bool       `json:"confirmed"`
	BillingAddress  *Address   `json:"billing_address"`
	LineItems       []LineItem `json:"line_items"`
}

// Address is a billing or shipping address
type Address struct {
	Name      string `json:"name"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// LineItem is one purchased product variant
type LineItem struct {
	ID        int64  `json:"id"`
	ProductID int64  `json:"product_id"`
	VariantID int64  `json:"variant_id"`
	Title     string `json:"title"`
	SKU       string `json:"sku"`
}

// FinancialStatusPaid marks an order whose payment went through
const FinancialStatusPaid = "paid"

// IsPaid reports whether the order's payment went through
func (o Order) IsPaid() bool {
	return o.FinancialStatus == FinancialStatusPaid
}

// FullName returns the billing full name, or "" when there is no billing address
func (o Order) FullName() string {
	if o.BillingAddress == nil {
		return ""
	}
	return strings.TrimSpace(o.BillingAddress.Name)
}

// SKUs returns the distinct non-empty line item SKUs in purchase order
func (o Order) SKUs() []string {
	seen := make(map[string]bool, len(o.LineItems))
	var skus []string
	for _, item := range o.LineItems {
		sku := strings.TrimSpace(item.SKU)
		if sku == "" || seen[sku] {
			continue
		}
		seen[sku] = true
		skus = append(skus, sku)
	}
	return skus
}

// Product is a store product as sent by products/create and products/update
type Product struct {
	ID       int64     `json:"id"`
	Title    string    `json:"title"`
	Tags     string    `json:"tags"`
	Variants []Variant `json:"variants"`
}

// Variant is a store product variant; its SKU doubles as a course id
type Variant struct {
	ID        int64  `json:"id"`
	ProductID int64  `json:"product_id"`
	SKU       string `json:"sku"`
}

// SKU returns the first variant's SKU, or "" for a product without variants
func (p Product) SKU() string {
	if len(p.Variants) == 0 {
		return ""
	}
	return strings.TrimSpace(p.Variants[0].SKU)
}

// TagList splits the comma-separated product tags
func (p Product) TagList() []string {
	var tags []string
	for _, tag := range strings.Split(p.Tags, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// Course is a campus catalog record
type Course struct {
	CourseID         string      `json:"course_id"`
	Name             string      `json:"name"`
	ShortDescription string      `json:"short_description"`
	Media            CourseMedia `json:"media"`
}

// CourseMedia holds the catalog image links
type CourseMedia struct {
	Image struct {
		Large string `json:"large"`
	} `json:"image"`
}

// CatalogPage is one page of the campus course listing
type CatalogPage struct {
	Pagination Pagination `json:"pagination"`
	Results    []Course   `json:"results"`
}

// Pagination is the catalog paging envelope; Next is nil on the last page
type Pagination struct {
	NumPages int     `json:"num_pages"`
	Next     *string `json:"next"`
}

// SiteCourse is a course together with the campus site hosting it
type SiteCourse struct {
	Site string
	Course
}

// CampusUser is an existing learner account on a campus site
type CampusUser struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Name     string `json:"name"`
}

// Registration is the body of a campus registration call
type Registration struct {
	Name     string
	Username string
	Email    string
}

// Enrollment is the body of a campus enrollment call
type Enrollment struct {
	CourseID string
	Email    string
}

// Shop is the store's own account details, used to address the store admin
type Shop struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	CustomerEmail string `json:"customer_email"`
}

// AdminEmail prefers the customer-facing address the way the store admin panel does
func (s Shop) AdminEmail() string {
	if s.CustomerEmail != "" {
		return s.CustomerEmail
	}
	return s.Email
}

// NewProduct describes a store product created from a campus course
type NewProduct struct {
	Title    string
	BodyHTML string
	Tags     string
	SKU      string
	ImageURL string
}

// PurchaseInfo is the per-request view of a paid order, never persisted
type PurchaseInfo struct {
	SKUs             []string
	Sites            map[string]string // SKU -> campus site URL
	Email            string
	FullName         string
	Username         string
	PaymentConfirmed bool
	StoreAdmin       Shop
}

// DistinctSites returns every site implicated by the purchase, in SKU order
func (p PurchaseInfo) DistinctSites() []string {
	seen := make(map[string]bool, len(p.Sites))
	var sites []string
	for _, sku := range p.SKUs {
		site, ok := p.Sites[sku]
		if !ok || seen[site] {
			continue
		}
		seen[site] = true
		sites = append(sites, site)
	}
	return sites
}

// Notification is an operator email, optionally copied to the store admin
type Notification struct {
	Subject     string
	Text        string
	AdminEmail  string
	AdminName   string
	Attachments []Attachment
}

// Attachment is a file sent along with a notification
type Attachment struct {
	Name    string
	Type    string
	Content []byte
}

// Logger interface (Dependency Inversion Principle)
// Allows swapping logging implementations
type Logger interface {
	With(args ...interface{}) Logger
	Error(msg string, err error)
	Warn(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Debug(msg string, args ...interface{})
}

// SignatureValidator interface (Dependency Inversion Principle)
// Separates validation logic from transport layer
type SignatureValidator interface {
	Validate(payload []byte, signature string) error
}

// Notifier sends operator email
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// ErrorReporter forwards unexpected failures to error tracking
type ErrorReporter interface {
	Report(err error, req *http.Request)
}

// CatalogLister pages through one campus site's course listing
type CatalogLister interface {
	ListCourses(ctx context.Context, site string) ([]Course, error)
}

// CampusAPI is the campus registration/enrollment surface.
// Register and Enroll return the HTTP status; err is set only when no response arrived.
type CampusAPI interface {
	CatalogLister
	FindUsers(ctx context.Context, site, email string) ([]CampusUser, error)
	Register(ctx context.Context, site string, reg Registration) (int, error)
	Enroll(ctx context.Context, site string, enrollment Enrollment) (int, error)
}

// StoreAPI is the store admin surface
type StoreAPI interface {
	Shop(ctx context.Context) (Shop, error)
	Product(ctx context.Context, id int64) (Product, error)
	UnpublishProduct(ctx context.Context, id int64) (title string, err error)
	VariantSKUs(ctx context.Context) ([]string, error)
	CreateProduct(ctx context.Context, product NewProduct) error
}

// Relay delivers a webhook request, verbatim, to a downstream URL
type Relay interface {
	Forward(ctx context.Context, url string, req WebhookRequest) error
}

// WebhookProcessor interface (Dependency Inversion Principle)
// Main business logic abstraction
type WebhookProcessor interface {
	Process(ctx context.Context, req WebhookRequest) Result
}
