package services

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/campusbridge/webhooks/internal/domain"
)

const (
	testSecret   = "hush"
	testStoreURL = "https://campus-store.myshopify.com"
	testSiteA    = "https://academy.tahoe.example"
	testSiteB    = "https://school.tahoe.example"
)

// MockLogger for testing; children share the parent's records
type MockLogger struct {
	mu        *sync.Mutex
	ErrorLogs *[]string
	WarnLogs  *[]string
	InfoLogs  *[]string
}

func NewMockLogger() *MockLogger {
	return &MockLogger{
		mu:        &sync.Mutex{},
		ErrorLogs: &[]string{},
		WarnLogs:  &[]string{},
		InfoLogs:  &[]string{},
	}
}

func (m *MockLogger) With(args ...interface{}) domain.Logger { return m }

func (m *MockLogger) Error(msg string, err error) { m.append(m.ErrorLogs, msg) }

func (m *MockLogger) Warn(msg string, args ...interface{}) { m.append(m.WarnLogs, msg) }

func (m *MockLogger) Info(msg string, args ...interface{}) { m.append(m.InfoLogs, msg) }

func (m *MockLogger) Debug(msg string, args ...interface{}) {}

func (m *MockLogger) append(logs *[]string, msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	*logs = append(*logs, msg)
}

func (m *MockLogger) Errors() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), *m.ErrorLogs...)
}

// MockNotifier records notifications
type MockNotifier struct {
	Notes []domain.Notification
	Error error
}

func (m *MockNotifier) Notify(ctx context.Context, n domain.Notification) error {
	m.Notes = append(m.Notes, n)
	return m.Error
}

func (m *MockNotifier) Subjects() []string {
	var subjects []string
	for _, n := range m.Notes {
		subjects = append(subjects, n.Subject)
	}
	return subjects
}

// MockReporter records reported errors
type MockReporter struct {
	mu     sync.Mutex
	Errors []error
}

func (m *MockReporter) Report(err error, req *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Errors = append(m.Errors, err)
}

func (m *MockReporter) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Errors)
}

// MockSubmitter records forward jobs instead of running them
type MockSubmitter struct {
	Jobs  []ForwardJob
	Error error
}

func (m *MockSubmitter) Submit(job ForwardJob) error {
	if m.Error != nil {
		return m.Error
	}
	m.Jobs = append(m.Jobs, job)
	return nil
}

// FakeCampus serves catalogs and records registration and enrollment calls
type FakeCampus struct {
	Courses        map[string][]domain.Course
	CatalogErrors  map[string]error
	Users          map[string][]domain.CampusUser
	FindError      error
	RegisterStatus int
	EnrollStatus   int

	CatalogCalls  map[string]int
	Registrations []domain.Registration
	Enrollments   []domain.Enrollment
}

func NewFakeCampus() *FakeCampus {
	return &FakeCampus{
		Courses:        map[string][]domain.Course{},
		CatalogErrors:  map[string]error{},
		Users:          map[string][]domain.CampusUser{},
		RegisterStatus: http.StatusOK,
		EnrollStatus:   http.StatusOK,
		CatalogCalls:   map[string]int{},
	}
}

func (f *FakeCampus) ListCourses(ctx context.Context, site string) ([]domain.Course, error) {
	f.CatalogCalls[site]++
	if err := f.CatalogErrors[site]; err != nil {
		return nil, err
	}
	return f.Courses[site], nil
}

func (f *FakeCampus) FindUsers(ctx context.Context, site, email string) ([]domain.CampusUser, error) {
	if f.FindError != nil {
		return nil, f.FindError
	}
	return f.Users[site], nil
}

func (f *FakeCampus) Register(ctx context.Context, site string, reg domain.Registration) (int, error) {
	f.Registrations = append(f.Registrations, reg)
	return f.RegisterStatus, nil
}

func (f *FakeCampus) Enroll(ctx context.Context, site string, enrollment domain.Enrollment) (int, error) {
	f.Enrollments = append(f.Enrollments, enrollment)
	return f.EnrollStatus, nil
}

// FakeStore serves products and records admin mutations
type FakeStore struct {
	Products     map[int64]domain.Product
	ShopInfo     domain.Shop
	ShopError    error
	UnpublishErr error
	SKUs         []string
	VariantsErr  error
	CreateErr    map[string]error

	Unpublished []int64
	Created     []domain.NewProduct
}

func NewFakeStore() *FakeStore {
	return &FakeStore{
		Products:  map[int64]domain.Product{},
		ShopInfo:  domain.Shop{Name: "Campus Store", Email: "admin@campus-store.example"},
		CreateErr: map[string]error{},
	}
}

func (f *FakeStore) Shop(ctx context.Context) (domain.Shop, error) {
	if f.ShopError != nil {
		return domain.Shop{}, f.ShopError
	}
	return f.ShopInfo, nil
}

func (f *FakeStore) Product(ctx context.Context, id int64) (domain.Product, error) {
	p, ok := f.Products[id]
	if !ok {
		return domain.Product{}, errors.New("product not found")
	}
	return p, nil
}

func (f *FakeStore) UnpublishProduct(ctx context.Context, id int64) (string, error) {
	if f.UnpublishErr != nil {
		return "", f.UnpublishErr
	}
	f.Unpublished = append(f.Unpublished, id)
	return f.Products[id].Title, nil
}

func (f *FakeStore) VariantSKUs(ctx context.Context) ([]string, error) {
	return f.SKUs, f.VariantsErr
}

func (f *FakeStore) CreateProduct(ctx context.Context, p domain.NewProduct) error {
	if err := f.CreateErr[p.SKU]; err != nil {
		return err
	}
	f.Created = append(f.Created, p)
	return nil
}

// signedRequest builds a webhook request that passes authentication
func signedRequest(topic string, body []byte) domain.WebhookRequest {
	return domain.WebhookRequest{
		Body:       body,
		Topic:      topic,
		ShopDomain: "campus-store.myshopify.com",
		Signature:  domain.ComputeSignature(body, testSecret),
		WebhookID:  "wh-1",
	}
}

func newTestAuthenticator() *WebhookAuthenticator {
	return NewWebhookAuthenticator(domain.NewHMACValidator(testSecret), testStoreURL)
}
