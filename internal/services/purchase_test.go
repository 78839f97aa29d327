package services

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusbridge/webhooks/internal/domain"
)

func newPurchaseListener(campus *FakeCampus, store *FakeStore) (*PurchaseListenerService, *MockNotifier) {
	notifier := &MockNotifier{}
	logger := NewMockLogger()
	catalog := NewCatalogService(campus, []string{testSiteA, testSiteB}, logger)
	service := NewPurchaseListenerService(newTestAuthenticator(), catalog, campus, store, notifier, &MockReporter{}, logger)
	service.suffix = func() int { return 1234 }
	return service, notifier
}

func storeWithTaggedProduct() *FakeStore {
	store := NewFakeStore()
	store.Products[7] = domain.Product{ID: 7, Title: "Intro", Tags: "featured, " + testSiteA + "/"}
	return store
}

func TestPurchaseListenerEnrollsBuyer(t *testing.T) {
	// Arrange
	campus := campusWithCourses()
	service, notifier := newPurchaseListener(campus, storeWithTaggedProduct())

	// Act
	result := service.Process(context.Background(), signedRequest(domain.TopicOrdersPaid, []byte(paidOrder)))

	// Assert
	assert.Equal(t, http.StatusOK, result.Status)
	assert.Equal(t, "User successfully enrolled in the course", result.Message)

	require.Len(t, campus.Registrations, 1)
	assert.Equal(t, domain.Registration{Name: "Jane Doe", Username: "janeshop1234", Email: "jane+shop@example.com"}, campus.Registrations[0])

	require.Len(t, campus.Enrollments, 1)
	assert.Equal(t, domain.Enrollment{CourseID: "course-v1:org+101+2020", Email: "jane+shop@example.com"}, campus.Enrollments[0])

	assert.Equal(t, []string{RegistrationSubject, EnrollmentSubject}, notifier.Subjects())
}

func TestPurchaseListenerIgnoresUnpaidOrder(t *testing.T) {
	campus := campusWithCourses()
	service, notifier := newPurchaseListener(campus, storeWithTaggedProduct())
	body := []byte(`{"email": "jane@example.com", "financial_status": "pending", "billing_address": {"name": "Jane"}, "line_items": [{"sku": "x"}]}`)

	result := service.Process(context.Background(), signedRequest(domain.TopicOrdersPaid, body))

	assert.Equal(t, domain.OutcomeIgnored, result.Outcome)
	assert.Equal(t, "Can't handle unpaid calls", result.Message)
	assert.Empty(t, campus.CatalogCalls)
	assert.Empty(t, campus.Registrations)
	assert.Empty(t, campus.Enrollments)
	assert.Empty(t, notifier.Notes)
}

func TestPurchaseListenerMissingFields(t *testing.T) {
	campus := campusWithCourses()
	service, _ := newPurchaseListener(campus, storeWithTaggedProduct())
	body := []byte(`{"financial_status": "paid", "line_items": [{"sku": "x"}]}`)

	result := service.Process(context.Background(), signedRequest(domain.TopicOrdersPaid, body))

	assert.Equal(t, http.StatusNotFound, result.Status)
	assert.Equal(t, MissingPurchaseFields, result.Message)
	assert.Empty(t, campus.Registrations)
}

func TestRegisterSkipsExistingUser(t *testing.T) {
	// Arrange
	campus := campusWithCourses()
	campus.Users[testSiteA] = []domain.CampusUser{{Email: "JANE@example.com"}}
	service, _ := newPurchaseListener(campus, NewFakeStore())
	info := domain.PurchaseInfo{
		SKUs:  []string{"course-v1:org+101+2020"},
		Sites: map[string]string{"course-v1:org+101+2020": testSiteA},
		Email: "jane@example.com",
	}

	// Act
	result := service.Register(context.Background(), info)

	// Assert
	assert.Equal(t, http.StatusConflict, result.Status)
	assert.Equal(t, "User jane@example.com already exist", result.Message)
	assert.Empty(t, campus.Registrations)
}

func TestRegisterStatuses(t *testing.T) {
	info := domain.PurchaseInfo{
		SKUs:     []string{"a", "b"},
		Sites:    map[string]string{"a": testSiteA, "b": testSiteB},
		Email:    "jane@example.com",
		Username: "jane1234",
	}

	tests := []struct {
		name    string
		status  int
		want    int
		message string
		failed  bool
	}{
		{"created on every site", http.StatusCreated, http.StatusCreated, "User successfully registered in " + testSiteA, false},
		{"conflict on every site", http.StatusConflict, http.StatusConflict, "User jane@example.com already exist", false},
		{"campus error", http.StatusInternalServerError, http.StatusMultiStatus, "End of registering user", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			campus := NewFakeCampus()
			campus.RegisterStatus = tt.status
			service, _ := newPurchaseListener(campus, NewFakeStore())

			result := service.Register(context.Background(), info)

			assert.Equal(t, tt.want, result.Status)
			assert.Equal(t, tt.message, result.Message)
			assert.Equal(t, tt.failed, result.Failed())
			assert.Len(t, campus.Registrations, 2)
		})
	}
}

func TestRegisterContinuesWhenLookupFails(t *testing.T) {
	campus := NewFakeCampus()
	campus.FindError = errors.New("users api down")
	service, _ := newPurchaseListener(campus, NewFakeStore())
	info := domain.PurchaseInfo{SKUs: []string{"a"}, Sites: map[string]string{"a": testSiteA}, Email: "j@example.com"}

	result := service.Register(context.Background(), info)

	assert.Equal(t, http.StatusCreated, result.Status)
	assert.Len(t, campus.Registrations, 1)
}

func TestRegisterWithoutSites(t *testing.T) {
	service, _ := newPurchaseListener(NewFakeCampus(), NewFakeStore())

	result := service.Register(context.Background(), domain.PurchaseInfo{SKUs: []string{"a"}, Sites: map[string]string{}})

	assert.Equal(t, http.StatusNotFound, result.Status)
	assert.ErrorIs(t, result.Err, domain.ErrUnknownSite)
}

func TestEnrollUnknownCourseNotifiesWithoutPosting(t *testing.T) {
	// Arrange
	campus := campusWithCourses()
	service, notifier := newPurchaseListener(campus, NewFakeStore())
	info := domain.PurchaseInfo{
		SKUs:  []string{"course-v1:gone+1+1"},
		Sites: map[string]string{"course-v1:gone+1+1": testSiteA},
		Email: "jane@example.com",
	}

	// Act
	result := service.Enroll(context.Background(), info)

	// Assert
	assert.Equal(t, http.StatusNotFound, result.Status)
	assert.Equal(t, "Course doesn't exist", result.Message)
	assert.Empty(t, campus.Enrollments)
	assert.Equal(t, []string{EnrollmentSubject}, notifier.Subjects())
}

func TestEnrollFetchesEachCatalogOnce(t *testing.T) {
	campus := NewFakeCampus()
	campus.Courses[testSiteA] = []domain.Course{{CourseID: "a"}, {CourseID: "b"}}
	service, _ := newPurchaseListener(campus, NewFakeStore())
	info := domain.PurchaseInfo{
		SKUs:  []string{"a", "b"},
		Sites: map[string]string{"a": testSiteA, "b": testSiteA},
		Email: "jane@example.com",
	}

	result := service.Enroll(context.Background(), info)

	assert.Equal(t, http.StatusOK, result.Status)
	assert.Equal(t, 1, campus.CatalogCalls[testSiteA])
	assert.Len(t, campus.Enrollments, 2)
}

func TestEnrollMixedResults(t *testing.T) {
	// Arrange
	campus := campusWithCourses()
	service, _ := newPurchaseListener(campus, NewFakeStore())
	info := domain.PurchaseInfo{
		SKUs:  []string{"course-v1:org+101+2020", "orphan"},
		Sites: map[string]string{"course-v1:org+101+2020": testSiteA},
		Email: "jane@example.com",
	}

	// Act
	result := service.Enroll(context.Background(), info)

	// Assert
	assert.Equal(t, http.StatusMultiStatus, result.Status)
	assert.Equal(t, "End of enrollment", result.Message)
	assert.True(t, result.Failed())
	assert.Len(t, campus.Enrollments, 1)
}

func TestEnrollAlreadyEnrolled(t *testing.T) {
	campus := campusWithCourses()
	campus.EnrollStatus = http.StatusConflict
	service, _ := newPurchaseListener(campus, NewFakeStore())
	info := domain.PurchaseInfo{
		SKUs:  []string{"course-v1:org+101+2020"},
		Sites: map[string]string{"course-v1:org+101+2020": testSiteA},
		Email: "jane@example.com",
	}

	result := service.Enroll(context.Background(), info)

	assert.Equal(t, http.StatusConflict, result.Status)
	assert.Equal(t, "User already enrolled in the course", result.Message)
}

func TestBuildPurchaseInfoResolvesSitesFromTags(t *testing.T) {
	// Arrange
	store := storeWithTaggedProduct()
	store.Products[8] = domain.Product{ID: 8, Tags: "https://unknown.example"}
	service, _ := newPurchaseListener(NewFakeCampus(), store)
	order := domain.Order{
		Email:          " jane@example.com ",
		Confirmed:      true,
		BillingAddress: &domain.Address{Name: "Jane Doe"},
		LineItems: []domain.LineItem{
			{ProductID: 7, SKU: "a"},
			{ProductID: 8, SKU: "b"},
			{ProductID: 7, SKU: "a"},
		},
	}

	// Act
	info := service.BuildPurchaseInfo(context.Background(), order)

	// Assert
	assert.Equal(t, []string{"a", "b"}, info.SKUs)
	assert.Equal(t, map[string]string{"a": testSiteA}, info.Sites)
	assert.Equal(t, "jane@example.com", info.Email)
	assert.Equal(t, "jane1234", info.Username)
	assert.True(t, info.PaymentConfirmed)
	assert.Equal(t, "Campus Store", info.StoreAdmin.Name)
}

func TestGenerateUsername(t *testing.T) {
	assert.Equal(t, "janedoe100", GenerateUsername("jane+doe@example.com", 100))
	assert.Equal(t, "bob9999", GenerateUsername("bob@example.com", 9999))
	assert.Equal(t, "nodomain42", GenerateUsername("nodomain", 42))
}

func TestUsernameSuffixRange(t *testing.T) {
	service := NewPurchaseListenerService(nil, nil, nil, nil, nil, nil, NewMockLogger())
	for i := 0; i < 1000; i++ {
		n := service.suffix()
		require.GreaterOrEqual(t, n, 100)
		require.LessOrEqual(t, n, 9999)
	}
}
