package services

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusbridge/webhooks/internal/domain"
)

func newProductCreator(campus *FakeCampus, store *FakeStore) (*ProductCreatorService, *MockNotifier, *MockReporter) {
	notifier := &MockNotifier{}
	reporter := &MockReporter{}
	logger := NewMockLogger()
	catalog := NewCatalogService(campus, []string{testSiteA, testSiteB}, logger)
	service := NewProductCreatorService(catalog, store, notifier, reporter, logger)
	service.now = func() time.Time { return time.Date(2024, time.March, 5, 10, 0, 0, 0, time.UTC) }
	return service, notifier, reporter
}

func TestProductCreatorCreatesMissingProducts(t *testing.T) {
	// Arrange
	campus := NewFakeCampus()
	course := domain.Course{CourseID: "course-v1:org+101+2020", Name: "Intro, part 1", ShortDescription: "Basics"}
	course.Media.Image.Large = "https://cdn.example/large.png"
	campus.Courses[testSiteA] = []domain.Course{course, {CourseID: "course-v1:org+old+2019", Name: "Old"}}
	store := NewFakeStore()
	store.SKUs = []string{"course-v1:org+old+2019"}
	service, notifier, _ := newProductCreator(campus, store)

	// Act
	result := service.Run(context.Background())

	// Assert
	assert.Equal(t, http.StatusCreated, result.Status)
	assert.Equal(t, "1 Product(s) got created", result.Message)

	require.Len(t, store.Created, 1)
	assert.Equal(t, domain.NewProduct{
		Title:    "Intro, part 1",
		BodyHTML: "Basics",
		Tags:     testSiteA,
		SKU:      "course-v1:org+101+2020",
		ImageURL: "https://cdn.example/large.png",
	}, store.Created[0])

	require.Len(t, notifier.Notes, 1)
	note := notifier.Notes[0]
	assert.Equal(t, ProductReportSubject, note.Subject)
	assert.Equal(t, "admin@campus-store.example", note.AdminEmail)
	require.Len(t, note.Attachments, 1)
	assert.Equal(t, "text/csv", note.Attachments[0].Type)
	assert.Equal(t,
		"Product Name,Product SKU,Tahoe URL,Created AT\n"+
			"\"Intro, part 1\",course-v1:org+101+2020,"+testSiteA+",03-05-2024\n",
		string(note.Attachments[0].Content))
}

func TestProductCreatorNothingToCreate(t *testing.T) {
	campus := NewFakeCampus()
	campus.Courses[testSiteA] = []domain.Course{{CourseID: "a"}}
	store := NewFakeStore()
	store.SKUs = []string{"a"}
	service, notifier, _ := newProductCreator(campus, store)

	result := service.Run(context.Background())

	assert.Equal(t, "0 Product(s) got created", result.Message)
	assert.Empty(t, notifier.Notes)
}

func TestProductCreatorSkipsFailingSitesAndProducts(t *testing.T) {
	// Arrange
	campus := NewFakeCampus()
	campus.CatalogErrors[testSiteA] = errors.New("catalog down")
	campus.Courses[testSiteB] = []domain.Course{{CourseID: "b1"}, {CourseID: "b2"}, {CourseID: "b1"}}
	store := NewFakeStore()
	store.CreateErr["b2"] = domain.ErrStoreUnavailable
	service, _, reporter := newProductCreator(campus, store)

	// Act
	result := service.Run(context.Background())

	// Assert
	assert.Equal(t, "1 Product(s) got created", result.Message)
	require.Len(t, store.Created, 1)
	assert.Equal(t, testSiteB, store.Created[0].Tags)
	assert.Equal(t, 1, reporter.Count())
}

func TestProductCreatorStoreInaccessible(t *testing.T) {
	store := NewFakeStore()
	store.VariantsErr = domain.ErrStoreUnavailable
	service, _, _ := newProductCreator(NewFakeCampus(), store)

	result := service.Run(context.Background())

	assert.Equal(t, http.StatusMultiStatus, result.Status)
	assert.Equal(t, "Store is inaccessible", result.Message)
	assert.Empty(t, store.Created)
}
