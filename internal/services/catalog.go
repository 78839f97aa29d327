package services

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/campusbridge/webhooks/internal/domain"
)

// CatalogService reads course listings across every configured campus site
type CatalogService struct {
	lister domain.CatalogLister
	sites  []string
	logger domain.Logger
}

// NewCatalogService creates a catalog reader over the given sites
func NewCatalogService(lister domain.CatalogLister, sites []string, logger domain.Logger) *CatalogService {
	return &CatalogService{lister: lister, sites: sites, logger: logger}
}

// Sites returns the configured campus sites
func (s *CatalogService) Sites() []string {
	return s.sites
}

// CourseIDs returns the union of course ids over all sites.
// A partial set is useless for validation, so any failing site fails the whole call.
func (s *CatalogService) CourseIDs(ctx context.Context) (map[string]bool, error) {
	ids := make(map[string]bool)
	for _, site := range s.sites {
		courses, err := s.lister.ListCourses(ctx, site)
		if err != nil {
			return nil, fmt.Errorf("list courses of %s: %w", site, err)
		}
		for _, course := range courses {
			ids[course.CourseID] = true
		}
		s.logger.Debug("catalog loaded", "site", site, "courses", len(courses))
	}
	return ids, nil
}

// SiteCourses collects every reachable site's courses, tagging each with its site.
// Failing sites are skipped and returned together in err.
func (s *CatalogService) SiteCourses(ctx context.Context) ([]domain.SiteCourse, error) {
	var (
		all  []domain.SiteCourse
		errs *multierror.Error
	)
	for _, site := range s.sites {
		courses, err := s.lister.ListCourses(ctx, site)
		if err != nil {
			s.logger.Error("catalog unavailable for "+site, err)
			errs = multierror.Append(errs, fmt.Errorf("list courses of %s: %w", site, err))
			continue
		}
		for _, course := range courses {
			all = append(all, domain.SiteCourse{Site: site, Course: course})
		}
	}
	return all, errs.ErrorOrNil()
}

// SiteCourseIDs returns the course ids of one site
func (s *CatalogService) SiteCourseIDs(ctx context.Context, site string) (map[string]bool, error) {
	courses, err := s.lister.ListCourses(ctx, site)
	if err != nil {
		return nil, fmt.Errorf("list courses of %s: %w", site, err)
	}
	ids := make(map[string]bool, len(courses))
	for _, course := range courses {
		ids[course.CourseID] = true
	}
	return ids, nil
}
