// Package function contains the Cloud Function entry points for GCP Cloud Functions Gen2
package function

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"

	"github.com/campusbridge/webhooks/internal/clients"
	"github.com/campusbridge/webhooks/internal/config"
	"github.com/campusbridge/webhooks/internal/domain"
	"github.com/campusbridge/webhooks/internal/handlers"
	"github.com/campusbridge/webhooks/internal/services"
)

// entryPoint builds its role's handler on first use, so one deployed role
// never fails on settings only another role needs
type entryPoint struct {
	role    config.Role
	once    sync.Once
	handler http.Handler
}

func (e *entryPoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	e.once.Do(func() {
		e.handler = initializeHandler(e.role)
	})
	if e.handler == nil {
		http.Error(w, "Handler not initialized", http.StatusInternalServerError)
		return
	}
	e.handler.ServeHTTP(w, r)
}

var (
	callValidator    = &entryPoint{role: config.RoleCallValidator}
	productValidator = &entryPoint{role: config.RoleProductValidator}
	purchaseListener = &entryPoint{role: config.RolePurchaseListener}
	productCreator   = &entryPoint{role: config.RoleProductCreator}
)

func init() {
	functions.HTTP(string(config.RoleCallValidator), CallValidator)
	functions.HTTP(string(config.RoleProductValidator), ProductValidator)
	functions.HTTP(string(config.RolePurchaseListener), PurchaseListener)
	functions.HTTP(string(config.RoleProductCreator), ProductCreator)
}

// CallValidator receives every store webhook, vets it and redirects it to the matching role
func CallValidator(w http.ResponseWriter, r *http.Request) {
	callValidator.ServeHTTP(w, r)
}

// ProductValidator unpublishes store products whose SKU is not a campus course
func ProductValidator(w http.ResponseWriter, r *http.Request) {
	productValidator.ServeHTTP(w, r)
}

// PurchaseListener registers and enrolls the buyer of a paid order
func PurchaseListener(w http.ResponseWriter, r *http.Request) {
	purchaseListener.ServeHTTP(w, r)
}

// ProductCreator creates store products for campus courses the store does not sell yet
func ProductCreator(w http.ResponseWriter, r *http.Request) {
	productCreator.ServeHTTP(w, r)
}

// runtime holds what every role shares within one process
type runtime struct {
	cfg      *config.Config
	logger   domain.Logger
	reporter domain.ErrorReporter
	notifier domain.Notifier
}

var (
	runtimeOnce sync.Once
	shared      *runtime
	sharedErr   error
)

func loadRuntime() (*runtime, error) {
	runtimeOnce.Do(func() {
		cfg, err := config.LoadConfig()
		if err != nil {
			sharedErr = err
			return
		}

		logger := services.NewZeroLogger(os.Stdout, cfg.LogLevel)
		rt := &runtime{cfg: cfg, logger: logger}

		rt.reporter = services.NewLogReporter(logger)
		rt.notifier = services.NewLogNotifier(logger)
		if cfg.IsProduction() {
			reporter, err := services.NewCloudErrorReporter(context.Background(), cfg.ProjectID, cfg.ServiceName, logger)
			if err != nil {
				logger.Error("error reporting disabled", err)
			} else {
				rt.reporter = reporter
			}
			rt.notifier = services.NewSendGridNotifier(services.SendGridConfig{
				APIKey:        cfg.SendGridAPIKey,
				FromEmail:     cfg.NotifyFromEmail,
				FromName:      cfg.NotifyFromName,
				OperatorEmail: cfg.OperatorEmail,
				OperatorName:  cfg.OperatorName,
			})
		}
		shared = rt
	})
	return shared, sharedErr
}

func initializeHandler(role config.Role) http.Handler {
	rt, err := loadRuntime()
	if err != nil {
		services.NewZeroLogger(os.Stderr, "error").Error("failed to load config", err)
		return nil
	}
	logger := rt.logger.With("role", string(role))

	if err := rt.cfg.Validate(role); err != nil {
		logger.Error("invalid configuration", err)
		return nil
	}

	handler, err := buildHandler(role, rt, logger)
	if err != nil {
		logger.Error("failed to initialize handler", err)
		return nil
	}

	logger.Info("handler initialized", "environment", rt.cfg.Environment)
	return handler
}

func buildHandler(role config.Role, rt *runtime, logger domain.Logger) (http.Handler, error) {
	cfg := rt.cfg
	auth := services.NewWebhookAuthenticator(domain.NewHMACValidator(cfg.ShopifySecret), cfg.StoreURL)

	if role == config.RoleCallValidator {
		relay := clients.NewForwardRelay(cfg.ForwardTimeout)
		pool := services.NewForwardPool(relay, cfg.ForwardQueueSize, cfg.ForwardTimeout, logger, rt.reporter)
		routes := domain.NewRoutingTable(cfg.PurchaseListenerURL, cfg.ProductValidatorURL)
		service := services.NewCallValidatorService(auth, routes, pool, logger)
		return handlers.NewWebhookHandler(service, rt.reporter, logger, handlers.ModeAcknowledge, cfg.MaxBodyBytes), nil
	}

	campus := clients.NewCampusClient(clients.CampusOptions{
		CoursesAPI:      cfg.CoursesAPI,
		UsersAPI:        cfg.UsersAPI,
		RegistrationAPI: cfg.RegistrationAPI,
		EnrollmentAPI:   cfg.EnrollmentAPI,
		Tokens:          cfg.SiteTokens,
		CatalogTimeout:  cfg.CatalogTimeout,
		APITimeout:      cfg.APITimeout,
		Limiter:         clients.NewRateLimiter(cfg.CampusRateLimit, cfg.CampusRateBurst),
	})
	store, err := clients.NewStoreClient(cfg.StoreAdminAPI, cfg.StoreAccessToken, cfg.APITimeout)
	if err != nil {
		return nil, err
	}
	catalog := services.NewCatalogService(campus, cfg.Sites, logger)

	switch role {
	case config.RoleProductValidator:
		service := services.NewProductValidatorService(auth, catalog, store, rt.notifier, rt.reporter, logger)
		return handlers.NewWebhookHandler(service, rt.reporter, logger, handlers.ModeStageStatus, cfg.MaxBodyBytes), nil
	case config.RolePurchaseListener:
		service := services.NewPurchaseListenerService(auth, catalog, campus, store, rt.notifier, rt.reporter, logger)
		return handlers.NewWebhookHandler(service, rt.reporter, logger, handlers.ModeStageStatus, cfg.MaxBodyBytes), nil
	case config.RoleProductCreator:
		service := services.NewProductCreatorService(catalog, store, rt.notifier, rt.reporter, logger)
		return handlers.NewTaskHandler(service, rt.reporter, logger), nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownRole, role)
	}
}
