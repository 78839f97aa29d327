package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Role identifies which Cloud Function a process instance serves
type Role string

const (
	RoleCallValidator    Role = "CallValidator"
	RoleProductValidator Role = "ProductValidator"
	RolePurchaseListener Role = "PurchaseListener"
	RoleProductCreator   Role = "ProductCreator"
)

// EnvironmentProd enables outbound email and error reporting
const EnvironmentProd = "prod"

var (
	// ErrInvalidConfig is returned when a role is missing required settings
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrUnknownRole is returned for an entry point name that maps to no role
	ErrUnknownRole = errors.New("unknown role")
)

// Config holds application configuration.
// It is built once per process and must not be mutated afterwards.
type Config struct {
	Environment string

	ShopifySecret       string `validate:"required"`
	StoreURL            string `validate:"required,url"`
	StoreAdminAPI       string `validate:"required,url"`
	StoreAccessToken    string
	PurchaseListenerURL string `validate:"required,url"`
	ProductValidatorURL string `validate:"required,url"`

	Sites           []string `validate:"required,min=1,dive,url"`
	CoursesAPI      string   `validate:"required"`
	UsersAPI        string   `validate:"required"`
	RegistrationAPI string   `validate:"required"`
	EnrollmentAPI   string   `validate:"required"`
	SiteTokens      SiteTokens

	SendGridAPIKey  string `validate:"required"`
	NotifyFromEmail string `validate:"required,email"`
	NotifyFromName  string
	OperatorEmail   string `validate:"required,email"`
	OperatorName    string

	ProjectID   string `validate:"required"`
	ServiceName string

	CatalogTimeout   time.Duration
	APITimeout       time.Duration
	ForwardTimeout   time.Duration
	ForwardQueueSize int
	CampusRateLimit  float64
	CampusRateBurst  int
	MaxBodyBytes     int64

	LogLevel string
	Port     string
}

// roleFields lists the fields each role cannot run without
var roleFields = map[Role][]string{
	RoleCallValidator: {
		"ShopifySecret", "StoreURL", "PurchaseListenerURL", "ProductValidatorURL",
	},
	RoleProductValidator: {
		"ShopifySecret", "StoreURL", "StoreAdminAPI", "Sites", "CoursesAPI",
	},
	RolePurchaseListener: {
		"ShopifySecret", "StoreURL", "StoreAdminAPI", "Sites", "CoursesAPI",
		"UsersAPI", "RegistrationAPI", "EnrollmentAPI",
	},
	RoleProductCreator: {
		"StoreAdminAPI", "Sites", "CoursesAPI",
	},
}

var prodFields = []string{"SendGridAPIKey", "NotifyFromEmail", "OperatorEmail", "ProjectID"}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	tokens, err := ParseSiteTokens(v.GetString("tahoe_sites_tokens"))
	if err != nil {
		return nil, fmt.Errorf("%w: TAHOE_SITES_TOKENS: %v", ErrInvalidConfig, err)
	}

	cfg := &Config{
		Environment: v.GetString("env"),

		ShopifySecret:       v.GetString("shopify_secret"),
		StoreURL:            v.GetString("shopify_store_url"),
		StoreAdminAPI:       strings.TrimRight(v.GetString("shopify_store_admin_api"), "/"),
		StoreAccessToken:    v.GetString("shopify_access_token"),
		PurchaseListenerURL: v.GetString("purchase_listener_url"),
		ProductValidatorURL: v.GetString("product_validator_url"),

		Sites:           ParseSites(v.GetString("tahoe_sites")),
		CoursesAPI:      v.GetString("tahoe_courses_api"),
		UsersAPI:        v.GetString("tahoe_users_api"),
		RegistrationAPI: v.GetString("tahoe_registration_api"),
		EnrollmentAPI:   v.GetString("tahoe_enrollment_api"),
		SiteTokens:      tokens,

		SendGridAPIKey:  v.GetString("sendgrid_api_key"),
		NotifyFromEmail: v.GetString("notify_from_email"),
		NotifyFromName:  v.GetString("notify_from_name"),
		OperatorEmail:   v.GetString("operator_email"),
		OperatorName:    v.GetString("operator_name"),

		ProjectID:   v.GetString("google_cloud_project"),
		ServiceName: v.GetString("k_service"),

		CatalogTimeout:   v.GetDuration("catalog_timeout"),
		APITimeout:       v.GetDuration("api_timeout"),
		ForwardTimeout:   v.GetDuration("forward_timeout"),
		ForwardQueueSize: v.GetInt("forward_queue_size"),
		CampusRateLimit:  v.GetFloat64("campus_rate_limit"),
		CampusRateBurst:  v.GetInt("campus_rate_burst"),
		MaxBodyBytes:     v.GetInt64("max_body_bytes"),

		LogLevel: v.GetString("log_level"),
		Port:     v.GetString("port"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")
	v.SetDefault("notify_from_email", "technical@appsembler.com")
	v.SetDefault("notify_from_name", "Technical Support")
	v.SetDefault("k_service", "campus-webhooks")
	v.SetDefault("catalog_timeout", 120*time.Second)
	v.SetDefault("api_timeout", 30*time.Second)
	v.SetDefault("forward_timeout", 60*time.Second)
	v.SetDefault("forward_queue_size", 16)
	v.SetDefault("campus_rate_limit", 10.0)
	v.SetDefault("campus_rate_burst", 5)
	v.SetDefault("max_body_bytes", int64(1<<20))
	v.SetDefault("log_level", "info")
	v.SetDefault("port", "8080")
}

// IsProduction reports whether outbound email and error reporting are enabled
func (c *Config) IsProduction() bool {
	return c.Environment == EnvironmentProd
}

// Validate checks that every setting the role depends on is present and well formed
func (c *Config) Validate(role Role) error {
	fields, ok := roleFields[role]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}
	if c.IsProduction() {
		fields = append(append([]string{}, fields...), prodFields...)
	}

	if err := validator.New().StructPartial(c, fields...); err != nil {
		return fmt.Errorf("%w for %s: %v", ErrInvalidConfig, role, err)
	}

	if role == RolePurchaseListener {
		for _, site := range c.Sites {
			if _, ok := c.SiteTokens.Lookup(site); !ok {
				return fmt.Errorf("%w for %s: no token for site %s", ErrInvalidConfig, role, site)
			}
		}
	}

	if c.ForwardQueueSize < 1 {
		return fmt.Errorf("%w: FORWARD_QUEUE_SIZE must be positive", ErrInvalidConfig)
	}

	return nil
}

// RoleFromTarget maps a Cloud Functions entry point name to its role
func RoleFromTarget(target string) (Role, error) {
	role := Role(target)
	if _, ok := roleFields[role]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, target)
	}
	return role, nil
}

// ParseSites splits the comma-delimited site list, normalising each URL
func ParseSites(raw string) []string {
	var sites []string
	for _, part := range strings.Split(raw, ",") {
		site := NormalizeSite(part)
		if site == "" {
			continue
		}
		sites = append(sites, site)
	}
	return sites
}

// NormalizeSite trims whitespace and trailing slashes from a site URL
func NormalizeSite(site string) string {
	return strings.TrimRight(strings.TrimSpace(site), "/")
}
