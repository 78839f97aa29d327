package services

import (
	"fmt"
	"strings"

	"github.com/campusbridge/webhooks/internal/domain"
)

// MissingPurchaseFields is the acknowledgment for an order lacking buyer data
const MissingPurchaseFields = "Email or fullname or sku missing"

// CheckOrder ensures a paid order carries everything registration and enrollment need
func CheckOrder(order domain.Order) error {
	var missing []string
	if strings.TrimSpace(order.Email) == "" {
		missing = append(missing, "email")
	}
	if order.FullName() == "" {
		missing = append(missing, "billing_address.name")
	}
	if len(order.SKUs()) == 0 {
		missing = append(missing, "line_items.sku")
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrMissingField, strings.Join(missing, ", "))
	}
	return nil
}
