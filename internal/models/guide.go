package models

import "time"

type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionInactive  SubscriptionStatus = "inactive"
	SubscriptionPastDue   SubscriptionStatus = "past_due"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
)

// ValidSubscriptionStatus reports whether s is one of the known statuses.
func ValidSubscriptionStatus(s SubscriptionStatus) bool {
	switch s {
	case SubscriptionActive, SubscriptionInactive, SubscriptionPastDue, SubscriptionCancelled:
		return true
	}
	return false
}

// Guide represents a partner account serving a white-label storefront.
// Modules holds the catalog module keys the partner selected, in display order.
type Guide struct {
	ID                 int                `db:"id" json:"id"`
	Slug               string             `db:"slug" json:"slug"`
	Name               string             `db:"name" json:"name"`
	BrandName          *string            `db:"brand_name" json:"brandName,omitempty"`
	LogoURL            *string            `db:"logo_url" json:"logoUrl,omitempty"`
	SubscriptionStatus SubscriptionStatus `db:"subscription_status" json:"subscriptionStatus"`
	Modules            []string           `db:"modules" json:"modules"`
	CreatedAt          time.Time          `db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time          `db:"updated_at" json:"updatedAt"`
}

// CanServeWhiteLabel reports whether the guide is eligible to serve branded
// traffic. Only an active subscription qualifies; every other state falls back
// to the official site.
func (g *Guide) CanServeWhiteLabel() bool {
	return g.SubscriptionStatus == SubscriptionActive
}

// moduleDetailPaths is the single source of truth for which catalog modules
// have a dedicated detail page and which URL segment serves it. Module keys
// not listed here have no landing target.
var moduleDetailPaths = map[string]string{
	"medical_packages": "medical-packages",
	"health_screening": "health-screening",
	"dental":           "dental",
	"golf":             "golf",
	"onsen":            "onsen",
}

// ModuleDetailPath returns the URL path segment for a module key, and whether
// the module has a dedicated detail page.
func ModuleDetailPath(key string) (string, bool) {
	p, ok := moduleDetailPaths[key]
	return p, ok
}

// ValidModuleKey reports whether key is a known catalog module.
func ValidModuleKey(key string) bool {
	_, ok := moduleDetailPaths[key]
	return ok
}

// FirstDetailPath returns the path segment of the first module in the given
// order that has a dedicated detail page.
func FirstDetailPath(modules []string) (string, bool) {
	for _, m := range modules {
		if p, ok := moduleDetailPaths[m]; ok {
			return p, true
		}
	}
	return "", false
}
