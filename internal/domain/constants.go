package domain

const (
	RoleUser  = "user"
	RoleOwner = "owner"
	RoleAdmin = "admin"
)

const (
	ListingStatusPending  = "pending"
	ListingStatusActive   = "active"
	ListingStatusRejected = "rejected"
)

const (
	FrequencyDaily  = "daily"
	FrequencyWeekly = "weekly"
	FrequencyNever  = "never"
)

// NotificationFrequencies lists the values accepted on saved-search writes.
var NotificationFrequencies = []string{FrequencyDaily, FrequencyWeekly, FrequencyNever}

const (
	ProviderGoogle   = "google"
	ProviderFacebook = "facebook"
)

const (
	SavedSearchPerPage = 10
	ListingPerPage     = 15
)
