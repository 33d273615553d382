package model

import "time"

// Organization is a tenant of the platform. Every other resource is scoped
// to exactly one organization.
type Organization struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Domain      string    `json:"domain"`
	WebhookBase string    `json:"webhookBase,omitempty"`
	AdminEmail  string    `json:"adminEmail"`
	Blocked     bool      `json:"blocked"`
	BlockReason string    `json:"blockReason,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
