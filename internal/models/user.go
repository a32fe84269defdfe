package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationSettings are the per-user alert toggles.
type NotificationSettings struct {
	EmailNotifications bool `json:"email_notifications" bson:"email_notifications"`
	PriceAlerts        bool `json:"price_alerts"        bson:"price_alerts"`
	NewsUpdates        bool `json:"news_updates"        bson:"news_updates"`
}

// DefaultNotificationSettings returns the toggles applied to new accounts.
func DefaultNotificationSettings() NotificationSettings {
	return NotificationSettings{
		EmailNotifications: true,
		PriceAlerts:        true,
		NewsUpdates:        false,
	}
}

// User is a user account stored in MongoDB. The password hash is never
// serialized to JSON.
type User struct {
	ID                   primitive.ObjectID   `json:"id"                    bson:"_id,omitempty"`
	Email                string               `json:"email"                 bson:"email"`
	Password             string               `json:"-"                     bson:"password"`
	Name                 string               `json:"name"                  bson:"name"`
	IsActive             bool                 `json:"is_active"             bson:"is_active"`
	IsVerified           bool                 `json:"is_verified"           bson:"is_verified"`
	IsAdmin              bool                 `json:"is_admin"              bson:"is_admin"`
	Watchlist            []string             `json:"watchlist"             bson:"watchlist"`
	PreferredSectors     []string             `json:"preferred_sectors"     bson:"preferred_sectors"`
	NotificationSettings NotificationSettings `json:"notification_settings" bson:"notification_settings"`
	CreatedAt            time.Time            `json:"created_at"            bson:"created_at"`
	UpdatedAt            time.Time            `json:"updated_at"            bson:"updated_at"`
	LastLogin            *time.Time           `json:"last_login,omitempty"  bson:"last_login,omitempty"`
}

// RegisterRequest is the JSON body for POST /users/register.
type RegisterRequest struct {
	Email            string   `json:"email"`
	Name             string   `json:"name"`
	Password         string   `json:"password"`
	Watchlist        []string `json:"watchlist"`
	PreferredSectors []string `json:"preferred_sectors"`
}

// LoginRequest is the JSON body for POST /users/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse is returned by a successful login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// UserUpdate is the JSON body for PUT /users/{user_id}. Nil pointers mean
// "leave unchanged".
type UserUpdate struct {
	Email            *string  `json:"email"`
	Name             *string  `json:"name"`
	Password         *string  `json:"password"`
	Watchlist        []string `json:"watchlist"`
	PreferredSectors []string `json:"preferred_sectors"`
	IsActive         *bool    `json:"is_active"`
}

// WatchlistUpdate is the JSON body for PUT /users/{user_id}/watchlist.
type WatchlistUpdate struct {
	Watchlist []string `json:"watchlist"`
}

// PreferencesUpdate is the JSON body for PUT /users/{user_id}/preferences.
// Absent fields are left untouched.
type PreferencesUpdate struct {
	PreferredSectors   []string `json:"preferred_sectors"`
	EmailNotifications *bool    `json:"email_notifications"`
	PriceAlerts        *bool    `json:"price_alerts"`
	NewsUpdates        *bool    `json:"news_updates"`
}
