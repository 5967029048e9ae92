package model

import (
	"slices"
	"time"
)

// Elevated roles that may mutate contests they did not create.
const (
	RoleSuperAdmin   = "SUPER_ADMIN"
	RoleContestAdmin = "CONTEST_ADMIN"
)

// Actor is the authenticated caller.
type Actor struct {
	ID    string
	Roles []string
}

// HasRole reports whether the actor holds role.
func (a Actor) HasRole(role string) bool {
	return slices.Contains(a.Roles, role)
}

// IsAdmin reports whether the actor holds an elevated contest role.
func (a Actor) IsAdmin() bool {
	return a.HasRole(RoleSuperAdmin) || a.HasRole(RoleContestAdmin)
}

// User is an account with an optional profile.
type User struct {
	ID        string    `json:"id"`
	Email     *string   `json:"email"`
	Username  *string   `json:"username"`
	Name      *string   `json:"name"`
	Image     *string   `json:"image"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Profile   *Profile  `json:"profile"`
}

// Summary returns the creator projection of u.
func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Username: clonePtr(u.Username), Name: clonePtr(u.Name), Image: clonePtr(u.Image)}
}

// NotificationPreferences are per-channel opt-ins.
type NotificationPreferences struct {
	Email bool `json:"email"`
	Push  bool `json:"push"`
	SMS   bool `json:"sms"`
}

// DefaultNotifications is used when no stored preferences exist.
func DefaultNotifications() NotificationPreferences {
	return NotificationPreferences{Email: true, Push: true, SMS: false}
}

// DefaultLanguage is assigned to new profiles.
const DefaultLanguage = "en"

// Profile holds optional personal settings for a user.
type Profile struct {
	UserID        string                  `json:"userId"`
	FirstName     *string                 `json:"firstName"`
	LastName      *string                 `json:"lastName"`
	DateOfBirth   *time.Time              `json:"dateOfBirth"`
	Phone         *string                 `json:"phone"`
	Country       *string                 `json:"country"`
	Timezone      *string                 `json:"timezone"`
	Language      string                  `json:"language"`
	Notifications NotificationPreferences `json:"notifications"`
	UpdatedAt     time.Time               `json:"updatedAt"`
}

// NotificationPatch carries the channels present in a payload.
type NotificationPatch struct {
	Email *bool
	Push  *bool
	SMS   *bool
}

// IsEmpty reports whether no channel is set.
func (n NotificationPatch) IsEmpty() bool {
	return n.Email == nil && n.Push == nil && n.SMS == nil
}

// Merge overlays the set channels onto base.
func (n NotificationPatch) Merge(base NotificationPreferences) NotificationPreferences {
	setIf(&base.Email, n.Email)
	setIf(&base.Push, n.Push)
	setIf(&base.SMS, n.SMS)
	return base
}

// Overlay returns n with the channels set in o taking precedence.
func (n NotificationPatch) Overlay(o NotificationPatch) NotificationPatch {
	if o.Email != nil {
		n.Email = o.Email
	}
	if o.Push != nil {
		n.Push = o.Push
	}
	if o.SMS != nil {
		n.SMS = o.SMS
	}
	return n
}

// ProfileUpdate is a validated PATCH /api/me payload.
type ProfileUpdate struct {
	Name     *string
	Username *string
	Image    *string

	FirstName   *string
	LastName    *string
	DateOfBirth *time.Time
	Phone       *string
	Country     *string
	Timezone    *string
	Language    *string

	Notifications NotificationPatch
}

func (u ProfileUpdate) touchesUser() bool {
	return u.Name != nil || u.Username != nil || u.Image != nil
}

func (u ProfileUpdate) touchesProfile() bool {
	return u.FirstName != nil || u.LastName != nil || u.DateOfBirth != nil || u.Phone != nil ||
		u.Country != nil || u.Timezone != nil || u.Language != nil || !u.Notifications.IsEmpty()
}

// Apply merges the update onto user and its stored profile. The returned
// user's Profile is the upserted record, or the unchanged stored profile when
// no profile field was sent. changed is false when nothing needs writing.
func (u ProfileUpdate) Apply(user User, now time.Time) (out User, changed bool) {
	out = user
	if u.touchesUser() {
		if u.Name != nil {
			out.Name = clonePtr(u.Name)
		}
		if u.Username != nil {
			out.Username = clonePtr(u.Username)
		}
		if u.Image != nil {
			out.Image = clonePtr(u.Image)
		}
		out.UpdatedAt = now
		changed = true
	}
	if !u.touchesProfile() {
		return out, changed
	}

	var p Profile
	if user.Profile != nil {
		p = *user.Profile
	} else {
		p = Profile{UserID: user.ID, Language: DefaultLanguage, Notifications: DefaultNotifications()}
	}
	if u.FirstName != nil {
		p.FirstName = clonePtr(u.FirstName)
	}
	if u.LastName != nil {
		p.LastName = clonePtr(u.LastName)
	}
	if u.DateOfBirth != nil {
		p.DateOfBirth = clonePtr(u.DateOfBirth)
	}
	if u.Phone != nil {
		p.Phone = clonePtr(u.Phone)
	}
	if u.Country != nil {
		p.Country = clonePtr(u.Country)
	}
	if u.Timezone != nil {
		p.Timezone = clonePtr(u.Timezone)
	}
	if u.Language != nil {
		p.Language = *u.Language
	}
	p.Notifications = u.Notifications.Merge(p.Notifications)
	p.UpdatedAt = now
	out.Profile = &p
	return out, true
}
