package validation

import (
	"github.com/flencrypto/cfs-platform/internal/domain/model"
)

type profileInput struct {
	Name     *string `json:"name" validate:"omitempty,min=1"`
	Username *string `json:"username" validate:"omitempty,min=3"`
	Image    *string `json:"image" validate:"omitempty,url"`
}

// UpdateProfile validates a PATCH /api/me body of the form
// {"profile": {...}, "preferences": {"email", "push", "sms"}}.
// Notification channels from profile.notifications and preferences are
// combined, preferences winning.
func UpdateProfile(raw map[string]any) (model.ProfileUpdate, *Rejection) {
	rej := &Rejection{Op: "profile.update"}
	top := newReader(raw, "", rej)
	profile := top.object("profile")
	prefsRaw := top.object("preferences")

	var upd model.ProfileUpdate
	if profile == nil && prefsRaw == nil && !top.failed["profile"] && !top.failed["preferences"] {
		rej.add("profile", "required", "no update data provided")
		return upd, rej
	}

	if profile != nil {
		rd := newReader(profile, "profile.", rej)
		in := profileInput{
			Name:     rd.str("name"),
			Username: rd.str("username"),
			Image:    rd.str("image"),
		}
		upd.FirstName = rd.str("firstName")
		upd.LastName = rd.str("lastName")
		upd.Phone = rd.str("phone")
		upd.Country = rd.str("country")
		upd.Timezone = rd.str("timezone")
		upd.Language = rd.str("language")
		upd.DateOfBirth = rd.timestamp("dateOfBirth")
		if n := rd.object("notifications"); n != nil {
			upd.Notifications = notifications(n, "profile.notifications", rej)
		}
		rej.check(in, "profile.", rd.failed)
		upd.Name, upd.Username, upd.Image = in.Name, in.Username, in.Image
	}

	if prefsRaw != nil {
		upd.Notifications = upd.Notifications.Overlay(notifications(prefsRaw, "preferences", rej))
	}

	if rej = rej.orNil(); rej != nil {
		return model.ProfileUpdate{}, rej
	}
	return upd, nil
}

func notifications(raw map[string]any, field string, rej *Rejection) model.NotificationPatch {
	rd := newReader(raw, field+".", rej)
	n := model.NotificationPatch{
		Email: rd.boolean("email"),
		Push:  rd.boolean("push"),
		SMS:   rd.boolean("sms"),
	}
	if rd.seen == 0 {
		rej.add(field, "min", "at least one notification preference must be provided")
	}
	return n
}
