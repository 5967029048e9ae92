package validation

import (
	"errors"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/flencrypto/cfs-platform/internal/domain/model"
)

// List query defaults.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100

	// MaxPage keeps (page-1)*limit within int for every accepted limit.
	MaxPage = math.MaxInt / MaxLimit
)

type listInput struct {
	Status      string   `json:"status" validate:"omitempty,contest_status"`
	Type        string   `json:"type" validate:"omitempty,contest_type"`
	MinEntryFee *float64 `json:"minEntryFee" validate:"omitempty,gte=0"`
	MaxEntryFee *float64 `json:"maxEntryFee" validate:"omitempty,gte=0"`
}

// ListQuery normalizes GET /api/contests parameters. Unparseable or
// non-positive page and limit values fall back to their defaults; limit is
// capped at MaxLimit and a page beyond MaxPage is rejected.
func ListQuery(q url.Values) (model.ContestFilter, *Rejection) {
	rej := &Rejection{Op: "contests.list"}
	f := model.ContestFilter{
		Page:      positiveOr(q.Get("page"), DefaultPage),
		Limit:     min(positiveOr(q.Get("limit"), DefaultLimit), MaxLimit),
		SportSlug: strings.TrimSpace(q.Get("sport")),
	}
	if f.Page > MaxPage {
		rej.add("page", "max", "must be at most "+strconv.Itoa(MaxPage))
	}

	in := listInput{
		Status: strings.ToUpper(strings.TrimSpace(q.Get("status"))),
		Type:   strings.ToUpper(strings.TrimSpace(q.Get("type"))),
	}
	failed := map[string]bool{}
	in.MinEntryFee = queryFee(q, "minEntryFee", rej, failed)
	in.MaxEntryFee = queryFee(q, "maxEntryFee", rej, failed)

	rej.check(in, "", failed)
	if in.MinEntryFee != nil && in.MaxEntryFee != nil && *in.MaxEntryFee < *in.MinEntryFee &&
		!rej.Has("maxEntryFee") && !rej.Has("minEntryFee") {
		rej.add("maxEntryFee", "gtefield", "must be greater than or equal to minEntryFee")
	}
	if rej = rej.orNil(); rej != nil {
		return model.ContestFilter{}, rej
	}

	if in.Status != "" {
		s := model.ContestStatus(in.Status)
		f.Status = &s
	}
	if in.Type != "" {
		t := model.ContestType(in.Type)
		f.Type = &t
	}
	f.MinEntryFee = in.MinEntryFee
	f.MaxEntryFee = in.MaxEntryFee
	return f, nil
}

// positiveOr parses a positive integer. Values too large for int saturate
// at math.MaxInt.
func positiveOr(v string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if errors.Is(err, strconv.ErrRange) && n > 0 {
		return math.MaxInt
	}
	if err != nil || n < 1 {
		return def
	}
	return n
}

func queryFee(q url.Values, key string, rej *Rejection, failed map[string]bool) *float64 {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return nil
	}
	f, ok := toFloat(v)
	if !ok {
		failed[key] = true
		rej.add(key, "number", "must be a number")
		return nil
	}
	return &f
}
