package xero

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/HallyG/xerograb/internal/util/uuidutil"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// Connection is a tenant the authorized user granted access to.
type Connection struct {
	ID             uuid.UUID `json:"id"`
	TenantID       uuid.UUID `json:"tenantId"`
	TenantType     string    `json:"tenantType"`
	TenantName     string    `json:"tenantName"`
	CreatedDateUTC string    `json:"createdDateUtc"`
	UpdatedDateUTC string    `json:"updatedDateUtc"`
}

// Cursor selects a page of a list endpoint.
type Cursor struct {
	Page   int    // 1-based page for page paging, 0 to omit
	Offset string // last seen offset field value for offset paging
}

func (c Cursor) values() url.Values {
	values := url.Values{}
	if c.Page > 0 {
		values.Set("page", strconv.Itoa(c.Page))
	}

	if c.Offset != "" {
		values.Set("offset", c.Offset)
	}

	return values
}

type Timeframe string

const (
	TimeframeMonth   Timeframe = "MONTH"
	TimeframeQuarter Timeframe = "QUARTER"
	TimeframeYear    Timeframe = "YEAR"
)

// ReportParams are the query parameters of a report request. Zero values are omitted.
type ReportParams struct {
	Date              time.Time
	Periods           int
	Timeframe         Timeframe
	TrackingOptionID1 string
	TrackingOptionID2 string
	StandardLayout    bool
	PaymentsOnly      bool
}

func (p ReportParams) Validate(ctx context.Context) error {
	return validation.ValidateStructWithContext(ctx, &p,
		validation.Field(&p.Periods, validation.Min(0), validation.Max(11)),
		validation.Field(&p.Timeframe, validation.In(TimeframeMonth, TimeframeQuarter, TimeframeYear)),
		validation.Field(&p.TrackingOptionID1, uuidutil.Rule),
		validation.Field(&p.TrackingOptionID2, uuidutil.Rule),
	)
}

func (p ReportParams) values() url.Values {
	values := url.Values{}
	if !p.Date.IsZero() {
		values.Set("date", p.Date.Format(time.DateOnly))
	}

	if p.Periods > 0 {
		values.Set("periods", strconv.Itoa(p.Periods))
	}

	if p.Timeframe != "" {
		values.Set("timeframe", string(p.Timeframe))
	}

	if p.TrackingOptionID1 != "" {
		values.Set("trackingOptionID1", p.TrackingOptionID1)
	}

	if p.TrackingOptionID2 != "" {
		values.Set("trackingOptionID2", p.TrackingOptionID2)
	}

	if p.StandardLayout {
		values.Set("standardLayout", "true")
	}

	if p.PaymentsOnly {
		values.Set("paymentsOnly", "true")
	}

	return values
}
