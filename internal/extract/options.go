package extract

import (
	"context"
	"time"

	"github.com/HallyG/xerograb/internal/report"
	"github.com/HallyG/xerograb/internal/xero"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/samber/lo"
)

// ReportOptions selects one report and how it is fetched.
type ReportOptions struct {
	Name    string
	Variant report.Variant
	// Date is the first as-of date. Zero means today.
	Date time.Time
	// PreviousPeriods adds the month ends of this many preceding months as extra as-of dates.
	PreviousPeriods int
	// Params are sent with every request. Params.Date is replaced by each as-of date.
	Params xero.ReportParams
}

func (o ReportOptions) Validate(ctx context.Context) error {
	if err := validation.ValidateStructWithContext(ctx, &o,
		validation.Field(&o.Name, validation.Required.Error("is required")),
		validation.Field(&o.Variant, validation.In(lo.ToAnySlice(report.Variants())...)),
		validation.Field(&o.PreviousPeriods, validation.Min(0), validation.Max(120)),
	); err != nil {
		return err
	}

	return o.Params.Validate(ctx)
}

type Options struct {
	// TenantIDs restricts the run to these tenants. Empty means every connected tenant.
	TenantIDs   []string
	Endpoints   []string
	Reports     []ReportOptions
	Incremental bool
}

func (o Options) Validate(ctx context.Context) error {
	return validation.ValidateStructWithContext(ctx, &o,
		validation.Field(&o.Endpoints, validation.When(len(o.Reports) == 0, validation.Required.Error("endpoints or reports are required"))),
		validation.Field(&o.Reports, validation.Each(validation.By(func(value any) error {
			r, _ := value.(ReportOptions)
			return r.Validate(ctx)
		}))),
	)
}
