package reconcile

import (
	"encoding/json"
	"time"

	"agency-portal/internal/domain/billing"

	"github.com/stripe/stripe-go/v75"
)

// periodFacts is everything a subscription payload may say about its
// current billing period.
type periodFacts struct {
	InvoiceStart, InvoiceEnd int64
	TopStart, TopEnd         int64
	ItemStart, ItemEnd       int64
	Anchor                   int64
	Interval                 string
	IntervalCount            int64
}

func pairOf(start, end int64) *billing.Period {
	if start <= 0 || end <= 0 || end <= start {
		return nil
	}
	return &billing.Period{Start: unixUTC(start), End: unixUTC(end)}
}

func unixUTC(sec int64) time.Time { return time.Unix(sec, 0).UTC() }

// derivePeriod returns a complete start/end pair or nil. Sources in order:
// the expanded latest invoice, the subscription's own period fields, the
// first item's period fields, then the billing-cycle anchor rolled forward
// by the price interval until it covers at.
func derivePeriod(f periodFacts, at time.Time) *billing.Period {
	if p := observedPeriod(f); p != nil {
		return p
	}
	return periodFromAnchor(f.Anchor, f.Interval, f.IntervalCount, at)
}

// observedPeriod only uses period fields Stripe actually sent. Updates go
// through it so a stored period is never replaced by an anchor estimate.
func observedPeriod(f periodFacts) *billing.Period {
	if p := pairOf(f.InvoiceStart, f.InvoiceEnd); p != nil {
		return p
	}
	if p := pairOf(f.TopStart, f.TopEnd); p != nil {
		return p
	}
	return pairOf(f.ItemStart, f.ItemEnd)
}

// intervalBoundary returns anchor advanced by k intervals. Month and year
// steps clamp to the last day of the target month, so a Jan 31 anchor
// yields Feb 28 then Mar 31.
func intervalBoundary(anchor time.Time, interval string, count, k int) (time.Time, bool) {
	switch interval {
	case "day":
		return anchor.AddDate(0, 0, k*count), true
	case "week":
		return anchor.AddDate(0, 0, 7*k*count), true
	case "month":
		return addMonthsClamped(anchor, k*count), true
	case "year":
		return addMonthsClamped(anchor, 12*k*count), true
	default:
		return anchor, false
	}
}

func addMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(months), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if last := daysIn(first.Year(), first.Month()); d > last {
		d = last
	}
	return first.AddDate(0, 0, d-1)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// maxAnchorSteps bounds the roll-forward; daily prices over ten years stay under it.
const maxAnchorSteps = 5000

func periodFromAnchor(anchor int64, interval string, count int64, at time.Time) *billing.Period {
	if anchor <= 0 {
		return nil
	}
	if count <= 0 {
		count = 1
	}
	origin := unixUTC(anchor)
	start := origin
	end, ok := intervalBoundary(origin, interval, int(count), 1)
	if !ok {
		return nil
	}
	for k := 1; k < maxAnchorSteps && !end.After(at); k++ {
		start = end
		end, _ = intervalBoundary(origin, interval, int(count), k+1)
	}
	if !end.After(at) {
		return nil
	}
	return &billing.Period{Start: start, End: end}
}

func factsFromPayload(p subscriptionPayload) periodFacts {
	f := periodFacts{
		TopStart: p.CurrentPeriodStart,
		TopEnd:   p.CurrentPeriodEnd,
		Anchor:   p.BillingCycleAnchor,
	}
	if p.LatestInvoice.Expanded() {
		var inv struct {
			PeriodStart int64 `json:"period_start"`
			PeriodEnd   int64 `json:"period_end"`
		}
		if err := json.Unmarshal(p.LatestInvoice.Raw, &inv); err == nil {
			f.InvoiceStart, f.InvoiceEnd = inv.PeriodStart, inv.PeriodEnd
		}
	}
	if len(p.Items.Data) > 0 {
		item := p.Items.Data[0]
		f.ItemStart, f.ItemEnd = item.CurrentPeriodStart, item.CurrentPeriodEnd
		if item.Price != nil && item.Price.Recurring != nil {
			f.Interval = item.Price.Recurring.Interval
			f.IntervalCount = item.Price.Recurring.IntervalCount
		}
	}
	return f
}

func factsFromStripe(sub *stripe.Subscription) periodFacts {
	f := periodFacts{
		TopStart: sub.CurrentPeriodStart,
		TopEnd:   sub.CurrentPeriodEnd,
		Anchor:   sub.BillingCycleAnchor,
	}
	if sub.LatestInvoice != nil {
		f.InvoiceStart, f.InvoiceEnd = sub.LatestInvoice.PeriodStart, sub.LatestInvoice.PeriodEnd
	}
	if price := firstItemPrice(sub); price != nil && price.Recurring != nil {
		f.Interval = string(price.Recurring.Interval)
		f.IntervalCount = price.Recurring.IntervalCount
	}
	return f
}

func firstItemPrice(sub *stripe.Subscription) *stripe.Price {
	if sub == nil || sub.Items == nil || len(sub.Items.Data) == 0 || sub.Items.Data[0] == nil {
		return nil
	}
	return sub.Items.Data[0].Price
}
