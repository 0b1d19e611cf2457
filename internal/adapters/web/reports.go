package web

import (
	"net/http"
	"time"
)

// todaySummary handles GET /api/reports/today.
func (h *Handler) todaySummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.TodaySummary(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, summary)
}

// dailyReport handles GET /api/reports/daily?date=YYYY-MM-DD. Defaults to
// today when no date is given.
func (h *Handler) dailyReport(w http.ResponseWriter, r *http.Request) {
	day, ok := queryDate(r, "date")
	if !ok {
		day = time.Now()
	}

	report, err := h.svc.DailyReport(r.Context(), day)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, report)
}

// customerRanking handles GET /api/reports/customers?from=...&to=...&limit=N.
// The range defaults to the last 30 days.
func (h *Handler) customerRanking(w http.ResponseWriter, r *http.Request) {
	from, to := reportRange(r)
	ranks, err := h.svc.CustomerRanking(r.Context(), from, to, queryInt(r, "limit"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, ranks)
}

// specUsage handles GET /api/reports/specs?from=...&to=....
func (h *Handler) specUsage(w http.ResponseWriter, r *http.Request) {
	from, to := reportRange(r)
	usage, err := h.svc.SpecUsage(r.Context(), from, to)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, usage)
}

// reportRange reads from/to query dates, defaulting to the last 30 days.
// The "to" bound is exclusive end-of-day.
func reportRange(r *http.Request) (time.Time, time.Time) {
	to, ok := queryDate(r, "to")
	if !ok {
		to = time.Now()
	} else {
		to = to.AddDate(0, 0, 1)
	}
	from, ok := queryDate(r, "from")
	if !ok {
		from = to.AddDate(0, 0, -30)
	}
	return from, to
}
