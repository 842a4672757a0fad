package handlers

import (
	"net/http"
	"time"

	"github.com/satheeshds/invoicehub/models"
)

// reportDate reads the optional date query parameter, defaulting to now.
func (h *Handler) reportDate(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	v := r.URL.Query().Get("date")
	if v == "" {
		return h.svc.Now(), true
	}
	d, err := time.Parse(models.DateLayout, v)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be formatted as YYYY-MM-DD")
		return time.Time{}, false
	}
	return d, true
}

// InvoicesByCreditor reports the current month's amounts per creditor
// @Summary      Amounts by creditor
// @Description  What the caller owes each creditor in the active period, and what other users owe back through splits.
// @Tags         analytics
// @Produce      json
// @Param        date  query     string  false  "Report date (YYYY-MM-DD), default today"
// @Success      200   {object}  Response{data=[]billing.CreditorTotal}
// @Router       /analytics/invoices_by_creditor [get]
// @Security     BearerAuth
func (h *Handler) InvoicesByCreditor(w http.ResponseWriter, r *http.Request) {
	now, ok := h.reportDate(w, r)
	if !ok {
		return
	}
	rows, err := h.svc.ByCreditor(r.Context(), currentUser(r), now)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// InvoicesByMonth reports the amount due in each month of the year
// @Summary      Amounts by month
// @Tags         analytics
// @Produce      json
// @Param        date  query     string  false  "Report date (YYYY-MM-DD), default today"
// @Success      200   {object}  Response{data=[]billing.MonthTotal}
// @Router       /analytics/invoices_by_month [get]
// @Security     BearerAuth
func (h *Handler) InvoicesByMonth(w http.ResponseWriter, r *http.Request) {
	now, ok := h.reportDate(w, r)
	if !ok {
		return
	}
	rows, err := h.svc.ByMonth(r.Context(), currentUser(r), now)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// InvoicesByWeek reports what falls due on each day of this week
// @Summary      Amounts by weekday
// @Description  Period amounts due in the Sunday to Saturday week containing the report date (1 = Sunday).
// @Tags         analytics
// @Produce      json
// @Param        date  query     string  false  "Report date (YYYY-MM-DD), default today"
// @Success      200   {object}  Response{data=[]billing.DayTotal}
// @Router       /analytics/invoices_by_week [get]
// @Security     BearerAuth
func (h *Handler) InvoicesByWeek(w http.ResponseWriter, r *http.Request) {
	now, ok := h.reportDate(w, r)
	if !ok {
		return
	}
	rows, err := h.svc.ByWeek(r.Context(), currentUser(r), now)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// InvoicesByPaymentType reports what each payment type costs this month
// @Summary      Amounts by payment type
// @Tags         analytics
// @Produce      json
// @Param        date  query     string  false  "Report date (YYYY-MM-DD), default today"
// @Success      200   {object}  Response{data=[]billing.PaymentTypeTotal}
// @Router       /analytics/invoices_by_payment_type [get]
// @Security     BearerAuth
func (h *Handler) InvoicesByPaymentType(w http.ResponseWriter, r *http.Request) {
	now, ok := h.reportDate(w, r)
	if !ok {
		return
	}
	rows, err := h.svc.ByPaymentType(r.Context(), currentUser(r), now)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}
