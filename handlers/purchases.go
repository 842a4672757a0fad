package handlers

import (
	"net/http"
	"time"

	"github.com/satheeshds/invoicehub/models"
)

// ListPurchases lists the caller's purchases
// @Summary      List purchases
// @Description  Get a page of the caller's enabled top-level purchases, newest first, with schedule progress and external payments.
// @Tags         purchases
// @Produce      json
// @Param        page  query     int  false  "Page number, from 0"
// @Param        size  query     int  false  "Page size"
// @Success      200   {object}  Response{data=models.Page[models.PurchaseView]}
// @Router       /purchases [get]
// @Security     BearerAuth
func (h *Handler) ListPurchases(w http.ResponseWriter, r *http.Request) {
	page, size, ok := pageParams(w, r)
	if !ok {
		return
	}
	out, err := h.svc.ListPurchases(r.Context(), currentUser(r), page, size)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// GetPurchase retrieves a single purchase by ID
// @Summary      Get purchase
// @Tags         purchases
// @Produce      json
// @Param        id   path      string  true  "Purchase ID"
// @Success      200  {object}  Response{data=models.PurchaseView}
// @Failure      403  {object}  Response{error=string}
// @Failure      404  {object}  Response{error=string}
// @Router       /purchases/{id} [get]
// @Security     BearerAuth
func (h *Handler) GetPurchase(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	v, err := h.svc.GetPurchase(r.Context(), currentUser(r), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// GetSchedule expands a purchase into its billing periods
// @Summary      Purchase schedule
// @Description  Due date and amount of every period. FIXED purchases run until horizon, by default December 31 of the purchase year.
// @Tags         purchases
// @Produce      json
// @Param        id       path      string  true   "Purchase ID"
// @Param        horizon  query     string  false  "Last date for FIXED purchases (YYYY-MM-DD)"
// @Success      200      {object}  Response{data=billing.Schedule}
// @Failure      400      {object}  Response{error=string}
// @Failure      404      {object}  Response{error=string}
// @Router       /purchases/{id}/schedule [get]
// @Security     BearerAuth
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var horizon time.Time
	if v := r.URL.Query().Get("horizon"); v != "" {
		var err error
		if horizon, err = time.Parse(models.DateLayout, v); err != nil {
			writeError(w, http.StatusBadRequest, "horizon must be a date formatted as YYYY-MM-DD")
			return
		}
	}
	sched, err := h.svc.GetSchedule(r.Context(), currentUser(r), id, horizon)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sched)
}

// CreatePurchase records a new purchase
// @Summary      Create purchase
// @Description  Record a purchase with optional external payments. Splits to USER creditors are mirrored to that user.
// @Tags         purchases
// @Accept       json
// @Produce      json
// @Param        purchase  body      models.PurchaseInput  true  "Purchase contents"
// @Success      201       {object}  Response{data=models.PurchaseView}
// @Failure      400       {object}  Response{error=string}
// @Failure      403       {object}  Response{error=string}
// @Failure      409       {object}  Response{error=string}
// @Router       /purchases [post]
// @Security     BearerAuth
func (h *Handler) CreatePurchase(w http.ResponseWriter, r *http.Request) {
	var input models.PurchaseInput
	if !decodeJSON(w, r, &input) {
		return
	}
	v, err := h.svc.CreatePurchase(r.Context(), currentUser(r), input)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

// UpdatePurchase changes an existing purchase
// @Summary      Update purchase
// @Description  Partial update. Sending external_payments replaces the splits.
// @Tags         purchases
// @Accept       json
// @Produce      json
// @Param        id        path      string                 true  "Purchase ID"
// @Param        purchase  body      models.PurchaseUpdate  true  "Fields to change"
// @Success      200       {object}  Response{data=models.PurchaseView}
// @Failure      400       {object}  Response{error=string}
// @Failure      403       {object}  Response{error=string}
// @Failure      404       {object}  Response{error=string}
// @Router       /purchases/{id} [patch]
// @Security     BearerAuth
func (h *Handler) UpdatePurchase(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var input models.PurchaseUpdate
	if !decodeJSON(w, r, &input) {
		return
	}
	v, err := h.svc.UpdatePurchase(r.Context(), currentUser(r), id, input)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// DeletePurchase disables a purchase and its splits
// @Summary      Delete purchase
// @Tags         purchases
// @Produce      json
// @Param        id   path      string  true  "Purchase ID"
// @Success      200  {object}  Response{data=map[string]string}
// @Failure      404  {object}  Response{error=string}
// @Router       /purchases/{id} [delete]
// @Security     BearerAuth
func (h *Handler) DeletePurchase(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeletePurchase(r.Context(), currentUser(r), id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
}

// MarkPaid marks purchases as paid
// @Summary      Mark purchases as paid
// @Description  Marks every listed purchase and its splits as PAID. Nothing changes if any id is rejected.
// @Tags         purchases
// @Accept       json
// @Produce      json
// @Param        ids  body      models.PaidInput  true  "Purchase IDs"
// @Success      200  {object}  Response{data=map[string]string}
// @Failure      400  {object}  Response{error=string}
// @Router       /purchases/mark_as_paid [patch]
// @Security     BearerAuth
func (h *Handler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	var input models.PaidInput
	if !decodeJSON(w, r, &input) {
		return
	}
	if err := h.svc.MarkPaid(r.Context(), currentUser(r), input.IDs); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "updated"})
}

// SweepOverdue runs the overdue sweep
// @Summary      Run overdue sweep
// @Description  Marks as OVERDUE every pending CASH or INSTALLMENT purchase whose last period is past due. Authenticated with the X-KEY header.
// @Tags         purchases
// @Produce      json
// @Success      200  {object}  Response{data=[]ledger.Overdue}
// @Failure      401  {object}  Response{error=string}
// @Router       /purchases/mark_all_as_paid [patch]
// @Security     ApiKeyAuth
func (h *Handler) SweepOverdue(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.SweepOverdue(r.Context(), h.svc.Now())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// RecordSplit adds an external payment to a purchase
// @Summary      Add external payment
// @Tags         splits
// @Accept       json
// @Produce      json
// @Param        id     path      string             true  "Purchase ID"
// @Param        split  body      models.SplitInput  true  "Split contents"
// @Success      201    {object}  Response{data=models.Purchase}
// @Failure      400    {object}  Response{error=string}
// @Failure      404    {object}  Response{error=string}
// @Router       /purchases/{id}/splits [post]
// @Security     BearerAuth
func (h *Handler) RecordSplit(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var input models.SplitInput
	if !decodeJSON(w, r, &input) {
		return
	}
	sp, err := h.svc.RecordSplit(r.Context(), currentUser(r), id, input)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sp)
}

// EditSplits replaces the external payments of a purchase
// @Summary      Replace external payments
// @Description  Entries with an id update that split, entries without one are added, and splits left out are removed.
// @Tags         splits
// @Accept       json
// @Produce      json
// @Param        id      path      string               true  "Purchase ID"
// @Param        splits  body      []models.SplitInput  true  "Full set of splits"
// @Success      200     {object}  Response{data=models.PurchaseView}
// @Failure      400     {object}  Response{error=string}
// @Failure      404     {object}  Response{error=string}
// @Router       /purchases/{id}/splits [put]
// @Security     BearerAuth
func (h *Handler) EditSplits(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var input []models.SplitInput
	if !decodeJSON(w, r, &input) {
		return
	}
	v, err := h.svc.EditSplits(r.Context(), currentUser(r), id, input)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}
