package handlers

import (
	"net/http"

	"github.com/satheeshds/invoicehub/models"
)

// ListCreditors lists the caller's creditors
// @Summary      List creditors
// @Description  Get a page of the caller's enabled creditors ordered by name.
// @Tags         creditors
// @Produce      json
// @Param        page  query     int  false  "Page number, from 0"
// @Param        size  query     int  false  "Page size"
// @Success      200   {object}  Response{data=models.Page[models.Creditor]}
// @Router       /creditors [get]
// @Security     BearerAuth
func (h *Handler) ListCreditors(w http.ResponseWriter, r *http.Request) {
	page, size, ok := pageParams(w, r)
	if !ok {
		return
	}
	out, err := h.svc.ListCreditors(r.Context(), currentUser(r), page, size)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// CreditorList lists every enabled creditor in short form
// @Summary      Creditor options
// @Description  Short form of every enabled creditor, for pickers.
// @Tags         creditors
// @Produce      json
// @Success      200  {object}  Response{data=[]models.CreditorBasic}
// @Router       /creditors/list [get]
// @Security     BearerAuth
func (h *Handler) CreditorList(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.CreditorList(r.Context(), currentUser(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// CreateCreditor creates a new creditor
// @Summary      Create creditor
// @Description  Create a bank, payment slip, person or user creditor. Creating a disabled duplicate re-enables it.
// @Tags         creditors
// @Accept       json
// @Produce      json
// @Param        creditor  body      models.CreditorInput  true  "Creditor contents"
// @Success      201       {object}  Response{data=models.Creditor}
// @Failure      400       {object}  Response{error=string}
// @Failure      404       {object}  Response{error=string}
// @Router       /creditors [post]
// @Security     BearerAuth
func (h *Handler) CreateCreditor(w http.ResponseWriter, r *http.Request) {
	var input models.CreditorInput
	if !decodeJSON(w, r, &input) {
		return
	}
	c, err := h.svc.CreateCreditor(r.Context(), currentUser(r), input)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// UpdateCreditor updates an existing creditor
// @Summary      Update creditor
// @Tags         creditors
// @Accept       json
// @Produce      json
// @Param        id        path      string                 true  "Creditor ID"
// @Param        creditor  body      models.CreditorUpdate  true  "Fields to change"
// @Success      200       {object}  Response{data=models.Creditor}
// @Failure      400       {object}  Response{error=string}
// @Failure      403       {object}  Response{error=string}
// @Failure      404       {object}  Response{error=string}
// @Router       /creditors/{id} [patch]
// @Security     BearerAuth
func (h *Handler) UpdateCreditor(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var input models.CreditorUpdate
	if !decodeJSON(w, r, &input) {
		return
	}
	c, err := h.svc.UpdateCreditor(r.Context(), currentUser(r), id, input)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// DeleteCreditor disables a creditor
// @Summary      Delete creditor
// @Tags         creditors
// @Produce      json
// @Param        id   path      string  true  "Creditor ID"
// @Success      200  {object}  Response{data=map[string]string}
// @Failure      404  {object}  Response{error=string}
// @Failure      409  {object}  Response{error=string}
// @Router       /creditors/{id} [delete]
// @Security     BearerAuth
func (h *Handler) DeleteCreditor(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteCreditor(r.Context(), currentUser(r), id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
}
