package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"tillpoint/internal/core/apperror"
	"tillpoint/internal/core/id"
	"tillpoint/internal/core/store"
	"tillpoint/internal/domain/documents/debt"
	"tillpoint/internal/domain/documents/sale"
	"tillpoint/internal/domain/documents/theftaudit"
	"tillpoint/internal/domain/draft"
	"tillpoint/internal/domain/scan"
	"tillpoint/internal/infrastructure/http/v1/dto"
)

// DraftHandler manages in-memory draft entries and their save path into
// the document services.
type DraftHandler struct {
	*BaseHandler
	drafts *draft.Manager
	scans  *scan.Manager

	sales  *sale.Service
	debts  *debt.Service
	audits *theftaudit.Service
}

// NewDraftHandler creates a new draft handler.
func NewDraftHandler(
	base *BaseHandler,
	drafts *draft.Manager,
	scans *scan.Manager,
	sales *sale.Service,
	debts *debt.Service,
	audits *theftaudit.Service,
) *DraftHandler {
	return &DraftHandler{
		BaseHandler: base,
		drafts:      drafts,
		scans:       scans,
		sales:       sales,
		debts:       debts,
		audits:      audits,
	}
}

// Create handles POST /drafts
func (h *DraftHandler) Create(c *gin.Context) {
	storeID := store.GetStoreID(c.Request.Context())

	var req dto.CreateDraftRequest
	if !h.BindJSON(c, &req) {
		return
	}

	var customerID, documentID *id.ID
	if req.CustomerID != nil && *req.CustomerID != "" {
		parsed, err := id.Parse(*req.CustomerID)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid customerId format"))
			return
		}
		customerID = &parsed
	}
	if req.DocumentID != nil && *req.DocumentID != "" {
		parsed, err := id.Parse(*req.DocumentID)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid documentId format"))
			return
		}
		documentID = &parsed
	}

	d := h.drafts.Create(storeID, draft.Kind(req.Kind))

	d.Lock()
	d.CustomerID = customerID
	d.DocumentID = documentID
	resp := dto.FromDraft(d)
	d.Unlock()

	c.JSON(http.StatusCreated, resp)
}

// List handles GET /drafts
func (h *DraftHandler) List(c *gin.Context) {
	storeID := store.GetStoreID(c.Request.Context())

	drafts := h.drafts.List(storeID)
	items := make([]dto.DraftResponse, len(drafts))
	for i, d := range drafts {
		d.Lock()
		items[i] = dto.FromDraft(d)
		d.Unlock()
	}

	c.JSON(http.StatusOK, dto.DraftListResponse{Items: items})
}

// Get handles GET /drafts/:id
func (h *DraftHandler) Get(c *gin.Context) {
	storeID := store.GetStoreID(c.Request.Context())

	draftID, err := parseIDParam(c, "id")
	if err != nil {
		h.Error(c, err)
		return
	}

	d, err := h.drafts.Get(storeID, draftID)
	if err != nil {
		h.Error(c, err)
		return
	}

	d.Lock()
	resp := dto.FromDraft(d)
	d.Unlock()

	c.JSON(http.StatusOK, resp)
}

// Delete handles DELETE /drafts/:id
// Discards the draft and tears down its scan session, if any.
func (h *DraftHandler) Delete(c *gin.Context) {
	storeID := store.GetStoreID(c.Request.Context())

	draftID, err := parseIDParam(c, "id")
	if err != nil {
		h.Error(c, err)
		return
	}

	h.scans.CloseDraft(storeID, draftID)
	h.drafts.Delete(storeID, draftID)

	c.Status(http.StatusNoContent)
}

// SetLineQuantity handles PUT /drafts/:id/lines/:lineIndex/quantity
// A request with a quantity records a manual override; a null quantity
// clears it and the line returns to derived quantity.
func (h *DraftHandler) SetLineQuantity(c *gin.Context) {
	storeID := store.GetStoreID(c.Request.Context())

	draftID, err := parseIDParam(c, "id")
	if err != nil {
		h.Error(c, err)
		return
	}

	lineIndex, err := strconv.Atoi(c.Param("lineIndex"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid lineIndex format"))
		return
	}

	var req dto.SetLineQuantityRequest
	if !h.BindJSON(c, &req) {
		return
	}

	d, err := h.drafts.Get(storeID, draftID)
	if err != nil {
		h.Error(c, err)
		return
	}

	d.Lock()
	defer d.Unlock()

	line := d.Line(lineIndex)
	if line == nil {
		h.Error(c, apperror.NewNotFound("draft line", strconv.Itoa(lineIndex)))
		return
	}

	if req.Quantity == nil {
		line.ClearQuantityOverride()
	} else {
		if !req.Quantity.IsPositive() {
			h.Error(c, apperror.NewValidation("quantity must be positive").
				WithDetail("field", "quantity"))
			return
		}
		line.SetQuantityOverride(*req.Quantity)
	}
	d.Touch()

	c.JSON(http.StatusOK, dto.FromDraft(d))
}

// Save handles POST /drafts/:id/save
// Builds the document the draft's kind dictates, persists it through the
// matching service, then discards the draft and its scan session.
func (h *DraftHandler) Save(c *gin.Context) {
	ctx := c.Request.Context()
	storeID := store.GetStoreID(ctx)

	draftID, err := parseIDParam(c, "id")
	if err != nil {
		h.Error(c, err)
		return
	}

	var req dto.SaveDraftRequest
	if !h.BindJSON(c, &req) {
		return
	}

	d, err := h.drafts.Get(storeID, draftID)
	if err != nil {
		h.Error(c, err)
		return
	}

	var resp any

	d.Lock()
	kind := d.Kind
	isEdit := d.DocumentID != nil
	d.Unlock()

	switch kind {
	case draft.KindSale:
		resp, err = h.saveSale(c, d, req)
	case draft.KindDebt:
		resp, err = h.saveDebt(c, d, req)
	case draft.KindTheftAudit:
		resp, err = h.saveTheftAudit(c, d, req)
	default:
		err = apperror.NewValidation("unknown draft kind").WithDetail("kind", string(kind))
	}
	if err != nil {
		h.Error(c, err)
		return
	}

	h.scans.CloseDraft(storeID, draftID)
	h.drafts.Delete(storeID, draftID)

	status := http.StatusCreated
	if isEdit {
		status = http.StatusOK
	}
	c.JSON(status, resp)
}

// saveSale persists the draft as a sale. A draft opened against an
// existing document (DocumentID set) edits that document in place, so
// reposting applies only the difference against the prior quantities.
func (h *DraftHandler) saveSale(c *gin.Context, d *draft.Draft, req dto.SaveDraftRequest) (any, error) {
	ctx := c.Request.Context()

	d.Lock()
	docID := d.DocumentID
	d.Unlock()

	var doc *sale.Sale
	var err error
	if docID != nil {
		doc, err = h.sales.GetByID(ctx, *docID)
		if err != nil {
			return nil, err
		}
		d.Lock()
		err = doc.ApplyDraft(d)
		d.Unlock()
	} else {
		d.Lock()
		doc, err = sale.FromDraft(d)
		d.Unlock()
	}
	if err != nil {
		return nil, err
	}

	if req.Date != nil {
		doc.Date = *req.Date
	}
	if req.PaymentMethod != nil {
		doc.PaymentMethod = sale.PaymentMethod(*req.PaymentMethod)
	}
	doc.Comment = req.Comment

	switch {
	case req.PostImmediately:
		err = h.sales.PostAndSave(ctx, doc)
	case docID != nil:
		err = h.sales.Update(ctx, doc)
	default:
		err = h.sales.Create(ctx, doc)
	}
	if err != nil {
		return nil, err
	}
	return dto.FromSale(doc), nil
}

func (h *DraftHandler) saveDebt(c *gin.Context, d *draft.Draft, req dto.SaveDraftRequest) (any, error) {
	ctx := c.Request.Context()

	d.Lock()
	docID := d.DocumentID
	d.Unlock()

	var doc *debt.Debt
	var err error
	if docID != nil {
		doc, err = h.debts.GetByID(ctx, *docID)
		if err != nil {
			return nil, err
		}
		d.Lock()
		err = doc.ApplyDraft(d)
		d.Unlock()
	} else {
		d.Lock()
		doc, err = debt.FromDraft(d)
		d.Unlock()
	}
	if err != nil {
		return nil, err
	}

	if req.Date != nil {
		doc.Date = *req.Date
	}
	doc.DueDate = req.DueDate
	doc.Comment = req.Comment

	switch {
	case req.PostImmediately:
		err = h.debts.PostAndSave(ctx, doc)
	case docID != nil:
		err = h.debts.Update(ctx, doc)
	default:
		err = h.debts.Create(ctx, doc)
	}
	if err != nil {
		return nil, err
	}
	return dto.FromDebt(doc), nil
}

func (h *DraftHandler) saveTheftAudit(c *gin.Context, d *draft.Draft, req dto.SaveDraftRequest) (any, error) {
	ctx := c.Request.Context()

	d.Lock()
	docID := d.DocumentID
	d.Unlock()

	var doc *theftaudit.TheftAudit
	var err error
	if docID != nil {
		doc, err = h.audits.GetByID(ctx, *docID)
		if err != nil {
			return nil, err
		}
		d.Lock()
		err = doc.ApplyDraft(d)
		d.Unlock()
	} else {
		d.Lock()
		doc, err = theftaudit.FromDraft(d)
		d.Unlock()
	}
	if err != nil {
		return nil, err
	}

	if req.Date != nil {
		doc.Date = *req.Date
	}
	doc.Comment = req.Comment

	switch {
	case req.PostImmediately:
		err = h.audits.PostAndSave(ctx, doc)
	case docID != nil:
		err = h.audits.Update(ctx, doc)
	default:
		err = h.audits.Create(ctx, doc)
	}
	if err != nil {
		return nil, err
	}
	return dto.FromTheftAudit(doc), nil
}
