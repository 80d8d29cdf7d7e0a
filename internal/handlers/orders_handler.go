package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/Pushpak005/new-sample01-mvp2--sub001/internal/idempotency"
	"github.com/Pushpak005/new-sample01-mvp2--sub001/internal/orders"
	"github.com/Pushpak005/new-sample01-mvp2--sub001/internal/validation"
)

// HandlerConfig groups dependencies for the orders handler.
type HandlerConfig struct {
	Coordinator *orders.Coordinator
	Idempotency idempotency.Keeper // optional
	AdminKey    string             // empty disables admin listing
	MaxQuantity int
	Logger      *slog.Logger
}

// allocationResponse is returned by the offer endpoints; AllocationExhausted tells the
// dashboard that an administrator has to supply new riders.
type allocationResponse struct {
	Order               orders.Order `json:"order"`
	AllocationExhausted bool         `json:"allocation_exhausted"`
}

// RegisterOrdersRoutes registers routes for order API.
func RegisterOrdersRoutes(r gin.IRouter, cfg HandlerConfig) {
	h := &ordersHandler{cfg: cfg, v: validation.New(cfg.MaxQuantity)}

	r.POST("/orders", h.create)
	r.GET("/orders", h.list)
	r.GET("/orders/:id", h.get)
	r.POST("/orders/status", h.setStatus)
	r.POST("/orders/allocate", h.allocate)
	r.POST("/orders/rider-response", h.riderResponse)
}

type ordersHandler struct {
	cfg HandlerConfig
	v   *validatorv10.Validate
}

func (h *ordersHandler) create(c *gin.Context) {
	ctx := c.Request.Context()

	var req validation.CreateOrderRequest
	if err := h.bind(c, &req); err != nil {
		return
	}

	// Idempotency-Key is optional; when present, retries replay the first outcome
	idempKey := c.GetHeader("Idempotency-Key")
	if idempKey != "" && h.cfg.Idempotency != nil {
		created, err := h.cfg.Idempotency.CreateIfNotExists(ctx, idempKey, "")
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "idempotency_check_failed", "detail": err.Error()})
			return
		}
		if !created {
			h.replay(c, idempKey)
			return
		}
	} else {
		idempKey = ""
	}

	o, err := h.cfg.Coordinator.Create(ctx, orders.NewOrderParams{
		UserID:     req.UserID,
		VendorID:   req.VendorID,
		VendorName: req.VendorName,
		DishID:     req.DishID,
		DishTitle:  req.DishTitle,
		Quantity:   req.Quantity,
		Price:      req.Price,
		Address:    req.Address,
		Phone:      req.Phone,
	})
	if err != nil {
		if idempKey != "" {
			if mErr := h.cfg.Idempotency.MarkFailed(ctx, idempKey, err.Error()); mErr != nil {
				h.cfg.Logger.Warn("mark idempotency failed", "key", idempKey, "error", mErr)
			}
		}
		writeError(c, err)
		return
	}

	body, err := json.Marshal(o)
	if err != nil {
		writeError(c, err)
		return
	}
	if idempKey != "" {
		if mErr := h.cfg.Idempotency.MarkDone(ctx, idempKey, string(body), http.StatusCreated); mErr != nil {
			h.cfg.Logger.Warn("mark idempotency done", "key", idempKey, "order_id", o.OrderID, "error", mErr)
		}
	}

	c.Header("Location", fmt.Sprintf("/orders/%s", o.OrderID))
	c.Data(http.StatusCreated, "application/json; charset=utf-8", body)
}

func (h *ordersHandler) replay(c *gin.Context, key string) {
	rec, err := h.cfg.Idempotency.Get(c.Request.Context(), key)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "idempotency_check_failed", "detail": err.Error()})
		return
	}
	if rec == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "idempotency_record_missing"})
		return
	}
	switch rec.Status {
	case idempotency.StatusDone:
		c.Data(rec.ResponseStatus, "application/json; charset=utf-8", []byte(rec.ResponseBody))
	case idempotency.StatusInProgress:
		c.JSON(http.StatusAccepted, gin.H{"message": "request already in progress"})
	case idempotency.StatusFailed:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "previous_attempt_failed", "detail": rec.Note})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unknown_idempotency_status"})
	}
}

func (h *ordersHandler) list(c *gin.Context) {
	q := orders.Query{
		Filter: orders.Filter{
			UserID:   c.Query("user"),
			VendorID: c.Query("vendor"),
			RiderID:  c.Query("rider"),
		},
	}
	if s := c.Query("status"); s != "" {
		st, err := orders.ParseStatus(s)
		if err != nil {
			writeError(c, err)
			return
		}
		q.Status = st
	}
	if key, ok := c.GetQuery("admin_key"); ok {
		if !h.validAdminKey(key) {
			c.JSON(http.StatusForbidden, gin.H{"error": "invalid_admin_key"})
			return
		}
		q.Admin = true
	}

	list, err := h.cfg.Coordinator.List(c.Request.Context(), q)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *ordersHandler) get(c *gin.Context) {
	o, err := h.cfg.Coordinator.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *ordersHandler) setStatus(c *gin.Context) {
	var req validation.UpdateStatusRequest
	if err := h.bind(c, &req); err != nil {
		return
	}
	o, err := h.cfg.Coordinator.SetStatus(c.Request.Context(), req.OrderID, orders.Status(req.Status), req.RiderID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *ordersHandler) allocate(c *gin.Context) {
	var req validation.AllocateRequest
	if err := h.bind(c, &req); err != nil {
		return
	}
	o, err := h.cfg.Coordinator.BeginAllocation(c.Request.Context(), req.OrderID, req.Riders)
	h.writeAllocation(c, o, err)
}

func (h *ordersHandler) riderResponse(c *gin.Context) {
	var req validation.RiderResponseRequest
	if err := h.bind(c, &req); err != nil {
		return
	}
	o, err := h.cfg.Coordinator.Respond(c.Request.Context(), req.OrderID, req.RiderID, orders.Decision(req.Decision))
	h.writeAllocation(c, o, err)
}

func (h *ordersHandler) writeAllocation(c *gin.Context, o orders.Order, err error) {
	exhausted := errors.Is(err, orders.ErrAllocationExhausted)
	if err != nil && !exhausted {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, allocationResponse{Order: o, AllocationExhausted: exhausted})
}

func (h *ordersHandler) bind(c *gin.Context, out interface{}) error {
	return validation.BindAndValidate(c, out, h.v)
}

func (h *ordersHandler) validAdminKey(key string) bool {
	if h.cfg.AdminKey == "" || key == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(key), []byte(h.cfg.AdminKey)) == 1
}
