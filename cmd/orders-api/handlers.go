package main

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MikeMC777/pedidos-live/internal/menu"
	"github.com/MikeMC777/pedidos-live/internal/order"
	"github.com/MikeMC777/pedidos-live/internal/status"
)

// Every response uses the {success, data, message} envelope.

func respondOK(c *gin.Context, code int, data any) {
	c.JSON(code, gin.H{"success": true, "data": data})
}

func respondErr(c *gin.Context, code int, msg string) {
	c.JSON(code, gin.H{"success": false, "message": msg})
}

func limitOffset(c *gin.Context) (int, int) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	return limit, offset
}

// statusUpdatePayload is the partial push event emitted on every status
// change.
type statusUpdatePayload struct {
	OrderID   string        `json:"order_id"`
	NewStatus status.Status `json:"new_status"`
	Note      string        `json:"note,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// listOrdersByBusinessHandler godoc
// @Summary Lista los pedidos de un negocio
// @Router /api/orders/business/{businessId} [get]
func listOrdersByBusinessHandler(repo order.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, offset := limitOffset(c)
		out, err := repo.ListByBusiness(c.Request.Context(), c.Param("businessID"), limit, offset)
		if err != nil {
			respondErr(c, http.StatusInternalServerError, "could not list orders")
			return
		}
		if out == nil {
			out = []order.Order{}
		}
		respondOK(c, http.StatusOK, out)
	}
}

// listOrdersByUserHandler godoc
// @Summary Lista los pedidos de un cliente
// @Router /api/orders/user/{userId} [get]
func listOrdersByUserHandler(repo order.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, offset := limitOffset(c)
		out, err := repo.ListByUser(c.Request.Context(), c.Param("userID"), limit, offset)
		if err != nil {
			respondErr(c, http.StatusInternalServerError, "could not list orders")
			return
		}
		if out == nil {
			out = []order.Order{}
		}
		respondOK(c, http.StatusOK, out)
	}
}

// createOrderHandler godoc
// @Summary Crea un pedido
// @Router /api/orders [post]
func createOrderHandler(repo order.Repository, nf *notifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req order.CreateOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondErr(c, http.StatusBadRequest, "invalid json")
			return
		}
		if req.BusinessID == "" || req.UserID == "" || len(req.Items) == 0 {
			respondErr(c, http.StatusBadRequest, "business_id, user_id and items are required")
			return
		}
		ot := status.OrderType(req.OrderType)
		if ot != status.OrderTypePickup && ot != status.OrderTypeDelivery {
			respondErr(c, http.StatusBadRequest, "order_type must be pickup or delivery")
			return
		}
		if ot == status.OrderTypeDelivery && req.DeliveryAddress == "" {
			respondErr(c, http.StatusBadRequest, "delivery orders need a delivery_address")
			return
		}

		items := make([]order.Item, 0, len(req.Items))
		for _, it := range req.Items {
			if it.Name == "" || it.Quantity < 1 {
				respondErr(c, http.StatusBadRequest, "every item needs a name and quantity >= 1")
				return
			}
			price, err := decimal.NewFromString(it.Price)
			if err != nil || price.IsNegative() {
				respondErr(c, http.StatusBadRequest, "item price must be a non-negative decimal")
				return
			}
			items = append(items, order.Item{Name: it.Name, Quantity: it.Quantity, Price: price, Note: it.Note})
		}

		now := time.Now().UTC()
		o := &order.Order{
			ID:              uuid.NewString(),
			BusinessID:      req.BusinessID,
			UserID:          req.UserID,
			Status:          status.Pending,
			Items:           items,
			Total:           order.TotalFromItems(items),
			CustomerName:    req.CustomerName,
			CustomerPhone:   req.CustomerPhone,
			DeliveryAddress: req.DeliveryAddress,
			Notes:           req.Notes,
			PaymentMethod:   req.PaymentMethod,
			OrderType:       ot,
			CreatedAt:       now,
			UpdatedAt:       now,
			StatusHistory: []order.HistoryEntry{
				{Status: status.Pending, Timestamp: now},
			},
		}
		if err := repo.Create(c.Request.Context(), o); err != nil {
			respondErr(c, http.StatusInternalServerError, "could not create order")
			return
		}

		nf.publish("business:"+o.BusinessID, "order:new", o)
		nf.publish("user:"+o.UserID, "order:new", o)
		respondOK(c, http.StatusCreated, o)
	}
}

// updateOrderStatusHandler godoc
// @Summary Cambia el estado de un pedido
// @Router /api/orders/{id}/status [patch]
func updateOrderStatusHandler(repo order.Repository, nf *notifier, policy status.CancelPolicy) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		var req order.UpdateStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondErr(c, http.StatusBadRequest, "invalid json")
			return
		}
		next := status.Status(req.Status)
		if !status.Valid(next) {
			respondErr(c, http.StatusBadRequest, "unknown status")
			return
		}

		cur, err := repo.GetByID(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, order.ErrNotFound) {
				respondErr(c, http.StatusNotFound, "order not found")
				return
			}
			respondErr(c, http.StatusInternalServerError, "could not load order")
			return
		}
		if !status.CanTransition(cur.Status, next, policy) {
			respondErr(c, http.StatusConflict, "illegal transition "+string(cur.Status)+" -> "+string(next))
			return
		}

		updated, err := repo.UpdateStatus(c.Request.Context(), id, next, req.Note)
		if err != nil {
			if errors.Is(err, order.ErrNotFound) {
				respondErr(c, http.StatusNotFound, "order not found")
				return
			}
			respondErr(c, http.StatusInternalServerError, "could not update status")
			return
		}

		payload := statusUpdatePayload{
			OrderID:   updated.ID,
			NewStatus: updated.Status,
			Note:      req.Note,
			Timestamp: updated.UpdatedAt,
		}
		nf.publish("business:"+updated.BusinessID, "order:status_update", payload)
		nf.publish("user:"+updated.UserID, "order:status_update", payload)
		respondOK(c, http.StatusOK, updated)
	}
}

// listMenuHandler godoc
// @Summary Lista el menú de un negocio
// @Router /api/menu/business/{businessId} [get]
func listMenuHandler(repo menu.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, offset := limitOffset(c)
		out, err := repo.List(c.Request.Context(), menu.Query{
			BusinessID: c.Param("businessID"),
			Q:          c.Query("q"),
			Limit:      limit,
			Offset:     offset,
		})
		if err != nil {
			respondErr(c, http.StatusInternalServerError, "could not list menu")
			return
		}
		if out == nil {
			out = []menu.Item{}
		}
		respondOK(c, http.StatusOK, out)
	}
}

// createMenuItemHandler godoc
// @Summary Crea un artículo del menú
// @Router /api/menu/business/{businessId} [post]
func createMenuItemHandler(repo menu.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req menu.CreateItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondErr(c, http.StatusBadRequest, "invalid json")
			return
		}
		price, err := decimal.NewFromString(req.Price)
		if req.Name == "" || err != nil || price.IsNegative() {
			respondErr(c, http.StatusBadRequest, "name and a non-negative price are required")
			return
		}
		available := true
		if req.Available != nil {
			available = *req.Available
		}
		it := &menu.Item{
			ID:          uuid.NewString(),
			BusinessID:  c.Param("businessID"),
			Name:        req.Name,
			Description: req.Description,
			Price:       price.String(),
			Category:    req.Category,
			Available:   available,
		}
		if err := repo.Create(c.Request.Context(), it); err != nil {
			respondErr(c, http.StatusInternalServerError, "could not create menu item")
			return
		}
		respondOK(c, http.StatusCreated, it)
	}
}

// updateMenuItemHandler godoc
// @Summary Actualiza un artículo del menú
// @Router /api/menu/{id} [put]
func updateMenuItemHandler(repo menu.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		var req menu.UpdateItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondErr(c, http.StatusBadRequest, "invalid json")
			return
		}
		cur, err := repo.GetByID(c.Request.Context(), id)
		if err != nil {
			respondErr(c, http.StatusNotFound, "menu item not found")
			return
		}

		updatePrice := false
		if req.Price != "" {
			price, err := decimal.NewFromString(req.Price)
			if err != nil || price.IsNegative() {
				respondErr(c, http.StatusBadRequest, "price must be a non-negative decimal")
				return
			}
			cur.Price = price.String()
			updatePrice = true
		}
		cur.Name = req.Name
		cur.Description = req.Description
		cur.Category = req.Category
		if req.Available != nil {
			cur.Available = *req.Available
		}
		if err := repo.Update(c.Request.Context(), cur, updatePrice); err != nil {
			respondErr(c, http.StatusInternalServerError, "could not update menu item")
			return
		}
		out, err := repo.GetByID(c.Request.Context(), id)
		if err != nil {
			respondErr(c, http.StatusInternalServerError, "could not reload menu item")
			return
		}
		respondOK(c, http.StatusOK, out)
	}
}

// deleteMenuItemHandler godoc
// @Summary Elimina un artículo del menú
// @Router /api/menu/{id} [delete]
func deleteMenuItemHandler(repo menu.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		okDeleted, err := repo.Delete(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondErr(c, http.StatusInternalServerError, "could not delete menu item")
			return
		}
		if !okDeleted {
			respondErr(c, http.StatusNotFound, "menu item not found")
			return
		}
		respondOK(c, http.StatusOK, gin.H{"deleted": true})
	}
}
