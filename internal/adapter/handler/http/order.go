package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/MikeRez0/novacart/internal/adapter/metrics"
	"github.com/MikeRez0/novacart/internal/core/domain"
	"github.com/MikeRez0/novacart/internal/core/port"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/govalues/decimal"
	"go.uber.org/zap"
)

type OrderHandler struct {
	Handler
	service port.Service
	metrics *metrics.Registry
}

func NewOrderHandler(service port.Service, reg *metrics.Registry, logger *zap.Logger) (*OrderHandler, error) {
	return &OrderHandler{
		Handler: *NewHandler(logger),
		service: service,
		metrics: reg,
	}, nil
}

type addressJSON struct {
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
}

type orderLineRequest struct {
	ProductID uint64 `json:"productId"`
	Quantity  int64  `json:"quantity"`
}

type orderRequest struct {
	Items           []orderLineRequest `json:"items"`
	ShippingAddress *addressJSON       `json:"shippingAddress"`
	PaymentMethod   string             `json:"paymentMethod"`
}

type statusRequest struct {
	OrderStatus   *string `json:"orderStatus"`
	PaymentStatus *string `json:"paymentStatus"`
}

type orderItemResponse struct {
	ProductID uint64          `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int64           `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type orderUserResponse struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type orderResponse struct {
	ID              uuid.UUID           `json:"id"`
	OrderNumber     string              `json:"orderNumber"`
	UserID          uint64              `json:"userId"`
	Items           []orderItemResponse `json:"items"`
	TotalAmount     decimal.Decimal     `json:"totalAmount"`
	ShippingAddress addressJSON         `json:"shippingAddress"`
	PaymentMethod   string              `json:"paymentMethod"`
	OrderStatus     string              `json:"orderStatus"`
	PaymentStatus   string              `json:"paymentStatus"`
	OrderDate       time.Time           `json:"orderDate"`
	User            *orderUserResponse  `json:"user,omitempty"`
}

func newOrderResponse(o *domain.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		sub, err := it.Subtotal()
		if err != nil {
			sub = decimal.Zero
		}
		items = append(items, orderItemResponse{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.UnitPrice,
			Quantity:  it.Quantity,
			Subtotal:  sub,
		})
	}

	resp := orderResponse{
		ID:          o.ID,
		OrderNumber: string(o.Number),
		UserID:      o.UserID,
		Items:       items,
		TotalAmount: o.TotalAmount,
		ShippingAddress: addressJSON{
			Address: o.ShippingAddress.Address,
			City:    o.ShippingAddress.City,
			State:   o.ShippingAddress.State,
			Zip:     o.ShippingAddress.Zip,
		},
		PaymentMethod: string(o.PaymentMethod),
		OrderStatus:   string(o.Status),
		PaymentStatus: string(o.PaymentStatus),
		OrderDate:     o.OrderDate,
	}
	if o.User != nil {
		resp.User = &orderUserResponse{Name: o.User.Name, Email: o.User.Email}
	}
	return resp
}

func newOrderListResponse(list []*domain.Order) []orderResponse {
	result := make([]orderResponse, 0, len(list))
	for _, o := range list {
		result = append(result, newOrderResponse(o))
	}
	return result
}

func orderID(ctx *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return uuid.Nil, &domain.ValidationError{Fields: []domain.FieldError{{Field: "id", Message: "invalid order id"}}}
	}
	return id, nil
}

func (oh *OrderHandler) CreateOrder(ctx *gin.Context) {
	req := orderRequest{}
	err := ctx.ShouldBindJSON(&req)
	if err != nil {
		oh.rejected("invalid_request")
		oh.handleValidationError(ctx, err)
		return
	}

	orderReq := domain.OrderRequest{
		Items:         make([]domain.OrderLine, 0, len(req.Items)),
		PaymentMethod: domain.PaymentMethod(req.PaymentMethod),
	}
	for _, it := range req.Items {
		orderReq.Items = append(orderReq.Items, domain.OrderLine{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	if req.ShippingAddress != nil {
		orderReq.ShippingAddress = &domain.Address{
			Address: req.ShippingAddress.Address,
			City:    req.ShippingAddress.City,
			State:   req.ShippingAddress.State,
			Zip:     req.ShippingAddress.Zip,
		}
	}

	order, err := oh.service.PlaceOrder(ctx, identity(ctx), orderReq)
	if err != nil {
		oh.rejected(rejectReason(err))
		oh.handleError(ctx, err)
		return
	}

	if oh.metrics != nil {
		oh.metrics.OrdersPlaced.Inc()
	}
	oh.handleSuccessWithStatus(ctx, newOrderResponse(order), http.StatusCreated)
}

func (oh *OrderHandler) GetOrder(ctx *gin.Context) {
	id, err := orderID(ctx)
	if err != nil {
		oh.handleError(ctx, err)
		return
	}

	order, err := oh.service.GetOrder(ctx, identity(ctx), id)
	if err != nil {
		oh.handleError(ctx, err)
		return
	}
	oh.handleSuccess(ctx, newOrderResponse(order))
}

func (oh *OrderHandler) ListOrdersByUser(ctx *gin.Context) {
	list, err := oh.service.GetOrdersByUser(ctx, identity(ctx))
	if err != nil {
		oh.handleError(ctx, err)
		return
	}
	oh.handleSuccess(ctx, newOrderListResponse(list))
}

func (oh *OrderHandler) ListOrders(ctx *gin.Context) {
	list, err := oh.service.GetAllOrders(ctx, identity(ctx))
	if err != nil {
		oh.handleError(ctx, err)
		return
	}
	oh.handleSuccess(ctx, newOrderListResponse(list))
}

func (oh *OrderHandler) UpdateOrderStatus(ctx *gin.Context) {
	id, err := orderID(ctx)
	if err != nil {
		oh.handleError(ctx, err)
		return
	}

	req := statusRequest{}
	err = ctx.ShouldBindJSON(&req)
	if err != nil {
		oh.handleValidationError(ctx, err)
		return
	}

	// empty values count as absent
	update := domain.StatusUpdate{}
	if req.OrderStatus != nil && *req.OrderStatus != "" {
		s := domain.OrderStatus(*req.OrderStatus)
		update.OrderStatus = &s
	}
	if req.PaymentStatus != nil && *req.PaymentStatus != "" {
		s := domain.PaymentStatus(*req.PaymentStatus)
		update.PaymentStatus = &s
	}

	order, err := oh.service.UpdateOrderStatus(ctx, identity(ctx), id, update)
	if err != nil {
		oh.handleError(ctx, err)
		return
	}

	// updates to the current status are rejected, so this counts real moves
	if oh.metrics != nil && update.OrderStatus != nil {
		oh.metrics.StatusTransitions.WithLabelValues(string(*update.OrderStatus)).Inc()
	}
	oh.handleSuccess(ctx, newOrderResponse(order))
}

func (oh *OrderHandler) rejected(reason string) {
	if oh.metrics != nil {
		oh.metrics.OrdersRejected.WithLabelValues(reason).Inc()
	}
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrDataNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrUnauthenticated), errors.Is(err, domain.ErrForbidden):
		return "unauthorized"
	default:
		return "internal"
	}
}
