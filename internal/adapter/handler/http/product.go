package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/MikeRez0/novacart/internal/core/domain"
	"github.com/MikeRez0/novacart/internal/core/port"
	"github.com/gin-gonic/gin"
	"github.com/govalues/decimal"
	"go.uber.org/zap"
)

type ProductHandler struct {
	Handler
	service port.Service
}

func NewProductHandler(service port.Service, logger *zap.Logger) (*ProductHandler, error) {
	return &ProductHandler{
		Handler: *NewHandler(logger),
		service: service,
	}, nil
}

type productRequest struct {
	Name          string      `json:"name"`
	Description   string      `json:"description"`
	Category      string      `json:"category"`
	Price         json.Number `json:"price"`
	StockQuantity int64       `json:"stockQuantity"`
}

type stockRequest struct {
	Delta int64 `json:"delta"`
}

type productResponse struct {
	ID            uint64          `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Category      string          `json:"category"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int64           `json:"stockQuantity"`
	InStock       bool            `json:"inStock"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

func newProductResponse(p *domain.Product) productResponse {
	return productResponse{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		Category:      p.Category,
		Price:         p.Price,
		StockQuantity: p.StockQuantity,
		InStock:       p.InStock,
		UpdatedAt:     p.UpdatedAt,
	}
}

func productID(ctx *gin.Context) (uint64, error) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, &domain.ValidationError{Fields: []domain.FieldError{{Field: "id", Message: "invalid product id"}}}
	}
	return id, nil
}

func (ph *ProductHandler) GetProduct(ctx *gin.Context) {
	id, err := productID(ctx)
	if err != nil {
		ph.handleError(ctx, err)
		return
	}

	product, err := ph.service.GetProduct(ctx, id)
	if err != nil {
		ph.handleError(ctx, err)
		return
	}
	ph.handleSuccess(ctx, newProductResponse(product))
}

func (ph *ProductHandler) CreateProduct(ctx *gin.Context) {
	req := productRequest{}
	err := ctx.ShouldBindJSON(&req)
	if err != nil {
		ph.handleValidationError(ctx, err)
		return
	}

	price, err := decimal.Parse(req.Price.String())
	if err != nil {
		ph.handleError(ctx, &domain.ValidationError{Fields: []domain.FieldError{{Field: "price", Message: "price must be a decimal number"}}})
		return
	}

	product, err := ph.service.CreateProduct(ctx, identity(ctx), &domain.Product{
		Name:          req.Name,
		Description:   req.Description,
		Category:      req.Category,
		Price:         price,
		StockQuantity: req.StockQuantity,
	})
	if err != nil {
		ph.handleError(ctx, err)
		return
	}
	ph.handleSuccessWithStatus(ctx, newProductResponse(product), http.StatusCreated)
}

func (ph *ProductHandler) AdjustStock(ctx *gin.Context) {
	id, err := productID(ctx)
	if err != nil {
		ph.handleError(ctx, err)
		return
	}

	req := stockRequest{}
	err = ctx.ShouldBindJSON(&req)
	if err != nil {
		ph.handleValidationError(ctx, err)
		return
	}

	product, err := ph.service.AdjustStock(ctx, identity(ctx), id, req.Delta)
	if err != nil {
		ph.handleError(ctx, err)
		return
	}
	ph.handleSuccess(ctx, newProductResponse(product))
}
