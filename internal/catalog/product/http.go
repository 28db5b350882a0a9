package product

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stocktrail/stocktrail/internal/platform/middleware"
	requestutil "github.com/stocktrail/stocktrail/internal/platform/request"
	"github.com/stocktrail/stocktrail/internal/platform/respond"
	"github.com/stocktrail/stocktrail/internal/platform/sec"
	"github.com/stocktrail/stocktrail/pkg/pagination"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (handler *Handler) RegisterRoutes(router chi.Router) {
	// Public
	router.Get("/", handler.listProducts)
	router.Get("/{id}", handler.getProduct)

	// Manager and up
	router.Group(func(managerRoute chi.Router) {
		managerRoute.Use(middleware.RequireRole(sec.RoleManager))

		managerRoute.Post("/", handler.createProduct)
		managerRoute.Patch("/{id}", handler.updateProduct)
		managerRoute.Post("/{id}/stock", handler.adjustStock)

		// Admin strict only
		managerRoute.With(middleware.RequireRole(sec.RoleAdmin)).Delete("/{id}", handler.deleteProduct)
	})
}

func (handler *Handler) listProducts(writer http.ResponseWriter, request *http.Request) {
	paginationParams := pagination.FromRequest(request)

	filter := Filter{
		Query:   request.URL.Query().Get("q"),
		BrandID: request.URL.Query().Get("brand_id"),
	}

	products, total, err := handler.service.ListProducts(request.Context(), filter, paginationParams.Limit, paginationParams.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, products, pagination.NewMeta(paginationParams.Page, paginationParams.Limit, total))
}

func (handler *Handler) getProduct(writer http.ResponseWriter, request *http.Request) {
	productID := requestutil.Param(request, "id")

	product, err := handler.service.GetProduct(request.Context(), productID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, product)
}

func (handler *Handler) createProduct(writer http.ResponseWriter, request *http.Request) {
	var input Product

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.CreateProduct(request.Context(), &input); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, input)
}

func (handler *Handler) updateProduct(writer http.ResponseWriter, request *http.Request) {
	productID := requestutil.Param(request, "id")

	var input Product
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.UpdateProduct(request.Context(), productID, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, input)
}

func (handler *Handler) deleteProduct(writer http.ResponseWriter, request *http.Request) {
	productID := requestutil.Param(request, "id")

	if err := handler.service.DeleteProduct(request.Context(), productID); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

type adjustStockRequest struct {
	Delta int `json:"delta"`
}

func (handler *Handler) adjustStock(writer http.ResponseWriter, request *http.Request) {
	productID := requestutil.Param(request, "id")

	var input adjustStockRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	product, err := handler.service.AdjustStock(request.Context(), productID, input.Delta)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, product)
}
