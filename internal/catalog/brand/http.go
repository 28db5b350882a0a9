package brand

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
	router.Get("/", handler.listBrands)
	router.Get("/{id}", handler.getBrand)

	// Manager and up
	router.Group(func(managerRoute chi.Router) {
		managerRoute.Use(middleware.RequireRole(sec.RoleManager))

		managerRoute.Post("/", handler.createBrand)
		managerRoute.Patch("/{id}", handler.updateBrand)

		// Admin strict only
		managerRoute.With(middleware.RequireRole(sec.RoleAdmin)).Delete("/{id}", handler.deleteBrand)
	})
}

func (handler *Handler) listBrands(writer http.ResponseWriter, request *http.Request) {
	paginationParams := pagination.FromRequest(request)

	filter := Filter{
		Query: request.URL.Query().Get("q"),
	}

	brands, total, err := handler.service.ListBrands(request.Context(), filter, paginationParams.Limit, paginationParams.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, brands, pagination.NewMeta(paginationParams.Page, paginationParams.Limit, total))
}

func (handler *Handler) getBrand(writer http.ResponseWriter, request *http.Request) {
	brandID := requestutil.Param(request, "id")

	brand, err := handler.service.GetBrand(request.Context(), brandID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, brand)
}

func (handler *Handler) createBrand(writer http.ResponseWriter, request *http.Request) {
	var input Brand

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.CreateBrand(request.Context(), &input); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, input)
}

func (handler *Handler) updateBrand(writer http.ResponseWriter, request *http.Request) {
	brandID := requestutil.Param(request, "id")

	var input Brand
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.UpdateBrand(request.Context(), brandID, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, input)
}

func (handler *Handler) deleteBrand(writer http.ResponseWriter, request *http.Request) {
	brandID := requestutil.Param(request, "id")

	if err := handler.service.DeleteBrand(request.Context(), brandID); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}
