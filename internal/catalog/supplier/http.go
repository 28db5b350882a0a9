package supplier

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
	// Suppliers carry purchasing terms; the whole surface is staff-only.
	router.Group(func(managerRoute chi.Router) {
		managerRoute.Use(middleware.RequireRole(sec.RoleManager))

		managerRoute.Get("/", handler.listSuppliers)
		managerRoute.Get("/{id}", handler.getSupplier)
		managerRoute.Post("/", handler.createSupplier)
		managerRoute.Patch("/{id}", handler.updateSupplier)

		managerRoute.With(middleware.RequireRole(sec.RoleAdmin)).Delete("/{id}", handler.deleteSupplier)
	})
}

func (handler *Handler) listSuppliers(writer http.ResponseWriter, request *http.Request) {
	paginationParams := pagination.FromRequest(request)

	filter := Filter{
		Query:  request.URL.Query().Get("q"),
		Status: request.URL.Query().Get("status"),
	}

	suppliers, total, err := handler.service.ListSuppliers(request.Context(), filter, paginationParams.Limit, paginationParams.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, suppliers, pagination.NewMeta(paginationParams.Page, paginationParams.Limit, total))
}

func (handler *Handler) getSupplier(writer http.ResponseWriter, request *http.Request) {
	supplierID := requestutil.Param(request, "id")

	supplier, err := handler.service.GetSupplier(request.Context(), supplierID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, supplier)
}

func (handler *Handler) createSupplier(writer http.ResponseWriter, request *http.Request) {
	var input Supplier

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.CreateSupplier(request.Context(), &input); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, input)
}

func (handler *Handler) updateSupplier(writer http.ResponseWriter, request *http.Request) {
	supplierID := requestutil.Param(request, "id")

	var input Supplier
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.UpdateSupplier(request.Context(), supplierID, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, input)
}

func (handler *Handler) deleteSupplier(writer http.ResponseWriter, request *http.Request) {
	supplierID := requestutil.Param(request, "id")

	if err := handler.service.DeleteSupplier(request.Context(), supplierID); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}
