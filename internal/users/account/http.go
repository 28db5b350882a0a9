// Copyright (c) 2026 Stocktrail. All rights reserved.
// Author: dev@stocktrail.io

package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/stocktrail/stocktrail/internal/platform/request"
	"github.com/stocktrail/stocktrail/internal/platform/respond"
	"github.com/stocktrail/stocktrail/internal/platform/validate"
)

// Handler implements the HTTP layer for profile management.
//
// # Security
//
// All endpoints in this package require an active authentication session
// provided by the RequireAuth middleware.
type Handler struct {
	accountService *Service
}

// NewHandler constructs a new account [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{accountService: service}
}

// Routes returns a [chi.Router] configured with the profile endpoints.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/me", handler.getMe)
	router.Patch("/me", handler.updateMe)

	return router
}

/*
GET /api/v1/me.

Description: Retrieves the full private profile of the authenticated user.

Response:
  - 200: Account: Hydrated profile
  - 401: ErrUnauthorized: Authentication required
*/
func (handler *Handler) getMe(writer http.ResponseWriter, request *http.Request) {
	accountID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	account, err := handler.accountService.GetProfile(request.Context(), accountID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, account)
}

// updateMeRequest defines the expected JSON payload for profile updates.
type updateMeRequest struct {
	FirstName       *string `json:"first_name"`
	LastName        *string `json:"last_name"`
	ContactNumber   *string `json:"contact_number"`
	ShippingAddress *string `json:"shipping_address"`
	AvatarURL       *string `json:"avatar_url"`
}

/*
PATCH /api/v1/me.

Description: Applies partial updates to the authenticated user's profile.
Email and password are deliberately not accepted here; those change through
the auth workflows.

Request:
  - body: updateMeRequest (Partial JSON)

Response:
  - 200: Account: The updated profile
  - 400: ErrInvalidJSON/Validation: Invalid input data
  - 401: ErrUnauthorized: Authentication required
*/
func (handler *Handler) updateMe(writer http.ResponseWriter, request *http.Request) {
	accountID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updateMeRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	if input.FirstName != nil {
		v.Required("first_name", *input.FirstName).MaxLen("first_name", *input.FirstName, 100)
	}
	if input.LastName != nil {
		v.Required("last_name", *input.LastName).MaxLen("last_name", *input.LastName, 100)
	}
	if input.ContactNumber != nil {
		v.MaxLen("contact_number", *input.ContactNumber, 32)
	}
	if input.ShippingAddress != nil {
		v.MaxLen("shipping_address", *input.ShippingAddress, 500)
	}
	if input.AvatarURL != nil && *input.AvatarURL != "" {
		v.URL("avatar_url", *input.AvatarURL)
	}

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	account, err := handler.accountService.UpdateProfile(request.Context(), accountID, UpdateProfileInput{
		FirstName:       input.FirstName,
		LastName:        input.LastName,
		ContactNumber:   input.ContactNumber,
		ShippingAddress: input.ShippingAddress,
		AvatarURL:       input.AvatarURL,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, account)
}
