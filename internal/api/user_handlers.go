package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"parkingslots/internal/auth"
	"parkingslots/internal/db"
	apperrors "parkingslots/internal/errors"
	"parkingslots/internal/service"
	"parkingslots/internal/utils"
)

type UserReservationHandler struct {
	Service  *service.ReservationService
	location *time.Location
	validate *validator.Validate
	logger   *zap.Logger
}

func NewUserReservationHandler(svc *service.ReservationService, location *time.Location, logger *zap.Logger) *UserReservationHandler {
	return &UserReservationHandler{
		Service:  svc,
		location: location,
		validate: newValidator(),
		logger:   logger,
	}
}

func (h *UserReservationHandler) ListParkingSlots(w http.ResponseWriter, r *http.Request) {
	slots, err := h.Service.ListSlotsWithAvailability(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, slots)
}

func (h *UserReservationHandler) SlotAvailability(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, r, h.logger, apperrors.ErrInvalidRequest("slot id must be a number"))
		return
	}
	day := r.URL.Query().Get("day")
	res, err := h.Service.GetSlotAvailability(r.Context(), id, day)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *UserReservationHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req CreateBookingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, r, h.logger, validationError(err))
		return
	}

	vehicle, err := utils.ParseVehicleType(req.VehicleType)
	if err != nil {
		writeError(w, r, h.logger, apperrors.ErrInvalidRequest("vehicle_type must be car or bike"))
		return
	}
	start, err := parseTimestamp("start_time", req.StartTime, h.location)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	end, err := parseTimestamp("end_time", req.EndTime, h.location)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	userID, err := auth.ResolveUser(r.Context(), string(req.UserID))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	booking, err := h.Service.CreateBooking(r.Context(), service.BookingRequest{
		SlotID:       req.SlotID,
		UserID:       userID,
		VehicleType:  vehicle,
		StartTime:    start,
		EndTime:      end,
		ContactEmail: req.Email,
		ContactPhone: req.Phone,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.bookingResponse(*booking))
}

func (h *UserReservationHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	var req CancelBookingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, r, h.logger, validationError(err))
		return
	}
	userID, err := auth.ResolveUser(r.Context(), string(req.UserID))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.Service.CancelBooking(r.Context(), req.BookingID, userID); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Booking cancelled"})
}

func (h *UserReservationHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.ResolveUser(r.Context(), r.URL.Query().Get("user_id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	bookings, err := h.Service.ListUserBookings(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	resp := make([]BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		resp = append(resp, h.bookingResponse(b))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *UserReservationHandler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Service: "parking-slots"})
}

func (h *UserReservationHandler) bookingResponse(b db.Booking) BookingResponse {
	var name string
	if slot, err := h.Service.Registry().GetSlot(b.SlotID); err == nil {
		name = slot.Name
	}
	return newBookingResponse(b, name, h.location)
}
