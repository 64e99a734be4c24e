package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"depot-hub/dto"
	"depot-hub/service"
)

func CheckInHandler(svc service.CheckInService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.CheckInRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
			return
		}

		ctx := c.Request.Context()
		record, err := svc.CheckIn(ctx, req.EmployeeID, req.Name)
		if err != nil {
			if errors.Is(err, service.ErrAlreadyCheckedIn) {
				c.JSON(http.StatusBadRequest, dto.ErrorResponse{
					Error: fmt.Sprintf("Employee %s is already checked in", req.EmployeeID),
				})
				return
			}
			internalError(c, err, "check-in failed")
			return
		}

		c.JSON(http.StatusOK, dto.RecordResponse{
			Message: fmt.Sprintf("Check-in successful for %s", record.Name),
			Record:  record,
		})
	}
}

func CheckOutHandler(svc service.CheckInService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.CheckOutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
			return
		}

		ctx := c.Request.Context()
		record, err := svc.CheckOut(ctx, req.EmployeeID)
		if err != nil {
			if errors.Is(err, service.ErrNotCheckedIn) {
				c.JSON(http.StatusBadRequest, dto.ErrorResponse{
					Error: fmt.Sprintf("Employee %s is not currently checked in", req.EmployeeID),
				})
				return
			}
			internalError(c, err, "check-out failed")
			return
		}

		c.JSON(http.StatusOK, dto.RecordResponse{
			Message: fmt.Sprintf("Check-out successful for %s", record.Name),
			Record:  record,
		})
	}
}

func TodayRecordsHandler(svc service.CheckInService) gin.HandlerFunc {
	return func(c *gin.Context) {
		records, err := svc.TodayRecords(c.Request.Context())
		if err != nil {
			internalError(c, err, "failed to list today's records")
			return
		}
		c.JSON(http.StatusOK, records)
	}
}

func StaffStatusHandler(svc service.CheckInService) gin.HandlerFunc {
	return func(c *gin.Context) {
		snapshot, err := svc.StatusSnapshot(c.Request.Context())
		if err != nil {
			internalError(c, err, "failed to build staff status")
			return
		}
		c.JSON(http.StatusOK, snapshot)
	}
}

// DepotCheckInHandler covers both methods on the depot check-in route: GET
// lists every record, POST registers a new visitor.
func DepotCheckInHandler(svc service.CheckInService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		if c.Request.Method == http.MethodGet {
			records, err := svc.ListAll(ctx)
			if err != nil {
				internalError(c, err, "failed to list depot records")
				return
			}
			c.JSON(http.StatusOK, dto.DepotListResponse{
				Success: true,
				Count:   len(records),
				Records: records,
			})
			return
		}

		var req dto.DepotCheckInRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, dto.DepotErrorResponse{Success: false, Error: err.Error()})
			return
		}

		record, err := svc.DepotCheckIn(ctx, req.Company, req.Name, req.Reason)
		if err != nil {
			if errors.Is(err, service.ErrDuplicateRegistration) {
				c.JSON(http.StatusBadRequest, dto.DepotErrorResponse{
					Success: false,
					Error:   "You are already registered!",
				})
				return
			}
			internalError(c, err, "depot check-in failed")
			return
		}

		c.JSON(http.StatusCreated, dto.DepotRecordResponse{
			Success: true,
			Message: fmt.Sprintf("Check-in successful for %s", record.Name),
			Record:  record,
		})
	}
}

func DepotCheckOutHandler(svc service.CheckInService) gin.HandlerFunc {
	return func(c *gin.Context) {
		recordID, ok := recordIDParam(c)
		if !ok {
			return
		}

		record, err := svc.DepotCheckOut(c.Request.Context(), recordID)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrRecordNotFound):
				c.JSON(http.StatusNotFound, dto.DepotErrorResponse{
					Success: false,
					Error:   "Check-in record not found",
				})
			case errors.Is(err, service.ErrAlreadyCheckedOut):
				c.JSON(http.StatusBadRequest, dto.DepotErrorResponse{
					Success: false,
					Error:   "This visitor is already checked out",
				})
			default:
				internalError(c, err, "depot check-out failed")
			}
			return
		}

		c.JSON(http.StatusOK, dto.DepotRecordResponse{
			Success: true,
			Message: fmt.Sprintf("Check-out successful for %s", record.Name),
			Record:  record,
		})
	}
}

func DepotReCheckInHandler(svc service.CheckInService) gin.HandlerFunc {
	return func(c *gin.Context) {
		recordID, ok := recordIDParam(c)
		if !ok {
			return
		}

		record, err := svc.DepotReCheckIn(c.Request.Context(), recordID)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrRecordNotFound):
				c.JSON(http.StatusNotFound, dto.DepotErrorResponse{
					Success: false,
					Error:   "Check-in record not found",
				})
			case errors.Is(err, service.ErrAlreadyCheckedIn):
				c.JSON(http.StatusBadRequest, dto.DepotErrorResponse{
					Success: false,
					Error:   "This visitor is already checked in",
				})
			default:
				internalError(c, err, "depot re-check-in failed")
			}
			return
		}

		c.JSON(http.StatusOK, dto.DepotRecordResponse{
			Success: true,
			Message: fmt.Sprintf("Re-check-in successful for %s", record.Name),
			Record:  record,
		})
	}
}

func recordIDParam(c *gin.Context) (uint, bool) {
	raw := c.Param("id")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.DepotErrorResponse{
			Success: false,
			Error:   fmt.Sprintf("invalid record id %q", raw),
		})
		return 0, false
	}
	return uint(id), true
}

// internalError logs the real cause and returns a generic message; internal
// detail never leaks past the boundary.
func internalError(c *gin.Context, err error, msg string) {
	zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg(msg)
	c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Internal server error"})
}
