package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vzahanych/novacast/internal/aggregator"
	"github.com/vzahanych/novacast/internal/forecast"
	"github.com/vzahanych/novacast/internal/server/utils"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type Predictor interface {
	Predict(ctx context.Context, req forecast.Request) (*forecast.Response, error)
}

type PredictHandler struct {
	predictor Predictor
	logger    *zap.Logger
}

func NewPredictHandler(predictor Predictor, logger *zap.Logger) *PredictHandler {
	return &PredictHandler{
		predictor: predictor,
		logger:    logger,
	}
}

func (h *PredictHandler) Predict(c *gin.Context) {
	ctx := utils.RequestContext(c)
	requestID := utils.RequestID(c)

	reqLogger := h.logger.With(zap.String("request_id", requestID))

	var req PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		reqLogger.Warn("Invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request body",
			Code:    "INVALID_BODY",
			Details: err.Error(),
		})
		return
	}

	if validationErrs := utils.ValidateStruct(req); len(validationErrs) > 0 {
		reqLogger.Warn("Invalid request parameters", zap.Any("errors", validationErrs))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request parameters",
			Code:    "INVALID_PARAMS",
			Details: validationErrs,
		})
		return
	}

	reqLogger.Info("Processing predict request",
		zap.Float64("lat", *req.Lat),
		zap.Float64("lon", *req.Lon),
		zap.String("target_date", req.TargetDate),
		zap.Int("horizon_days", req.HorizonDays))

	utils.Span(c).SetAttributes(
		attribute.String("predict.target_date", req.TargetDate),
		attribute.Int("predict.horizon_days", req.HorizonDays),
	)

	resp, err := h.predictor.Predict(ctx, forecast.Request{
		Lat:         *req.Lat,
		Lon:         *req.Lon,
		TargetDate:  req.TargetDate,
		HorizonDays: req.HorizonDays,
	})

	switch {
	case err == nil:
		reqLogger.Info("Predict request completed successfully", zap.Int("days", len(resp.Daily)))
		c.JSON(http.StatusOK, resp)
	case errors.Is(err, aggregator.ErrInvalidTargetDate):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: err.Error(),
			Code:  "INVALID_TARGET_DATE",
		})
	case errors.Is(err, aggregator.ErrPastTargetDate):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: err.Error(),
			Code:  "PAST_TARGET_DATE",
		})
	case errors.Is(err, aggregator.ErrNoForecast):
		reqLogger.Warn("Predictor returned no days")
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: "No daily forecast data available",
			Code:  "NO_FORECAST",
		})
	default:
		reqLogger.Error("Failed to predict weather", zap.Error(err))
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "Server error during prediction",
			Code:    "PREDICTION_ERROR",
			Details: err.Error(),
		})
	}
}
