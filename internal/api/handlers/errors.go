package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/stitts-dev/lineup-optimizer/internal/ingest"
	"github.com/stitts-dev/lineup-optimizer/internal/models"
	"github.com/stitts-dev/lineup-optimizer/internal/optimizer"
	"github.com/stitts-dev/lineup-optimizer/pkg/utils"
)

// optimizationError maps optimizer sentinels onto envelope error codes
func optimizationError(err error) *utils.AppError {
	switch {
	case errors.Is(err, optimizer.ErrInvalidPool), errors.Is(err, optimizer.ErrInvalidConstraints):
		return utils.NewAppError(utils.ErrCodeValidation, "Invalid optimization request", err.Error())
	case errors.Is(err, optimizer.ErrNoStackAvailable):
		return utils.NewAppError(utils.ErrCodeNoStack, "No stack available for team", err.Error())
	case errors.Is(err, optimizer.ErrDeadlineExceeded):
		return utils.NewAppError(utils.ErrCodeTimeout, "Optimization timed out before any lineup was found", err.Error())
	case errors.Is(err, optimizer.ErrInfeasible):
		return utils.NewAppError(utils.ErrCodeInfeasible, "No feasible lineup", err.Error())
	case errors.Is(err, optimizer.ErrAssignment):
		return utils.NewAppError(utils.ErrCodeInvalidLineup, "Produced lineup failed validation", err.Error())
	default:
		return utils.NewAppError(utils.ErrCodeOptimization, "Optimization failed", err.Error())
	}
}

// slateError reports a slate that could not be loaded or parsed
func slateError(err error) *utils.AppError {
	if errors.Is(err, ingest.ErrMissingColumn) || errors.Is(err, ingest.ErrSlateTooLarge) || errors.Is(err, models.ErrInvalidPool) {
		return utils.NewAppError(utils.ErrCodeSlateMalformed, "Slate is malformed", err.Error())
	}
	return utils.NewAppError(utils.ErrCodeSlateUnavailable, "Slate unavailable", err.Error())
}

func sendOptimizationError(c *gin.Context, err error) {
	utils.SendError(c, optimizationError(err))
}

func sendSlateError(c *gin.Context, err error) {
	utils.SendError(c, slateError(err))
}
