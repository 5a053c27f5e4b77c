package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jakechorley/timegrid/pkg/core/services"
	"github.com/jakechorley/timegrid/pkg/core/suggestion"
)

type submitVotesRequest struct {
	UserID string               `json:"userId" binding:"required"`
	Votes  []services.VoteInput `json:"votes" binding:"dive"`
}

type submitVotesResponse struct {
	*services.SubmitVotesResult
	LearningError string `json:"learningError,omitempty"`
}

func (h *handlers) syncUser(ctx *gin.Context) (any, *Error) {
	var req services.SyncUserInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, badRequest(err)
	}

	result, err := services.SyncUser(ctx.Request.Context(), h.store, h.logger, req)
	if err != nil {
		return nil, fromError(h.logger, ctx, err)
	}
	return result, nil
}

func (h *handlers) createEvent(ctx *gin.Context) (any, *Error) {
	var req services.CreateEventInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, badRequest(err)
	}

	result, err := services.CreateEvent(ctx.Request.Context(), h.store, h.logger, req)
	if err != nil {
		return nil, fromError(h.logger, ctx, err)
	}
	return result, nil
}

func (h *handlers) listEvents(ctx *gin.Context) (any, *Error) {
	events, err := services.ListEvents(ctx.Request.Context(), h.store, h.logger)
	if err != nil {
		return nil, fromError(h.logger, ctx, err)
	}
	return events, nil
}

func (h *handlers) getEvent(ctx *gin.Context) (any, *Error) {
	event, err := services.GetEvent(ctx.Request.Context(), h.store, h.logger, ctx.Param("id"))
	if err != nil {
		return nil, fromError(h.logger, ctx, err)
	}
	return event, nil
}

func (h *handlers) eventResults(ctx *gin.Context) (any, *Error) {
	results, err := services.GetEventResults(ctx.Request.Context(), h.store, h.logger, ctx.Param("id"))
	if err != nil {
		return nil, fromError(h.logger, ctx, err)
	}
	return results, nil
}

func (h *handlers) submitVotes(ctx *gin.Context) (any, *Error) {
	var req submitVotesRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, badRequest(err)
	}

	result, err := services.SubmitVotes(ctx.Request.Context(), h.store, h.logger, h.policy, ctx.Param("id"), req.UserID, req.Votes)
	if err != nil {
		return nil, fromError(h.logger, ctx, err)
	}

	resp := submitVotesResponse{SubmitVotesResult: result}
	if result.Learned.Err != nil {
		resp.LearningError = "patterns could not be updated"
	}
	return resp, nil
}

func (h *handlers) suggestions(ctx *gin.Context) (any, *Error) {
	userID := ctx.Query("userId")
	if userID == "" {
		return nil, badRequest(errors.New("userId query parameter is required"))
	}

	suggestions, err := services.GetSuggestions(ctx.Request.Context(), h.store, h.logger, userID, ctx.Param("id"))
	if err != nil {
		return nil, fromError(h.logger, ctx, err)
	}
	if suggestions == nil {
		suggestions = []suggestion.Suggestion{}
	}
	return suggestions, nil
}

func (h *handlers) listPatterns(ctx *gin.Context) (any, *Error) {
	result, err := services.ListPatterns(ctx.Request.Context(), h.store, h.logger, ctx.Param("id"))
	if err != nil {
		return nil, fromError(h.logger, ctx, err)
	}
	return result, nil
}

func (h *handlers) exportPatterns(ctx *gin.Context) {
	userID := ctx.Param("id")

	out, err := services.ExportPatterns(ctx.Request.Context(), h.store, h.logger, userID)
	if err != nil {
		apiErr := fromError(h.logger, ctx, err)
		ctx.JSON(apiErr.Code, envelope{Success: false, Error: apiErr.Message})
		return
	}

	ctx.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", userID+".ics"))
	ctx.Data(http.StatusOK, "text/calendar; charset=utf-8", out)
}
