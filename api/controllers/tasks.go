package controllers

import (
	"net/http"
	"strings"

	"github.com/earnpro/rewards-backend/api/responses"
	"github.com/earnpro/rewards-backend/api/validators"
	"github.com/earnpro/rewards-backend/internal/tasks"
	"github.com/earnpro/rewards-backend/pkg/enums"
	pkgerrors "github.com/earnpro/rewards-backend/pkg/errors"
	"github.com/earnpro/rewards-backend/pkg/logger"
)

// TaskList returns tasks, optionally filtered by ?kind=, with the caller's
// completion flags.
func TaskList(svc tasks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tasks service unavailable"))
			return
		}
		accountID, ok := requireAccount(w, r, logg)
		if !ok {
			return
		}
		list, err := svc.List(ctx, tasks.ListInput{
			Kind:      enums.TaskKind(strings.TrimSpace(r.URL.Query().Get("kind"))),
			AccountID: accountID,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// TaskComplete credits the task reward to the caller once.
func TaskComplete(svc tasks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tasks service unavailable"))
			return
		}
		accountID, ok := requireAccount(w, r, logg)
		if !ok {
			return
		}
		taskID, err := uuidParam(r, "taskId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		result, err := svc.Complete(ctx, taskID, accountID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// AdminTaskList returns every task without completion flags.
func AdminTaskList(svc tasks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tasks service unavailable"))
			return
		}
		list, err := svc.List(ctx, tasks.ListInput{
			Kind: enums.TaskKind(strings.TrimSpace(r.URL.Query().Get("kind"))),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func AdminTaskGet(svc tasks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tasks service unavailable"))
			return
		}
		taskID, err := uuidParam(r, "taskId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		task, err := svc.Get(ctx, taskID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, task)
	}
}

func AdminTaskCreate(svc tasks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tasks service unavailable"))
			return
		}
		var body tasks.CreateInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		task, err := svc.Create(ctx, body)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteCreated(w, task)
	}
}

func AdminTaskUpdate(svc tasks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tasks service unavailable"))
			return
		}
		taskID, err := uuidParam(r, "taskId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var body tasks.UpdateInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		task, err := svc.Update(ctx, taskID, body)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, task)
	}
}

func AdminTaskDelete(svc tasks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tasks service unavailable"))
			return
		}
		taskID, err := uuidParam(r, "taskId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if err := svc.Delete(ctx, taskID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

// AdminTaskIncrement bumps the completion counter without crediting anyone.
// A full counter is reported as accepted=false, not an error.
func AdminTaskIncrement(svc tasks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tasks service unavailable"))
			return
		}
		taskID, err := uuidParam(r, "taskId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		result, err := svc.IncrementCompletion(ctx, taskID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
