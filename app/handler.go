package main

import (
	"errors"
	"net/http"

	"github.com/sushihentaime/codestar/internal/common"
	"github.com/sushihentaime/codestar/internal/engagement"
)

func (app *application) listPostsHandler(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := app.readLimitOffsetParams(r, app.config.PageSize)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	posts, err := app.postService.ListPublished(r.Context(), offset, limit)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"posts": posts}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) showPostHandler(w http.ResponseWriter, r *http.Request) {
	view, err := app.engagement.ViewPost(r.Context(), app.readSlugParam(r), app.getUserContext(r))
	if err != nil {
		app.engagementErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"view": view}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

type createCommentRequest struct {
	Body string `json:"body"`
}

func (app *application) createCommentHandler(w http.ResponseWriter, r *http.Request) {
	var input createCommentRequest

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	view, err := app.engagement.SubmitComment(r.Context(), app.readSlugParam(r), app.getUserContext(r), input.Body)
	if err != nil {
		var vErr common.ValidationError
		if errors.As(err, &vErr) {
			app.failedFormResponse(w, r, vErr, view)
			return
		}
		app.engagementErrorResponse(w, r, err)
		return
	}

	env := envelope{"view": view, "message": "your comment has been submitted and is awaiting moderation"}
	err = app.writeJSON(w, http.StatusCreated, env, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) toggleLikeHandler(w http.ResponseWriter, r *http.Request) {
	view, err := app.engagement.LikeToggle(r.Context(), app.readSlugParam(r), app.getUserContext(r))
	if err != nil {
		app.engagementErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"view": view}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) engagementErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, common.ErrRecordNotFound):
		app.notFoundErrorResponse(w, r)
	case errors.Is(err, engagement.ErrAuthenticationRequired):
		app.authenticationRequiredResponse(w, r)
	case errors.Is(err, common.ErrConflict):
		app.editConflictResponse(w, r)
	default:
		app.serverErrorResponse(w, r, err)
	}
}
