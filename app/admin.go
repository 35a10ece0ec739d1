package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/sushihentaime/codestar/internal/commentservice"
	"github.com/sushihentaime/codestar/internal/common"
	"github.com/sushihentaime/codestar/internal/postservice"
)

func (app *application) listAdminPostsHandler(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := app.readLimitOffsetParams(r, postservice.DefaultPageSize)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	filter := postservice.PostFilter{
		Search: r.URL.Query().Get("q"),
		Limit:  limit,
		Offset: offset,
	}

	if s := r.URL.Query().Get("status"); s != "" {
		status, err := postservice.ParseStatus(s)
		if err != nil {
			app.badRequestErrorResponse(w, r, err)
			return
		}
		filter.Status = &status
	}

	posts, err := app.postService.ListPosts(r.Context(), filter)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"posts": posts}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

type createPostRequest struct {
	Title         string `json:"title"`
	Slug          string `json:"slug"`
	Content       string `json:"content"`
	Excerpt       string `json:"excerpt"`
	FeaturedImage string `json:"featured_image"`
}

func (app *application) createPostHandler(w http.ResponseWriter, r *http.Request) {
	var input createPostRequest

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	user := app.getUserContext(r)

	post, err := app.postService.CreatePost(r.Context(), &postservice.CreatePostRequest{
		Title:         input.Title,
		Slug:          input.Slug,
		AuthorID:      user.ID,
		Content:       input.Content,
		Excerpt:       input.Excerpt,
		FeaturedImage: input.FeaturedImage,
	})
	if err != nil {
		app.storeErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusCreated, envelope{"post": post}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) showAdminPostHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	post, err := app.postService.GetPostByID(r.Context(), id)
	if err != nil {
		app.storeErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"post": post}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) updatePostHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	var input postservice.UpdatePostRequest

	err = app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	post, err := app.postService.UpdatePost(r.Context(), id, &input)
	if err != nil {
		app.storeErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"post": post}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) deletePostHandler(w http.ResponseWriter, r *http.Request) {
	app.postActionHandler(w, r, app.postService.DeletePost, "post deleted")
}

func (app *application) publishPostHandler(w http.ResponseWriter, r *http.Request) {
	app.postActionHandler(w, r, app.postService.PublishPost, "post published")
}

func (app *application) unpublishPostHandler(w http.ResponseWriter, r *http.Request) {
	app.postActionHandler(w, r, app.postService.UnpublishPost, "post unpublished")
}

func (app *application) postActionHandler(w http.ResponseWriter, r *http.Request, action func(ctx context.Context, id int) error, message string) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	err = action(r.Context(), id)
	if err != nil {
		app.storeErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": message}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// storeErrorResponse maps errors from the post and comment services.
func (app *application) storeErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	var vErr common.ValidationError

	switch {
	case errors.Is(err, common.ErrRecordNotFound):
		app.notFoundErrorResponse(w, r)
	case errors.As(err, &vErr):
		app.failedValidationErrorResponse(w, r, vErr.Errors)
	case errors.Is(err, postservice.ErrDuplicateSlug):
		app.duplicateErrorResponse(w, r, "slug", "a post with this slug already exists")
	case errors.Is(err, postservice.ErrDuplicateTitle):
		app.duplicateErrorResponse(w, r, "title", "a post with this title already exists")
	case errors.Is(err, postservice.ErrAuthorForeignKey):
		app.unAuthorizedErrorResponse(w, r)
	case errors.Is(err, common.ErrConflict):
		app.editConflictResponse(w, r)
	default:
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) listCommentsHandler(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := app.readLimitOffsetParams(r, commentservice.DefaultPageSize)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	approved, err := app.readBoolParam(r, "approved")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	comments, err := app.commentService.ListComments(r.Context(), commentservice.CommentFilter{
		Approved: approved,
		Search:   r.URL.Query().Get("q"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"comments": comments}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) approveCommentHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	err = app.commentService.Approve(r.Context(), id)
	if err != nil {
		app.storeErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "comment approved"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

type approveCommentsRequest struct {
	IDs []int `json:"ids"`
}

func (app *application) approveCommentsHandler(w http.ResponseWriter, r *http.Request) {
	var input approveCommentsRequest

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	err = app.commentService.ApproveMany(r.Context(), input.IDs)
	if err != nil {
		app.storeErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "comments approved"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) deleteCommentHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	err = app.commentService.DeleteComment(r.Context(), id)
	if err != nil {
		app.storeErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "comment deleted"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
