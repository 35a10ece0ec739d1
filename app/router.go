package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/sushihentaime/codestar/internal/userservice"
)

func (app *application) routes() http.Handler {
	router := httprouter.New()

	router.NotFound = http.HandlerFunc(app.notFoundErrorResponse)
	router.MethodNotAllowed = http.HandlerFunc(app.methodNotAllowedErrorResponse)

	router.HandlerFunc(http.MethodGet, "/v1/healthcheck", app.healthCheckHandler)

	// reader facing
	router.HandlerFunc(http.MethodGet, "/v1/posts", app.listPostsHandler)
	router.HandlerFunc(http.MethodGet, "/v1/posts/:slug", app.showPostHandler)
	router.HandlerFunc(http.MethodPost, "/v1/posts/:slug/comments", app.requireAuthUser(app.rateLimit(app.createCommentHandler)))
	router.HandlerFunc(http.MethodPost, "/v1/posts/:slug/like", app.requireAuthUser(app.rateLimit(app.toggleLikeHandler)))

	// moderation console
	router.HandlerFunc(http.MethodGet, "/v1/admin/posts", app.requirePermission(app.listAdminPostsHandler, userservice.PermissionWritePost))
	router.HandlerFunc(http.MethodPost, "/v1/admin/posts", app.requirePermission(app.createPostHandler, userservice.PermissionWritePost))
	router.HandlerFunc(http.MethodGet, "/v1/admin/posts/:id", app.requirePermission(app.showAdminPostHandler, userservice.PermissionWritePost))
	router.HandlerFunc(http.MethodPut, "/v1/admin/posts/:id", app.requirePermission(app.updatePostHandler, userservice.PermissionWritePost))
	router.HandlerFunc(http.MethodDelete, "/v1/admin/posts/:id", app.requirePermission(app.deletePostHandler, userservice.PermissionWritePost))
	router.HandlerFunc(http.MethodPut, "/v1/admin/posts/:id/publish", app.requirePermission(app.publishPostHandler, userservice.PermissionWritePost))
	router.HandlerFunc(http.MethodPut, "/v1/admin/posts/:id/unpublish", app.requirePermission(app.unpublishPostHandler, userservice.PermissionWritePost))

	router.HandlerFunc(http.MethodGet, "/v1/admin/comments", app.requirePermission(app.listCommentsHandler, userservice.PermissionModerateComment))
	router.HandlerFunc(http.MethodPost, "/v1/admin/comments/approve", app.requirePermission(app.approveCommentsHandler, userservice.PermissionModerateComment))
	router.HandlerFunc(http.MethodPut, "/v1/admin/comments/:id/approve", app.requirePermission(app.approveCommentHandler, userservice.PermissionModerateComment))
	router.HandlerFunc(http.MethodDelete, "/v1/admin/comments/:id", app.requirePermission(app.deleteCommentHandler, userservice.PermissionModerateComment))

	return app.recoverPanic(app.enableCORS(app.logRequest(app.authenticate(router))))
}
