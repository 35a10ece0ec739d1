package main

import (
	"context"
	"net/http"
	"time"
)

// healthCheckHandler reports 503 when the database does not answer a ping.
func (app *application) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	status, code := "available", http.StatusOK

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	database := "up"
	if err := app.db.PingContext(ctx); err != nil {
		app.logError(r, err)
		status, code, database = "unavailable", http.StatusServiceUnavailable, "down"
	}

	env := envelope{
		"status": status,
		"system_info": map[string]string{
			"environment": app.config.Environment,
			"version":     app.config.Version,
			"database":    database,
		},
	}

	err := app.writeJSON(w, code, env, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
