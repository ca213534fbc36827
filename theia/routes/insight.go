// theia/routes/insight.go
package routes

import (
	"encoding/json"
	"net/http"

	"theia/theia/config"
	"theia/theia/controllers"
	"theia/theia/middlewares"
	"theia/theia/utils/types"

	"github.com/go-chi/chi/v5"
)

func InsightRoutes(ctrl *controllers.InsightController, cfg config.Config) chi.Router {
	r := chi.NewRouter()
	r.Group(func(gr chi.Router) {
		gr.Use(middlewares.AuthMiddleware(cfg))

		// POST /insights/ : save either literal content or a stored message by id
		gr.Post("/", handleJSON(func(r *http.Request) (any, int, error) {
			userID, ok := requestUserID(r)
			if !ok {
				return nil, http.StatusUnauthorized, nil
			}
			var req types.SaveInsightRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				return nil, http.StatusBadRequest, err
			}
			if req.MessageID != "" {
				insight, err := ctrl.SaveInsightFromMessage(r.Context(), userID, req.ChatID, req.MessageID)
				if err != nil {
					return nil, chatErrStatus(err), err
				}
				return insight, http.StatusCreated, nil
			}
			insight, err := ctrl.SaveInsight(r.Context(), userID, req.Content)
			if err != nil {
				return nil, http.StatusBadRequest, err
			}
			return insight, http.StatusCreated, nil
		}))

		gr.Get("/", handleJSON(func(r *http.Request) (any, int, error) {
			userID, ok := requestUserID(r)
			if !ok {
				return nil, http.StatusUnauthorized, nil
			}
			insights, err := ctrl.ListInsights(r.Context(), userID)
			if err != nil {
				return nil, http.StatusInternalServerError, err
			}
			return insights, http.StatusOK, nil
		}))

		gr.Delete("/{insight_id}", func(w http.ResponseWriter, r *http.Request) {
			userID, ok := requestUserID(r)
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if err := ctrl.DeleteInsight(r.Context(), chi.URLParam(r, "insight_id"), userID); err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})
	})
	return r
}
