// theia/routes/context.go
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

func ContextRoutes(ctrl *controllers.ContextController, cfg config.Config) chi.Router {
	r := chi.NewRouter()
	r.Group(func(gr chi.Router) {
		gr.Use(middlewares.AuthMiddleware(cfg))

		gr.Post("/", handleJSON(func(r *http.Request) (any, int, error) {
			userID, ok := requestUserID(r)
			if !ok {
				return nil, http.StatusUnauthorized, nil
			}
			var req types.ContextItemRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				return nil, http.StatusBadRequest, err
			}
			name, content := "", ""
			if req.Name != nil {
				name = *req.Name
			}
			if req.Content != nil {
				content = *req.Content
			}
			item, err := ctrl.CreateContextItem(r.Context(), userID, name, content)
			if err != nil {
				return nil, http.StatusInternalServerError, err
			}
			return item, http.StatusCreated, nil
		}))

		gr.Get("/", handleJSON(func(r *http.Request) (any, int, error) {
			userID, ok := requestUserID(r)
			if !ok {
				return nil, http.StatusUnauthorized, nil
			}
			items, err := ctrl.ListContextItems(r.Context(), userID)
			if err != nil {
				return nil, http.StatusInternalServerError, err
			}
			return items, http.StatusOK, nil
		}))

		gr.Put("/{item_id}", func(w http.ResponseWriter, r *http.Request) {
			userID, ok := requestUserID(r)
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			var req types.ContextItemRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			if err := ctrl.UpdateContextItem(r.Context(), chi.URLParam(r, "item_id"), userID, req.Name, req.Content); err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})

		gr.Delete("/{item_id}", func(w http.ResponseWriter, r *http.Request) {
			userID, ok := requestUserID(r)
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if err := ctrl.DeleteContextItem(r.Context(), chi.URLParam(r, "item_id"), userID); err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})
	})
	return r
}
