// theia/routes/user.go
package routes

import (
	"encoding/json"
	"net/http"
	"strconv"

	"theia/theia/config"
	"theia/theia/controllers"
	"theia/theia/middlewares"
	"theia/theia/utils/types"

	"github.com/go-chi/chi/v5"
)

// generic wrapper to reduce boilerplate
func handleJSON(handler func(r *http.Request) (any, int, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, status, err := handler(r)
		if err != nil {
			http.Error(w, err.Error(), status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(res)
	}
}

func requestUserID(r *http.Request) (int, bool) {
	id, ok := r.Context().Value(middlewares.UserIDKey).(int)
	return id, ok
}

func UserRoutes(ctrl *controllers.UserController, cfg config.Config) chi.Router {
	r := chi.NewRouter()

	r.Group(func(gr chi.Router) {
		gr.Use(middlewares.AuthMiddleware(cfg))

		gr.Get("/fetch/{user_id}", handleJSON(func(r *http.Request) (any, int, error) {
			idStr := chi.URLParam(r, "user_id")
			id, err := strconv.Atoi(idStr)
			if err != nil {
				return nil, http.StatusBadRequest, err
			}
			user, err := ctrl.GetUser(r.Context(), id)
			if err != nil {
				return nil, http.StatusInternalServerError, err
			}
			return user, http.StatusOK, nil
		}))

		gr.Get("/me", handleJSON(func(r *http.Request) (any, int, error) {
			id, ok := requestUserID(r)
			if !ok {
				return nil, http.StatusUnauthorized, nil
			}
			user, err := ctrl.GetUser(r.Context(), id)
			if err != nil {
				return nil, http.StatusInternalServerError, err
			}
			return user, http.StatusOK, nil
		}))

		gr.Get("/me/model", handleJSON(func(r *http.Request) (any, int, error) {
			id, ok := requestUserID(r)
			if !ok {
				return nil, http.StatusUnauthorized, nil
			}
			settings, err := ctrl.GetModelSettings(r.Context(), id)
			if err != nil {
				return nil, http.StatusInternalServerError, err
			}
			return settings, http.StatusOK, nil
		}))

		gr.Put("/me/model", handleJSON(func(r *http.Request) (any, int, error) {
			id, ok := requestUserID(r)
			if !ok {
				return nil, http.StatusUnauthorized, nil
			}
			var req types.UpdateModelRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				return nil, http.StatusBadRequest, err
			}
			if err := ctrl.UpdateSelectedModel(r.Context(), id, req.ModelID); err != nil {
				return nil, http.StatusInternalServerError, err
			}
			return map[string]string{"selected_model": req.ModelID}, http.StatusOK, nil
		}))
	})

	r.Post("/create", handleJSON(func(r *http.Request) (any, int, error) {
		var req types.CreateUserRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, http.StatusBadRequest, err
		}
		user, err := ctrl.CreateUser(r.Context(), req.Username, req.Email, req.FullName)
		if err != nil {
			return nil, http.StatusInternalServerError, err
		}
		return user, http.StatusOK, nil
	}))

	return r
}
