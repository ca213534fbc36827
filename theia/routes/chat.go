// theia/routes/chat.go
package routes

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"theia/theia/config"
	"theia/theia/controllers"
	"theia/theia/middlewares"
	"theia/theia/services/events"
	"theia/theia/utils/types"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
)

func ChatRoutes(ctrl *controllers.ChatController, bus *events.Bus, cfg config.Config) chi.Router {
	r := chi.NewRouter()
	r.Group(func(gr chi.Router) {
		gr.Use(middlewares.AuthMiddleware(cfg))

		// POST /chat/ : start a new conversation
		gr.Post("/", handleJSON(func(r *http.Request) (any, int, error) {
			userID, ok := requestUserID(r)
			if !ok {
				return nil, http.StatusUnauthorized, nil
			}
			summary, err := ctrl.CreateSession(r.Context(), userID)
			if err != nil {
				return nil, http.StatusInternalServerError, err
			}
			return summary, http.StatusCreated, nil
		}))

		// GET /chat/sessions : list the user's conversations
		gr.Get("/sessions", handleJSON(func(r *http.Request) (any, int, error) {
			userID, ok := requestUserID(r)
			if !ok {
				return nil, http.StatusUnauthorized, nil
			}
			sessions, err := ctrl.ListSessions(r.Context(), userID)
			if err != nil {
				return nil, http.StatusInternalServerError, err
			}
			return sessions, http.StatusOK, nil
		}))

		// GET /chat/{chat_id} : current session snapshot (opens the session)
		gr.Get("/{chat_id}", handleJSON(func(r *http.Request) (any, int, error) {
			userID, ok := requestUserID(r)
			if !ok {
				return nil, http.StatusUnauthorized, nil
			}
			state, err := ctrl.GetState(r.Context(), userID, chi.URLParam(r, "chat_id"))
			if err != nil {
				return nil, chatErrStatus(err), err
			}
			return state, http.StatusOK, nil
		}))

		// POST /chat/{chat_id}/messages : one submission cycle
		gr.Post("/{chat_id}/messages", handleJSON(func(r *http.Request) (any, int, error) {
			userID, ok := requestUserID(r)
			if !ok {
				return nil, http.StatusUnauthorized, nil
			}
			var req types.SubmitRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				return nil, http.StatusBadRequest, err
			}
			state, err := ctrl.SubmitMessage(r.Context(), userID, chi.URLParam(r, "chat_id"), req)
			if err != nil {
				return nil, chatErrStatus(err), err
			}
			return state, http.StatusOK, nil
		}))

		// GET /chat/{chat_id}/messages : persisted history
		gr.Get("/{chat_id}/messages", handleJSON(func(r *http.Request) (any, int, error) {
			userID, ok := requestUserID(r)
			if !ok {
				return nil, http.StatusUnauthorized, nil
			}
			msgs, err := ctrl.GetMessages(r.Context(), userID, chi.URLParam(r, "chat_id"))
			if err != nil {
				return nil, chatErrStatus(err), err
			}
			return msgs, http.StatusOK, nil
		}))

		// PATCH /chat/{chat_id}/title : manual rename
		gr.Patch("/{chat_id}/title", func(w http.ResponseWriter, r *http.Request) {
			userID, ok := requestUserID(r)
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			var req types.RenameChatRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			if strings.TrimSpace(req.Title) == "" {
				http.Error(w, "title is empty", http.StatusBadRequest)
				return
			}
			if err := ctrl.RenameChat(r.Context(), userID, chi.URLParam(r, "chat_id"), req.Title); err != nil {
				http.Error(w, err.Error(), chatErrStatus(err))
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})

		// DELETE /chat/{chat_id}
		gr.Delete("/{chat_id}", func(w http.ResponseWriter, r *http.Request) {
			userID, ok := requestUserID(r)
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if err := ctrl.DeleteChat(r.Context(), userID, chi.URLParam(r, "chat_id")); err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})

		// POST /chat/{chat_id}/attachments : multipart file upload
		gr.Post("/{chat_id}/attachments", func(w http.ResponseWriter, r *http.Request) {
			userID, ok := requestUserID(r)
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			file, header, err := r.FormFile("file")
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			defer file.Close()
			key, err := ctrl.UploadAttachment(r.Context(), userID, chi.URLParam(r, "chat_id"),
				header.Filename, header.Header.Get("Content-Type"), file, header.Size)
			if err != nil {
				http.Error(w, err.Error(), chatErrStatus(err))
				return
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{"key": key})
		})

		// GET /chat/{chat_id}/attachments/* : stream one back
		gr.Get("/{chat_id}/attachments/*", func(w http.ResponseWriter, r *http.Request) {
			userID, ok := requestUserID(r)
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			key := chi.URLParam(r, "*")
			body, err := ctrl.GetAttachment(r.Context(), userID, chi.URLParam(r, "chat_id"), key)
			if err != nil {
				http.Error(w, err.Error(), chatErrStatus(err))
				return
			}
			defer body.Close()
			io.Copy(w, body)
		})
	})

	// GET /chat/ws : title-update feed. The first frame carries the token,
	// after which the server pushes every title change for chats the user
	// owns until the client disconnects.
	r.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusInternalError, "internal error")

		ctx := r.Context()
		typ, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		if typ != websocket.MessageText {
			conn.Close(websocket.StatusUnsupportedData, "unsupported data")
			return
		}
		var input struct {
			Token string `json:"token"`
		}
		if err := json.Unmarshal(data, &input); err != nil {
			conn.Write(ctx, websocket.MessageText, []byte(`{"error":"invalid json"}`))
			return
		}
		userID, ok := middlewares.ParseUserToken(input.Token, cfg.JWTSecret)
		if !ok {
			conn.Write(ctx, websocket.MessageText, []byte(`{"error":"invalid token"}`))
			conn.Close(websocket.StatusPolicyViolation, "invalid token")
			return
		}

		// Bus callbacks run on the publisher's goroutine; hand updates to
		// this handler through a buffered channel so a slow client never
		// stalls the title generator. Updates are dropped when the buffer
		// is full; the client can always re-fetch the chat list.
		updates := make(chan types.TitleUpdate, 16)
		unsubscribe := bus.Subscribe(func(u types.TitleUpdate) {
			select {
			case updates <- u:
			default:
			}
		})
		defer unsubscribe()

		// Detect client disconnect.
		readDone := make(chan struct{})
		go func() {
			defer close(readDone)
			for {
				if _, _, err := conn.Read(ctx); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case <-ctx.Done():
				conn.Close(websocket.StatusNormalClosure, "")
				return
			case <-readDone:
				return
			case u := <-updates:
				if !ctrl.OwnsChat(ctx, userID, u.ChatID) {
					continue
				}
				payload, err := json.Marshal(u)
				if err != nil {
					continue
				}
				if err := conn.Write(ctx, websocket.MessageText, payload); err != nil {
					return
				}
			}
		}
	})
	return r
}

// chatErrStatus maps ownership failures to 404 and everything else to 500.
func chatErrStatus(err error) int {
	if err == controllers.ErrChatNotFound || err.Error() == controllers.ErrChatNotFound.Error() {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
