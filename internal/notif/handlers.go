package notif

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"nirala/internal/common"
)

// NotificationHandler exposes the router to the signed-in user over REST.
type NotificationHandler struct {
	router *Router
	log    zerolog.Logger
}

func NewNotificationHandler(router *Router, log zerolog.Logger) *NotificationHandler {
	return &NotificationHandler{
		router: router,
		log:    log.With().Str("component", "notification_handler").Logger(),
	}
}

func (h *NotificationHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/notifications", h.List).Methods(http.MethodGet)
	r.HandleFunc("/notifications/unread/count", h.UnreadCount).Methods(http.MethodGet)
	r.HandleFunc("/notifications/mark-all-read", h.MarkAllRead).Methods(http.MethodPost)
	r.HandleFunc("/notifications/{id:[0-9]+}/read", h.MarkRead).Methods(http.MethodPost)
	r.HandleFunc("/notifications/preferences", h.GetPreferences).Methods(http.MethodGet)
	r.HandleFunc("/notifications/preferences", h.UpdatePreferences).Methods(http.MethodPut)
	r.HandleFunc("/notifications/devices", h.RegisterDevice).Methods(http.MethodPost)
	r.HandleFunc("/notifications/devices/{token}", h.RemoveDevice).Methods(http.MethodDelete)
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		common.WriteError(w, common.ErrUnauthorized, h.log)
		return
	}
	limit, err := common.QueryInt(r, "limit", 0)
	if err != nil {
		common.WriteError(w, err, h.log)
		return
	}
	unread, err := common.QueryBool(r, "unread")
	if err != nil {
		common.WriteError(w, err, h.log)
		return
	}

	list, err := h.router.List(r.Context(), userID, ListOptions{
		Limit:      limit,
		Category:   r.URL.Query().Get("category"),
		UnreadOnly: unread,
	})
	if err != nil {
		common.WriteError(w, err, h.log)
		return
	}
	common.WriteJSON(w, http.StatusOK, map[string]interface{}{"notifications": list})
}

func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		common.WriteError(w, common.ErrUnauthorized, h.log)
		return
	}
	count, err := h.router.UnreadCount(r.Context(), userID, r.URL.Query().Get("category"))
	if err != nil {
		common.WriteError(w, err, h.log)
		return
	}
	common.WriteJSON(w, http.StatusOK, map[string]int64{"count": count})
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		common.WriteError(w, common.ErrUnauthorized, h.log)
		return
	}
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		common.WriteError(w, common.ErrValidation, h.log)
		return
	}

	n, err := h.router.MarkRead(r.Context(), uint(id), userID)
	if err != nil {
		common.WriteError(w, err, h.log)
		return
	}
	common.WriteJSON(w, http.StatusOK, map[string]interface{}{"success": true, "notification": n})
}

func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		common.WriteError(w, common.ErrUnauthorized, h.log)
		return
	}
	updated, err := h.router.MarkAllRead(r.Context(), userID)
	if err != nil {
		common.WriteError(w, err, h.log)
		return
	}
	common.WriteJSON(w, http.StatusOK, map[string]interface{}{"success": true, "updated": updated})
}

func (h *NotificationHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		common.WriteError(w, common.ErrUnauthorized, h.log)
		return
	}
	prefs, err := h.router.GetPreferences(r.Context(), userID)
	if err != nil {
		common.WriteError(w, err, h.log)
		return
	}
	common.WriteJSON(w, http.StatusOK, map[string]interface{}{"preferences": prefs})
}

func (h *NotificationHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		common.WriteError(w, common.ErrUnauthorized, h.log)
		return
	}
	var req UpdatePreferencesRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err, h.log)
		return
	}

	prefs, err := h.router.UpdatePreferences(r.Context(), userID, req)
	if err != nil {
		common.WriteError(w, err, h.log)
		return
	}
	common.WriteJSON(w, http.StatusOK, map[string]interface{}{"preferences": prefs})
}

func (h *NotificationHandler) RegisterDevice(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		common.WriteError(w, common.ErrUnauthorized, h.log)
		return
	}
	var req RegisterDeviceRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err, h.log)
		return
	}

	device, err := h.router.RegisterDevice(r.Context(), userID, req)
	if err != nil {
		common.WriteError(w, err, h.log)
		return
	}
	common.WriteJSON(w, http.StatusCreated, map[string]interface{}{"device": device})
}

func (h *NotificationHandler) RemoveDevice(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		common.WriteError(w, common.ErrUnauthorized, h.log)
		return
	}
	if err := h.router.RemoveDevice(r.Context(), userID, mux.Vars(r)["token"]); err != nil {
		common.WriteError(w, err, h.log)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
