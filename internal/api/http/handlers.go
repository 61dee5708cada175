package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"time"

	"coffee-menu/internal/domain"
	"coffee-menu/internal/logging"
	"coffee-menu/internal/service"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	Menu  service.MenuServiceInterface
	views *Views
	log   logrus.FieldLogger
}

type pageData struct {
	Title    string
	Menu     []domain.MenuItem
	MenuItem *domain.MenuItem
}

func NewHandler(menu service.MenuServiceInterface, views *Views, log logrus.FieldLogger) *Handler {
	return &Handler{
		Menu:  menu,
		views: views,
		log:   log.WithField("component", "http"),
	}
}

// RegisterRoutes installs the page routes. The fixed /menu/... paths are
// registered before /menu/{id} so they win the match.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.healthCheck).Methods("GET")

	r.HandleFunc("/", h.listMenu).Methods("GET")
	r.HandleFunc("/menu/add", h.addForm).Methods("GET")
	r.HandleFunc("/menu/add", h.addMenuItem).Methods("POST")
	r.HandleFunc("/menu/edit/{id}", h.editForm).Methods("GET")
	r.HandleFunc("/menu/edit/{id}", h.editMenuItem).Methods("POST")
	r.HandleFunc("/menu/delete/{id}", h.deleteMenuItem).Methods("GET")
	r.HandleFunc("/menu/{id}/qrcode", h.getMenuItemQRCode).Methods("GET")
	r.HandleFunc("/menu/{id}", h.getMenuItem).Methods("GET")
}

// healthCheck pings the store. An unreachable store answers 503.
func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status, store, code := "healthy", "ok", http.StatusOK
	if err := h.Menu.Ping(ctx); err != nil {
		logging.FromContext(r.Context(), h.log).WithError(err).Warn("store ping failed")
		status, store, code = "unhealthy", "unreachable", http.StatusServiceUnavailable
	}

	response := map[string]interface{}{
		"status":    status,
		"service":   "coffee-menu",
		"store":     store,
		"timestamp": time.Now().Format(time.RFC3339),
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(response)
}

func (h *Handler) listMenu(w http.ResponseWriter, r *http.Request) {
	items, err := h.Menu.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, "index", pageData{Title: "Home", Menu: items})
}

func (h *Handler) addForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "menu-add", pageData{Title: "Add Coffee Menu"})
}

func (h *Handler) addMenuItem(w http.ResponseWriter, r *http.Request) {
	form, err := readMenuForm(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if _, err := h.Menu.Add(r.Context(), form); err != nil {
		h.fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *Handler) editForm(w http.ResponseWriter, r *http.Request) {
	item, err := h.Menu.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, "menu-edit", pageData{Title: "Edit Coffee Menu", MenuItem: item})
}

func (h *Handler) editMenuItem(w http.ResponseWriter, r *http.Request) {
	form, err := readMenuForm(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.Menu.Update(r.Context(), mux.Vars(r)["id"], form); err != nil {
		h.fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *Handler) deleteMenuItem(w http.ResponseWriter, r *http.Request) {
	if err := h.Menu.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *Handler) getMenuItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.Menu.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, "menu-item", pageData{Title: "Coffee Menu Item", MenuItem: item})
}

func (h *Handler) getMenuItemQRCode(w http.ResponseWriter, r *http.Request) {
	qrCode, err := h.Menu.QRCode(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	w.Write(qrCode)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, page string, data pageData) {
	if err := h.views.Render(w, page, data); err != nil {
		h.fail(w, r, fmt.Errorf("render %s: %w", page, err))
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidID), errors.Is(err, domain.ErrInvalidPrice):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, "Menu item not found", http.StatusNotFound)
	default:
		logging.FromContext(r.Context(), h.log).WithError(err).
			WithField("path", r.URL.Path).Error("request failed")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// readMenuForm accepts a urlencoded form or a JSON object. JSON prices may
// be numbers or strings.
func readMenuForm(r *http.Request) (domain.MenuItemForm, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return domain.MenuItemForm{}, fmt.Errorf("invalid JSON body: %w", err)
		}
		return domain.MenuItemForm{
			Name:        jsonField(body["name"]),
			Description: jsonField(body["description"]),
			Price:       jsonField(body["price"]),
			Image:       jsonField(body["image"]),
		}, nil
	}

	if err := r.ParseForm(); err != nil {
		return domain.MenuItemForm{}, fmt.Errorf("invalid form body: %w", err)
	}
	return domain.MenuItemForm{
		Name:        r.PostForm.Get("name"),
		Description: r.PostForm.Get("description"),
		Price:       r.PostForm.Get("price"),
		Image:       r.PostForm.Get("image"),
	}, nil
}

func jsonField(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	default:
		return fmt.Sprint(val)
	}
}
