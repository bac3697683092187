// Package api: HTTP surface of the places directory. BuildRoutes returns a standalone ServeMux that
// cmd/main.go mounts under the API base path.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"places-api/internal/cache"
	"places-api/internal/logger"
	"places-api/internal/store"
)

// PlaceStore: what the handlers need from the store; *store.Store implements it.
type PlaceStore interface {
	Insert(ctx context.Context, p store.Place) (int64, error)
	ListAll(ctx context.Context) ([]store.Place, error)
	FindByName(ctx context.Context, name string) (string, error)
	FindByAddress(ctx context.Context, address string) (string, error)
	ListByCategorySubstring(ctx context.Context, token string) ([]store.Place, error)
	UpdateAddressByName(ctx context.Context, name, address string) (int64, error)
	DeleteByName(ctx context.Context, name string) (bool, error)
}

type handlers struct {
	st    PlaceStore
	cache *cache.Lookup
}

// BuildRoutes registers the place routes. lc may be nil.
func BuildRoutes(st PlaceStore, lc *cache.Lookup) *http.ServeMux {
	h := &handlers{st: st, cache: lc}
	mux := http.NewServeMux()
	mux.Handle("GET /list_all_places", instrument("list_all_places", h.listAll))
	mux.Handle("POST /add_place", instrument("add_place", h.addPlace))
	mux.Handle("GET /place_by_name/{name}", instrument("place_by_name", h.placeByName))
	mux.Handle("GET /place_by_address/{address}", instrument("place_by_address", h.placeByAddress))
	mux.Handle("GET /list_places/{category}", instrument("list_places", h.listPlaces))
	mux.Handle("PUT /update_place/{name}", instrument("update_place", h.updatePlace))
	mux.Handle("DELETE /delete_place/{name}", instrument("delete_place", h.deletePlace))
	return mux
}

func (h *handlers) listAll(w http.ResponseWriter, r *http.Request) {
	places, err := h.st.ListAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(places) == 0 {
		writeError(w, http.StatusNotFound, "The database is empty")
		return
	}
	writeJSON(w, http.StatusOK, places)
}

func (h *handlers) addPlace(w http.ResponseWriter, r *http.Request) {
	var in placeInput
	if err := decodeBody(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	ctx := r.Context()
	id, err := h.st.Insert(ctx, store.Place{Name: in.Name, Category: in.Category, Address: in.Address})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.cache.Invalidate(ctx)
	logger.L().Info("place_added", "id", id, "name", in.Name)
	writeJSON(w, http.StatusCreated, messageResponse{Message: "Place added successfully", ID: id})
}

func (h *handlers) placeByName(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := r.PathValue("name")
	addr, gen, ok := h.cache.Get(ctx, cache.KindName, name)
	if ok {
		writeJSON(w, http.StatusOK, addressResponse{Address: addr})
		return
	}
	addr, err := h.st.FindByName(ctx, name)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Place not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.cache.Set(ctx, gen, cache.KindName, name, addr)
	writeJSON(w, http.StatusOK, addressResponse{Address: addr})
}

func (h *handlers) placeByAddress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	address := r.PathValue("address")
	name, gen, ok := h.cache.Get(ctx, cache.KindAddress, address)
	if ok {
		writeJSON(w, http.StatusOK, nameResponse{Name: name})
		return
	}
	name, err := h.st.FindByAddress(ctx, address)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Place not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.cache.Set(ctx, gen, cache.KindAddress, address, name)
	writeJSON(w, http.StatusOK, nameResponse{Name: name})
}

func (h *handlers) listPlaces(w http.ResponseWriter, r *http.Request) {
	places, err := h.st.ListByCategorySubstring(r.Context(), r.PathValue("category"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(places) == 0 {
		writeError(w, http.StatusNotFound, "No places found for this category")
		return
	}
	writeJSON(w, http.StatusOK, places)
}

func (h *handlers) updatePlace(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	var in updateInput
	if err := decodeBody(w, r, &in); err != nil || in.Address == nil || *in.Address == "" {
		writeError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	ctx := r.Context()
	n, err := h.st.UpdateAddressByName(ctx, name, *in.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if n == 0 {
		writeError(w, http.StatusNotFound, "Place not found")
		return
	}
	h.cache.Invalidate(ctx)
	writeJSON(w, http.StatusOK, messageResponse{Message: fmt.Sprintf("Place '%s' updated successfully", name)})
}

func (h *handlers) deletePlace(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	ctx := r.Context()
	ok, err := h.st.DeleteByName(ctx, name)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "Place not found")
		return
	}
	h.cache.Invalidate(ctx)
	writeJSON(w, http.StatusOK, messageResponse{Message: fmt.Sprintf("Place '%s' deleted successfully", name)})
}
