package handler

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

const (
	// maxImageBytes bounds a single uploaded review image.
	maxImageBytes = 5 << 20
	// maxMultipartMemory caps the whole multipart request: 5 images at 5MB
	// plus headroom for the text fields.
	maxMultipartMemory = 26 << 20
)

// addReview attaches a review (comment, rating, up to 5 JPEG images) to an
// order. Image bytes are held fully in memory for the duration of the
// request.
func (h *Handler) addReview(w http.ResponseWriter, r *http.Request) {
	orderID, ok := h.orderIDParam(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxMultipartMemory)
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		h.writeErrorStatus(w, r, http.StatusBadRequest, "malformed multipart body")
		return
	}

	rating, err := strconv.Atoi(r.FormValue("rating"))
	if err != nil {
		h.writeErrorStatus(w, r, http.StatusBadRequest, "rating must be an integer")
		return
	}
	comment := r.FormValue("comment")

	var images [][]byte
	if r.MultipartForm != nil {
		files := r.MultipartForm.File["images"]
		for i, fh := range files {
			if fh.Size > maxImageBytes {
				h.writeErrorStatus(w, r, http.StatusBadRequest,
					fmt.Sprintf("image %d exceeds the 5MB limit", i))
				return
			}
			f, err := fh.Open()
			if err != nil {
				h.writeErrorStatus(w, r, http.StatusBadRequest, "unreadable image upload")
				return
			}
			data, err := io.ReadAll(f)
			_ = f.Close()
			if err != nil {
				h.writeErrorStatus(w, r, http.StatusBadRequest, "unreadable image upload")
				return
			}
			images = append(images, data)
		}
	}

	if err := h.orders.AddReview(r.Context(), currentUserID(r.Context()), orderID, comment, rating, images); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusCreated, map[string]any{
		"comment": comment,
		"rating":  rating,
		"images":  len(images),
	})
}

// deleteReview clears an order's review and images.
func (h *Handler) deleteReview(w http.ResponseWriter, r *http.Request) {
	orderID, ok := h.orderIDParam(w, r)
	if !ok {
		return
	}

	if err := h.orders.DeleteReview(r.Context(), currentUserID(r.Context()), orderID); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// reviewImage serves one review image as raw bytes. Uploads are stored
// verbatim and served as JPEG; arbitrary formats are not detected or
// converted.
func (h *Handler) reviewImage(w http.ResponseWriter, r *http.Request) {
	orderID, ok := h.orderIDParam(w, r)
	if !ok {
		return
	}

	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		h.writeErrorStatus(w, r, http.StatusBadRequest, "image index must be an integer")
		return
	}

	data, err := h.orders.ReviewImage(r.Context(), currentUserID(r.Context()), orderID, index)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
