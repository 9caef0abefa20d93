package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/productvision/catalog/internal/catalog"
	"github.com/productvision/catalog/internal/similarity"
)

// Upload limits, matching the original catalog constraints.
const (
	maxUploadSize = 32 << 20
	maxImageCount = 5
	maxImageSize  = 5 << 20
)

var allowedImageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
}

// UploadHandler handles product creation with duplicate detection.
type UploadHandler struct {
	store    *catalog.Store
	scanner  *similarity.Scanner
	imageDir string
}

// NewUploadHandler creates a new upload handler.
func NewUploadHandler(store *catalog.Store, scanner *similarity.Scanner, imageDir string) *UploadHandler {
	return &UploadHandler{
		store:    store,
		scanner:  scanner,
		imageDir: imageDir,
	}
}

// Create handles the multipart product upload. The uploaded images are
// checked against the existing catalog first; a hit returns the candidates
// without creating anything, unless the confirmed flag is set.
func (h *UploadHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}

	productName := r.FormValue("product_name")
	productCategory := r.FormValue("product_category")
	productPrice := r.FormValue("product_price")
	if productName == "" || productCategory == "" || productPrice == "" {
		respondError(w, http.StatusBadRequest, "product_name, product_category and product_price are required")
		return
	}

	files := r.MultipartForm.File["product_images"]
	if len(files) < 1 || len(files) > maxImageCount {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("upload between 1 and %d images", maxImageCount))
		return
	}

	tempDir, err := os.MkdirTemp("", "catalog-upload-*")
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create temp directory")
		return
	}
	defer os.RemoveAll(tempDir)

	tempPaths, err := saveUploadedImages(files, tempDir)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if r.FormValue("confirmed") != "true" {
		isDup, candidates := h.scanner.CheckDuplicate(r.Context(), tempPaths, similarity.DefaultDuplicateThreshold, false)
		if isDup {
			respondJSON(w, http.StatusConflict, map[string]any{
				"duplicate_detected": true,
				"similar_products":   candidates,
				"message":            "similar products found; resubmit with confirmed=true to create anyway",
			})
			return
		}
	}

	id := catalog.NewProductID()
	imageNames, err := h.placeImages(id, tempPaths)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to store images")
		return
	}

	rec := catalog.ProductRecord{
		ProductName: productName,
		Category:    productCategory,
		Price:       productPrice,
		RawImages:   imageNames,
	}
	if err := h.store.Write(id, &rec); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to write product")
		return
	}

	respondJSON(w, http.StatusCreated, rec)
}

// saveUploadedImages writes multipart files to a directory and returns their
// paths, rejecting disallowed extensions and oversized files.
func saveUploadedImages(files []*multipart.FileHeader, dir string) ([]string, error) {
	var paths []string
	for i, fileHeader := range files {
		ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
		if !allowedImageExtensions[ext] {
			return nil, fmt.Errorf("file type %s is not allowed", ext)
		}
		if fileHeader.Size > maxImageSize {
			return nil, fmt.Errorf("file %s is too large (max 5MB)", filepath.Base(fileHeader.Filename))
		}

		src, err := fileHeader.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open uploaded file %s", filepath.Base(fileHeader.Filename))
		}

		path := filepath.Join(dir, fmt.Sprintf("upload_%d%s", i, ext))
		dst, err := os.Create(path)
		if err != nil {
			src.Close()
			return nil, fmt.Errorf("failed to save uploaded file")
		}
		_, err = io.Copy(dst, src)
		src.Close()
		dst.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to save uploaded file")
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// placeImages moves the accepted uploads into the image directory under
// their final product-keyed names and returns those names.
func (h *UploadHandler) placeImages(id string, tempPaths []string) ([]string, error) {
	if err := os.MkdirAll(h.imageDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating image directory: %w", err)
	}

	names := make([]string, 0, len(tempPaths))
	for i, tempPath := range tempPaths {
		name := fmt.Sprintf("%s_%d%s", id, i, filepath.Ext(tempPath))
		if err := moveFile(tempPath, filepath.Join(h.imageDir, name)); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}

// moveFile renames when possible and falls back to a copy, since the temp
// directory can live on a different filesystem.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copying to %s: %w", dst, err)
	}
	return out.Close()
}
