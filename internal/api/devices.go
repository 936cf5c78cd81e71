package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/qrqwqeqt/GoF-Patt/internal/device"
	"github.com/qrqwqeqt/GoF-Patt/internal/formdata"
	"github.com/qrqwqeqt/GoF-Patt/internal/infrastructure/objectstore"
)

const (
	// imagesField is the multipart field carrying device pictures.
	imagesField = "images"

	// defaultMaxImages caps attachments per request when unconfigured.
	defaultMaxImages = 10

	// defaultMaxUploadBytes caps multipart bodies when unconfigured (50 MB).
	defaultMaxUploadBytes = 50 << 20

	// multipartMemory is held in memory before parts spill to temp files.
	multipartMemory = 32 << 20

	deviceNotFoundMsg = "device not found"
)

// handleCreateDevice lists a new device for the caller.
//
// The body is multipart/form-data: scalar and JSON-encoded fields plus up to
// ten "images" file parts. Parts whose content type is not image/* are
// silently dropped.
func (s *Server) handleCreateDevice(w http.ResponseWriter, r *http.Request) {
	fields, blobs, err := s.parseDeviceForm(r)
	if err != nil {
		writeFormError(w, err)
		return
	}

	d, err := s.devices.Create(r.Context(), fields, blobs, callerID(r))
	if err != nil {
		s.writeServiceError(w, r, err, deviceNotFoundMsg)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "device added",
		"device":  d,
	})
}

// handleGetDevice returns a single device with its owner's contact details.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	view, err := s.devices.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err, deviceNotFoundMsg)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleListOwnerDevices returns the caller's own devices.
func (s *Server) handleListOwnerDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := s.devices.ListByOwner(r.Context(), callerID(r))
	if err != nil {
		s.writeServiceError(w, r, err, deviceNotFoundMsg)
		return
	}
	if devices == nil {
		devices = []device.Device{}
	}
	writeJSON(w, http.StatusOK, devices)
}

// handleListDevices returns all devices, with optional query filters.
//
// Query parameters:
//   - manufacturer: exact manufacturer
//   - condition: exact condition
//   - available: "true" hides devices currently in rent
//   - minPrice, maxPrice: inclusive price bounds
//   - town: owner's town, case-insensitive
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	filter, err := parseDeviceFilter(r.URL.Query())
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	views, err := s.devices.List(r.Context(), filter)
	if err != nil {
		s.writeServiceError(w, r, err, deviceNotFoundMsg)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

// handleUpdateDevice applies a partial update to one of the caller's devices.
// The body may be JSON or a form; form values are coerced like on create.
func (s *Server) handleUpdateDevice(w http.ResponseWriter, r *http.Request) {
	updates, err := decodeUpdates(r)
	if err != nil {
		writeFormError(w, err)
		return
	}

	updated, err := s.devices.Update(r.Context(), chi.URLParam(r, "id"), updates, callerID(r))
	if err != nil {
		s.writeServiceError(w, r, err, deviceNotFoundMsg)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":       "device updated",
		"updatedDevice": updated,
	})
}

// handleDeleteDevice removes one of the caller's devices and its images.
func (s *Server) handleDeleteDevice(w http.ResponseWriter, r *http.Request) {
	if err := s.devices.Delete(r.Context(), chi.URLParam(r, "id"), callerID(r)); err != nil {
		s.writeServiceError(w, r, err, deviceNotFoundMsg)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "device deleted"})
}

// parseDeviceForm reads the create-device body. A urlencoded body is
// accepted too and yields no attachments.
func (s *Server) parseDeviceForm(r *http.Request) (map[string]string, []objectstore.Blob, error) {
	err := r.ParseMultipartForm(multipartMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		if err := r.ParseForm(); err != nil {
			return nil, nil, fmt.Errorf("invalid form body: %w", err)
		}
		return firstValues(r.PostForm), nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("invalid multipart body: %w", err)
	}
	defer r.MultipartForm.RemoveAll() //nolint:errcheck // temp file cleanup is best-effort

	headers := r.MultipartForm.File[imagesField]
	if limit := s.maxImages(); len(headers) > limit {
		return nil, nil, fmt.Errorf("at most %d images allowed", limit)
	}

	blobs := make([]objectstore.Blob, 0, len(headers))
	for _, fh := range headers {
		contentType := fh.Header.Get("Content-Type")
		if !isImage(contentType) {
			s.logger.Debug("dropping non-image attachment", "filename", fh.Filename, "content_type", contentType)
			continue
		}
		data, err := readPart(fh)
		if err != nil {
			return nil, nil, err
		}
		blobs = append(blobs, objectstore.Blob{
			Filename:    fh.Filename,
			ContentType: contentType,
			Data:        data,
		})
	}

	return firstValues(r.MultipartForm.Value), blobs, nil
}

func (s *Server) maxImages() int {
	if s.devCfg.MaxImages > 0 {
		return s.devCfg.MaxImages
	}
	return defaultMaxImages
}

// decodeUpdates reads an update body as a JSON object or as form values.
func decodeUpdates(r *http.Request) (map[string]any, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")) //nolint:errcheck // empty type falls through to JSON

	switch mediaType {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			return nil, fmt.Errorf("invalid multipart body: %w", err)
		}
		defer r.MultipartForm.RemoveAll() //nolint:errcheck // temp file cleanup is best-effort
		return formdata.Coerce(firstValues(r.MultipartForm.Value)), nil
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return nil, fmt.Errorf("invalid form body: %w", err)
		}
		return formdata.Coerce(firstValues(r.PostForm)), nil
	default:
		var updates map[string]any
		if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
			return nil, fmt.Errorf("invalid JSON body: %w", err)
		}
		if updates == nil {
			return nil, errors.New("update body must be a JSON object")
		}
		return updates, nil
	}
}

// parseDeviceFilter builds a listing filter from query parameters.
func parseDeviceFilter(q url.Values) (device.Filter, error) {
	filter := device.Filter{
		Manufacturer: q.Get("manufacturer"),
		Condition:    q.Get("condition"),
		Town:         q.Get("town"),
	}

	if v := q.Get("available"); v != "" {
		available, err := strconv.ParseBool(v)
		if err != nil {
			return filter, errors.New("available must be true or false")
		}
		filter.AvailableOnly = available
	}

	for _, bound := range []struct {
		name string
		dst  **float64
	}{
		{"minPrice", &filter.MinPrice},
		{"maxPrice", &filter.MaxPrice},
	} {
		v := q.Get(bound.name)
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return filter, fmt.Errorf("%s must be a number", bound.name)
		}
		*bound.dst = &f
	}

	return filter, nil
}

// writeFormError answers a body that could not be read: 413 when it was
// cut off by the size limit, 400 otherwise.
func writeFormError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, ErrCodeTooLarge,
			fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
		return
	}
	writeBadRequest(w, err.Error())
}

func isImage(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(contentType), "image/")
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", fh.Filename, err)
	}
	return data, nil
}

// firstValues flattens form values, keeping the first value of each key.
func firstValues(values map[string][]string) map[string]string {
	out := make(map[string]string, len(values))
	for k, v := range values {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}
