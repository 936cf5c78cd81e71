package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/qrqwqeqt/GoF-Patt/internal/auth"
	"github.com/qrqwqeqt/GoF-Patt/internal/device"
	"github.com/qrqwqeqt/GoF-Patt/internal/infrastructure/objectstore"
)

func TestCreateDevice(t *testing.T) {
	env := newTestEnv(t)
	ownerID, token := env.register(t, "owner@example.com")

	files := []testFile{
		pngFile("front view.png"),
		{name: "manual.pdf", contentType: "application/pdf", data: []byte("%PDF")},
		pngFile("back.png"),
	}
	w := env.do(createDeviceRequest(t, token, deviceFields(2), files))
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		Message string        `json:"message"`
		Device  device.Device `json:"device"`
	}
	decodeJSON(t, w, &resp)

	d := resp.Device
	if resp.Message == "" || d.ID == "" {
		t.Fatalf("response = %+v", resp)
	}
	if d.OwnerID != ownerID {
		t.Errorf("ownerId = %q, want %q", d.OwnerID, ownerID)
	}
	if d.Price != 500 || d.TypeA != 2 || d.Weight != 3.5 || !d.PolicyAgreement || d.IsInRent {
		t.Errorf("coerced fields = %+v", d)
	}
	if d.Dimensions.Length != "24" {
		t.Errorf("dimensions = %+v", d.Dimensions)
	}
	if len(d.Images) != 2 {
		t.Fatalf("images = %d, want 2 (pdf dropped)", len(d.Images))
	}
	if !strings.HasPrefix(d.Images[0].URL, imageBaseURL) || !strings.HasSuffix(d.Images[0].URL, "-frontview.png") {
		t.Errorf("image url = %q", d.Images[0].URL)
	}
	if d.Images[1].Width != 800 || d.Images[1].Height != 600 {
		t.Errorf("image dims = %+v", d.Images[1])
	}
	if env.blobs.count() != 2 {
		t.Errorf("stored blobs = %d, want 2", env.blobs.count())
	}
}

func TestCreateDevice_CallerCannotChooseOwner(t *testing.T) {
	env := newTestEnv(t)
	ownerID, token := env.register(t, "owner@example.com")

	fields := deviceFields(0)
	fields["ownerId"] = "usr-someone-else"
	fields["isInRent"] = "true"
	w := env.do(createDeviceRequest(t, token, fields, nil))
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		Device device.Device `json:"device"`
	}
	decodeJSON(t, w, &resp)
	if resp.Device.OwnerID != ownerID || resp.Device.IsInRent {
		t.Errorf("device = %+v", resp.Device)
	}
}

func TestCreateDevice_Rejected(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.register(t, "owner@example.com")

	missingTitle := deviceFields(1)
	delete(missingTitle, "title")

	tooMany := make([]testFile, 11)
	for i := range tooMany {
		tooMany[i] = pngFile("img.png")
	}

	tests := []struct {
		name   string
		token  string
		fields map[string]string
		files  []testFile
		want   int
	}{
		{"no token", "", deviceFields(1), []testFile{pngFile("a.png")}, http.StatusUnauthorized},
		{"missing title", token, missingTitle, []testFile{pngFile("a.png")}, http.StatusBadRequest},
		{"dimension count mismatch", token, deviceFields(2), []testFile{pngFile("a.png")}, http.StatusBadRequest},
		{"more than ten images", token, deviceFields(11), tooMany, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(createDeviceRequest(t, tt.token, tt.fields, tt.files))
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", w.Code, tt.want, w.Body.String())
			}
			if env.blobs.count() != 0 {
				t.Errorf("blobs uploaded for rejected request: %d", env.blobs.count())
			}
		})
	}
}

func TestCreateDevice_BodyTooLarge(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.register(t, "owner@example.com")

	big := testFile{name: "huge.png", contentType: "image/png", data: make([]byte, 2<<20)}
	w := env.do(createDeviceRequest(t, token, deviceFields(1), []testFile{big}))
	if w.Code != http.StatusRequestEntityTooLarge && w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 413 or 400", w.Code)
	}
	if env.blobs.count() != 0 {
		t.Errorf("blobs = %d, want 0", env.blobs.count())
	}
}

func TestGetDevice(t *testing.T) {
	env := newTestEnv(t)
	ownerID, token := env.register(t, "owner@example.com")
	town, phone := "Lviv", "+380501112233"
	if _, err := env.accounts.UpdateUser(context.Background(), ownerID, auth.ProfileUpdate{Town: &town, PhoneNumber: &phone}); err != nil {
		t.Fatalf("UpdateUser() error = %v", err)
	}
	created := env.createDevice(t, token)

	w := env.do(httptest.NewRequest(http.MethodGet, "/api/devices/getDevice/"+created.ID, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var view device.View
	decodeJSON(t, w, &view)
	if view.ID != created.ID || view.Owner == nil {
		t.Fatalf("view = %+v", view)
	}
	if view.Owner.Town != "Lviv" || view.Owner.PhoneNumber != phone || view.Owner.Name != "Olena" {
		t.Errorf("owner = %+v", view.Owner)
	}

	w = env.do(httptest.NewRequest(http.MethodGet, "/api/devices/getDevice/dev-missing", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("missing device status = %d, want 404", w.Code)
	}
	var apiErr Error
	decodeJSON(t, w, &apiErr)
	if apiErr.Status != http.StatusNotFound || apiErr.Code != ErrCodeNotFound {
		t.Errorf("error body = %+v", apiErr)
	}
}

func TestListOwnerDevices(t *testing.T) {
	env := newTestEnv(t)
	_, tokenA := env.register(t, "a@example.com")
	_, tokenB := env.register(t, "b@example.com")
	env.createDevice(t, tokenA)
	env.createDevice(t, tokenA)
	env.createDevice(t, tokenB)

	w := env.do(jsonRequest(t, http.MethodGet, "/api/devices/getOwnerDevices", tokenA, nil))
	var devices []device.Device
	decodeJSON(t, w, &devices)
	if len(devices) != 2 {
		t.Errorf("owner A devices = %d, want 2", len(devices))
	}

	_, tokenC := env.register(t, "c@example.com")
	w = env.do(jsonRequest(t, http.MethodGet, "/api/devices/getOwnerDevices", tokenC, nil))
	if body := strings.TrimSpace(w.Body.String()); body != "[]" {
		t.Errorf("empty owner body = %s, want []", body)
	}
}

func TestListDevices_Filters(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	lvivID, lvivToken := env.register(t, "lviv@example.com")
	kyivID, kyivToken := env.register(t, "kyiv@example.com")
	for id, town := range map[string]string{lvivID: "Lviv", kyivID: "Kyiv"} {
		if _, err := env.accounts.UpdateUser(ctx, id, auth.ProfileUpdate{Town: &town}); err != nil {
			t.Fatalf("UpdateUser() error = %v", err)
		}
	}

	cheap := env.createDevice(t, lvivToken)
	expensive := env.createDevice(t, kyivToken)
	w := env.do(jsonRequest(t, http.MethodPut, "/api/devices/updateDevice/"+expensive.ID, kyivToken,
		map[string]any{"price": 1500, "manufacturer": "Bluetti"}))
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d", w.Code)
	}

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"all", "", []string{cheap.ID, expensive.ID}},
		{"max price", "?maxPrice=1000", []string{cheap.ID}},
		{"min price", "?minPrice=1000", []string{expensive.ID}},
		{"manufacturer", "?manufacturer=Bluetti", []string{expensive.ID}},
		{"town", "?town=lviv", []string{cheap.ID}},
		{"available", "?available=true", []string{cheap.ID, expensive.ID}},
		{"no match", "?town=Odesa", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(httptest.NewRequest(http.MethodGet, "/api/devices/getAllDevices"+tt.query, nil))
			if w.Code != http.StatusOK {
				t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
			}
			var views []device.View
			decodeJSON(t, w, &views)
			if len(views) != len(tt.want) {
				t.Fatalf("got %d devices, want %d", len(views), len(tt.want))
			}
			got := make(map[string]bool, len(views))
			for _, v := range views {
				got[v.ID] = true
				if v.Owner == nil || v.Owner.Town == "" || v.Owner.PhoneNumber != "" {
					t.Errorf("listing owner projection = %+v", v.Owner)
				}
			}
			for _, id := range tt.want {
				if !got[id] {
					t.Errorf("missing device %s", id)
				}
			}
		})
	}
}

func TestListDevices_InvalidQuery(t *testing.T) {
	env := newTestEnv(t)

	for _, q := range []string{"?minPrice=cheap", "?maxPrice=", "?available=maybe"} {
		w := env.do(httptest.NewRequest(http.MethodGet, "/api/devices/getAllDevices"+q, nil))
		want := http.StatusBadRequest
		if q == "?maxPrice=" {
			want = http.StatusOK
		}
		if w.Code != want {
			t.Errorf("%s status = %d, want %d", q, w.Code, want)
		}
	}
}

func TestUpdateDevice(t *testing.T) {
	env := newTestEnv(t)
	_, ownerToken := env.register(t, "owner@example.com")
	_, otherToken := env.register(t, "other@example.com")
	d := env.createDevice(t, ownerToken)
	target := "/api/devices/updateDevice/" + d.ID

	t.Run("owner JSON update", func(t *testing.T) {
		w := env.do(jsonRequest(t, http.MethodPut, target, ownerToken, map[string]any{
			"price":      750,
			"dimensions": map[string]any{"height": "15"},
			"ownerId":    "usr-thief",
			"unknown":    "ignored",
		}))
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
		}
		var resp struct {
			Message string        `json:"message"`
			Updated device.Device `json:"updatedDevice"`
		}
		decodeJSON(t, w, &resp)
		if resp.Updated.Price != 750 || resp.Updated.OwnerID != d.OwnerID {
			t.Errorf("updated = %+v", resp.Updated)
		}
		if resp.Updated.Dimensions.Height != "15" || resp.Updated.Dimensions.Length != "24" {
			t.Errorf("dimensions = %+v", resp.Updated.Dimensions)
		}
	})

	t.Run("owner form update", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, target, strings.NewReader(url.Values{
			"price":    {"800"},
			"isInRent": {"true"},
		}.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Authorization", "Bearer "+ownerToken)
		w := env.do(req)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
		}
		var resp struct {
			Updated device.Device `json:"updatedDevice"`
		}
		decodeJSON(t, w, &resp)
		if resp.Updated.Price != 800 || !resp.Updated.IsInRent {
			t.Errorf("updated = %+v", resp.Updated)
		}
	})

	tests := []struct {
		name   string
		target string
		token  string
		body   any
		want   int
	}{
		{"other user", target, otherToken, map[string]any{"price": 1}, http.StatusForbidden},
		{"missing device", "/api/devices/updateDevice/dev-missing", ownerToken, map[string]any{"price": 1}, http.StatusNotFound},
		{"negative price", target, ownerToken, map[string]any{"price": -5}, http.StatusBadRequest},
		{"not an object", target, ownerToken, []int{1, 2}, http.StatusBadRequest},
		{"no token", target, "", map[string]any{"price": 1}, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(jsonRequest(t, http.MethodPut, tt.target, tt.token, tt.body))
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", w.Code, tt.want, w.Body.String())
			}
		})
	}

	w := env.do(httptest.NewRequest(http.MethodGet, "/api/devices/getDevice/"+d.ID, nil))
	var view device.View
	decodeJSON(t, w, &view)
	if view.Price != 800 {
		t.Errorf("price after rejected updates = %v, want 800", view.Price)
	}
}

func TestDeleteDevice(t *testing.T) {
	env := newTestEnv(t)
	_, ownerToken := env.register(t, "owner@example.com")
	_, otherToken := env.register(t, "other@example.com")
	d := env.createDevice(t, ownerToken)
	target := "/api/devices/deleteDevice/" + d.ID

	w := env.do(jsonRequest(t, http.MethodDelete, target, otherToken, nil))
	if w.Code != http.StatusForbidden {
		t.Fatalf("other user status = %d, want 403", w.Code)
	}
	if env.blobs.count() != 1 {
		t.Fatalf("blobs after forbidden delete = %d, want 1", env.blobs.count())
	}

	w = env.do(jsonRequest(t, http.MethodDelete, target, ownerToken, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("owner status = %d, body = %s", w.Code, w.Body.String())
	}
	if env.blobs.count() != 0 {
		t.Errorf("blobs after delete = %d, want 0", env.blobs.count())
	}

	w = env.do(httptest.NewRequest(http.MethodGet, "/api/devices/getDevice/"+d.ID, nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", w.Code)
	}
	w = env.do(jsonRequest(t, http.MethodDelete, target, ownerToken, nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("second delete = %d, want 404", w.Code)
	}
}

func TestDeleteDevice_BlobFailureKeepsDocument(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.register(t, "owner@example.com")
	d := env.createDevice(t, token)

	env.blobs.deleteErr = errors.New("s3 down")
	w := env.do(jsonRequest(t, http.MethodDelete, "/api/devices/deleteDevice/"+d.ID, token, nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	var apiErr Error
	decodeJSON(t, w, &apiErr)
	if strings.Contains(apiErr.Message, "s3 down") {
		t.Errorf("internal error leaked: %q", apiErr.Message)
	}

	w = env.do(httptest.NewRequest(http.MethodGet, "/api/devices/getDevice/"+d.ID, nil))
	if w.Code != http.StatusOK {
		t.Errorf("device should survive failed blob delete, got %d", w.Code)
	}
}

func TestGetImage(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.register(t, "owner@example.com")
	d := env.createDevice(t, token)

	key, err := objectstore.KeyFromLocator(d.Images[0].URL)
	if err != nil {
		t.Fatalf("KeyFromLocator() error = %v", err)
	}

	w := env.do(httptest.NewRequest(http.MethodGet, "/api/images/"+url.PathEscape(key), nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got := w.Header().Get("Content-Type"); got != "image/png" {
		t.Errorf("Content-Type = %q", got)
	}
	if !strings.HasPrefix(w.Body.String(), "\x89PNG") {
		t.Errorf("body = %q", w.Body.String())
	}

	w = env.do(httptest.NewRequest(http.MethodGet, "/api/images/missing.png", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("missing image status = %d, want 404", w.Code)
	}
}

func TestParseDeviceFilter(t *testing.T) {
	f, err := parseDeviceFilter(url.Values{
		"manufacturer": {"EcoFlow"},
		"available":    {"true"},
		"minPrice":     {"10.5"},
		"town":         {"Lviv"},
	})
	if err != nil {
		t.Fatalf("parseDeviceFilter() error = %v", err)
	}
	if f.Manufacturer != "EcoFlow" || !f.AvailableOnly || f.Town != "Lviv" {
		t.Errorf("filter = %+v", f)
	}
	if f.MinPrice == nil || *f.MinPrice != 10.5 || f.MaxPrice != nil {
		t.Errorf("price bounds = %v / %v", f.MinPrice, f.MaxPrice)
	}
}
