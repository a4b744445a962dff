package tests

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/koinonia/core/contact"
)

func Test_contactApi(t *testing.T) {
	app := setup(t)

	adminToken := getToken(t, "admin", true)
	plainToken := getToken(t, "hero", false)

	// create
	prefAt := time.Date(2024, 12, 10, 9, 0, 0, 0, time.UTC)
	body := marchallObj(t, contact.NewContact{
		Name:          "Ana Lima",
		Email:         "Ana@test.cd",
		Phone:         "+243 999 000 111",
		Channel:       contact.ChannelBoth,
		LeadDays:      3,
		PreferredTime: null.TimeFrom(prefAt),
	})
	req, rec := newAuthRequest(http.MethodPost, "/v1/contacts", adminToken, body)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create failed! code = %v; body = %s", rec.Code, rec.Body.String())
	}
	var ana contact.Contact
	if err := json.Unmarshal(rec.Body.Bytes(), &ana); err != nil {
		t.Fatalf("json.Unmarshal() failed: %v", err)
	}
	if ana.ID == "" || !ana.IsActive || ana.Email != "ana@test.cd" || ana.Phone != "+243 999 000 111" {
		t.Errorf("unexpected contact: %+v", ana)
	}
	if !ana.PreferredTime.Valid || !ana.PreferredTime.Time.Equal(prefAt) {
		t.Errorf("preferred time not persisted: %+v", ana.PreferredTime)
	}

	tests := []httpTest{
		{name: "auth required", method: http.MethodGet, path: "/v1/contacts",
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "admin required", method: http.MethodGet, path: "/v1/contacts", token: plainToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{name: "create: empty payload", method: http.MethodPost, path: "/v1/contacts", token: adminToken,
			body:     marchallObj(t, contact.NewContact{}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"name":      "this field is required",
				"channel":   "this field is required",
				"lead_days": "this field is required",
			})},
		{name: "create: name uniqueness is case-insensitive", method: http.MethodPost, path: "/v1/contacts", token: adminToken,
			body:     marchallObj(t, contact.NewContact{Name: "ana lima", Channel: contact.ChannelEmail, LeadDays: 1}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"name": "a contact with this name already exists"})},
		{name: "create: bad phone", method: http.MethodPost, path: "/v1/contacts", token: adminToken,
			body:     marchallObj(t, contact.NewContact{Name: "Rui Costa", Phone: "lol", Channel: contact.ChannelEmail, LeadDays: 1}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"phone": "enter a valid phone number"})},
		{name: "query", method: http.MethodGet, path: "/v1/contacts", token: adminToken,
			wantCode: http.StatusOK, wantData: marchallList(t, ana)},
		{name: "query: search miss", method: http.MethodGet, path: "/v1/contacts?search=lol", token: adminToken,
			wantCode: http.StatusOK, wantData: marchallList(t, []interface{}{}...)},
		{name: "retrieve", method: http.MethodGet, path: "/v1/contacts/" + ana.ID, token: adminToken,
			wantCode: http.StatusOK, wantData: marchallObj(t, ana)},
		{name: "retrieve: not found", method: http.MethodGet, path: "/v1/contacts/lol", token: adminToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	// deactivate; an omitted preferred_time keeps the stored one
	inactive := false
	body = marchallObj(t, contact.UpdateContact{IsActive: &inactive})
	req, rec = newAuthRequest(http.MethodPut, "/v1/contacts/"+ana.ID, adminToken, body)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("update failed! code = %v; body = %s", rec.Code, rec.Body.String())
	}
	var updated contact.Contact
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatalf("json.Unmarshal() failed: %v", err)
	}
	if updated.IsActive || updated.Name != ana.Name || updated.LeadDays != ana.LeadDays {
		t.Errorf("unexpected contact: %+v", updated)
	}
	if !updated.PreferredTime.Valid || !updated.PreferredTime.Time.Equal(prefAt) {
		t.Errorf("preferred time not preserved: %+v", updated.PreferredTime)
	}

	// reschedule the preferred dispatch time
	newPref := time.Date(2024, 12, 10, 18, 30, 0, 0, time.UTC)
	body = marchallObj(t, contact.UpdateContact{PreferredTime: null.TimeFrom(newPref)})
	req, rec = newAuthRequest(http.MethodPut, "/v1/contacts/"+ana.ID, adminToken, body)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("update failed! code = %v; body = %s", rec.Code, rec.Body.String())
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatalf("json.Unmarshal() failed: %v", err)
	}
	if !updated.PreferredTime.Valid || !updated.PreferredTime.Time.Equal(newPref) {
		t.Errorf("preferred time not updated: %+v", updated.PreferredTime)
	}

	// destroy
	req, rec = newAuthRequest(http.MethodDelete, "/v1/contacts/"+ana.ID, adminToken)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("destroy failed! code = %v; body = %s", rec.Code, rec.Body.String())
	}
	req, rec = newAuthRequest(http.MethodGet, "/v1/contacts/"+ana.ID, adminToken)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("contact not deleted! code = %v", rec.Code)
	}
}
