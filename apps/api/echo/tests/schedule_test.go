package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/trezcool/koinonia/core"
	"github.com/trezcool/koinonia/core/schedule"
)

func Test_scheduleApi(t *testing.T) {
	app := setup(t)

	adminToken := getToken(t, "admin", true)
	today := core.Today()

	// create; kind is lowered and blank roster names are dropped
	body := marchallObj(t, schedule.NewEvent{
		Kind:          "Service",
		Title:         "Sunday Worship",
		Date:          today.AddDate(0, 0, 2),
		AssignedNames: []string{"Ana Lima", "  "},
		Published:     true,
	})
	req, rec := newAuthRequest(http.MethodPost, "/v1/events", adminToken, body)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create failed! code = %v; body = %s", rec.Code, rec.Body.String())
	}
	var evt schedule.Event
	if err := json.Unmarshal(rec.Body.Bytes(), &evt); err != nil {
		t.Fatalf("json.Unmarshal() failed: %v", err)
	}
	if evt.ID == "" || evt.Kind != schedule.KindService || !evt.Published {
		t.Errorf("unexpected event: %+v", evt)
	}
	if len(evt.AssignedNames) != 1 || evt.AssignedNames[0] != "Ana Lima" {
		t.Errorf("unexpected roster: %v", evt.AssignedNames)
	}

	tests := []httpTest{
		{name: "auth required", method: http.MethodGet, path: "/v1/events",
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "create: empty payload", method: http.MethodPost, path: "/v1/events", token: adminToken,
			body:     marchallObj(t, schedule.NewEvent{}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"kind":  "this field is required",
				"title": "this field is required",
				"date":  "this field is required",
			})},
		{name: "query", method: http.MethodGet, path: "/v1/events?kind=service", token: adminToken,
			wantCode: http.StatusOK, wantData: marchallList(t, evt)},
		{name: "query: date miss", method: http.MethodGet, path: "/v1/events?date_from=" + today.AddDate(0, 0, 10).Format("2006-01-02T15:04:05Z"), token: adminToken,
			wantCode: http.StatusOK, wantData: marchallList(t, []interface{}{}...)},
		{name: "retrieve", method: http.MethodGet, path: "/v1/events/" + evt.ID, token: adminToken,
			wantCode: http.StatusOK, wantData: marchallObj(t, evt)},
		{name: "retrieve: not found", method: http.MethodGet, path: "/v1/events/lol", token: adminToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	// unpublish
	unpublished := false
	body = marchallObj(t, schedule.UpdateEvent{Published: &unpublished})
	req, rec = newAuthRequest(http.MethodPut, "/v1/events/"+evt.ID, adminToken, body)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("update failed! code = %v; body = %s", rec.Code, rec.Body.String())
	}
	var updated schedule.Event
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatalf("json.Unmarshal() failed: %v", err)
	}
	if updated.Published || updated.Title != evt.Title || !updated.Date.Equal(evt.Date) {
		t.Errorf("unexpected event: %+v", updated)
	}

	// destroy
	req, rec = newAuthRequest(http.MethodDelete, "/v1/events/"+evt.ID, adminToken)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("destroy failed! code = %v; body = %s", rec.Code, rec.Body.String())
	}
	req, rec = newAuthRequest(http.MethodGet, "/v1/events/"+evt.ID, adminToken)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("event not deleted! code = %v", rec.Code)
	}
}
