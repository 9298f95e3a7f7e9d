package apihttp

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"battflex-cloud/internal/profile"
)

func TestProfilePreview_FullGrid(t *testing.T) {
	body := strings.Join([]string{
		"timestamp,value",
		"2024-01-01 00:00:00,10",
		"2024-01-08 00:00:00,20",
		"2024-01-01 00:15:00,4",
	}, "\n")

	handler := NewProfilePreviewHandler()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/profile/preview", strings.NewReader(body))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var points []profile.Point
	if err := json.Unmarshal(resp.Body.Bytes(), &points); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(points) != profile.WeekSlots {
		t.Fatalf("expected %d points, got %d", profile.WeekSlots, len(points))
	}
	if points[0].Value != 15 {
		t.Fatalf("expected slot 0 average 15, got %v", points[0].Value)
	}
	if points[1].Value != 4 {
		t.Fatalf("expected slot 1 value 4, got %v", points[1].Value)
	}
	if points[0].Day != "Mon" || points[0].Time != "00:00" {
		t.Fatalf("unexpected slot 0 labels: %s %s", points[0].Day, points[0].Time)
	}
}

func TestProfilePreview_GetRejected(t *testing.T) {
	handler := NewProfilePreviewHandler()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/profile/preview", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.Code)
	}
}

func TestProfilePreview_EmptyBody(t *testing.T) {
	handler := NewProfilePreviewHandler()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/profile/preview", strings.NewReader(""))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var points []profile.Point
	if err := json.Unmarshal(resp.Body.Bytes(), &points); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(points) != profile.WeekSlots {
		t.Fatalf("expected %d points, got %d", profile.WeekSlots, len(points))
	}
	for _, p := range points[:4] {
		if p.Value != 0 || p.PV != 0 {
			t.Fatalf("expected zeroed grid, got %+v", p)
		}
	}
}
