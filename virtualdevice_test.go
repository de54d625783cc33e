package freeathome

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClient_CreateVirtualDevice(t *testing.T) {
	t.Run("missing properties fails before any network call", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("network call made for invalid payload")
		}))
		defer server.Close()

		client, _ := NewClient(server.URL, "u", "p")
		_, err := client.CreateVirtualDevice(context.Background(), "6000AAAAAAAA", &VirtualDevice{
			Type: "BinarySensor",
		})
		if !errors.Is(err, ErrInvalidVirtualDevice) {
			t.Fatalf("expected invalid virtual device error, got: %v", err)
		}
	})

	t.Run("missing type fails validation", func(t *testing.T) {
		client, _ := NewClient("http://host", "u", "p")
		_, err := client.CreateVirtualDevice(context.Background(), "6000AAAAAAAA", &VirtualDevice{
			Properties: &VirtualDeviceProperties{TTL: 180},
		})
		if !errors.Is(err, ErrInvalidVirtualDevice) {
			t.Fatalf("expected invalid virtual device error, got: %v", err)
		}
	})

	t.Run("ttl range validation", func(t *testing.T) {
		client, _ := NewClient("http://host", "u", "p")
		cases := []struct {
			ttl   int
			valid bool
		}{
			{-1, true},
			{0, true},
			{180, true},
			{86400, true},
			{-2, false},
			{1, false},
			{179, false},
			{86401, false},
		}

		for _, tc := range cases {
			_, err := client.CreateVirtualDevice(context.Background(), "6000AAAAAAAA", &VirtualDevice{
				Type:       "BinarySensor",
				Properties: &VirtualDeviceProperties{TTL: tc.ttl},
			})
			gotValidationErr := errors.Is(err, ErrInvalidVirtualDevice)
			if tc.valid && gotValidationErr {
				t.Errorf("ttl %d: unexpected validation error: %v", tc.ttl, err)
			}
			if !tc.valid && !gotValidationErr {
				t.Errorf("ttl %d: expected validation error, got: %v", tc.ttl, err)
			}
		}
	})

	t.Run("flavor requires capabilities and vice versa", func(t *testing.T) {
		client, _ := NewClient("http://host", "u", "p")

		_, err := client.CreateVirtualDevice(context.Background(), "6000AAAAAAAA", &VirtualDevice{
			Type:       "BinarySensor",
			Properties: &VirtualDeviceProperties{TTL: 180, Flavor: "alone"},
		})
		if !errors.Is(err, ErrInvalidVirtualDevice) {
			t.Fatalf("flavor without capabilities should fail, got: %v", err)
		}

		_, err = client.CreateVirtualDevice(context.Background(), "6000AAAAAAAA", &VirtualDevice{
			Type:       "BinarySensor",
			Properties: &VirtualDeviceProperties{TTL: 180, Capabilities: []int{1}},
		})
		if !errors.Is(err, ErrInvalidVirtualDevice) {
			t.Fatalf("capabilities without flavor should fail, got: %v", err)
		}
	})

	t.Run("sends ttl as a string and reshapes the response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wantPath := "/fhapi/v1/api/rest/virtualdevice/" + testSysAPUUID + "/6000AAAAAAAA"
			if r.URL.Path != wantPath {
				t.Errorf("path = %q, want %q", r.URL.Path, wantPath)
			}

			body, _ := io.ReadAll(r.Body)
			var payload map[string]any
			if err := json.Unmarshal(body, &payload); err != nil {
				t.Errorf("request body is not json: %v", err)
				return
			}
			props, _ := payload["properties"].(map[string]any)
			if ttl, ok := props["ttl"].(string); !ok || ttl != "180" {
				t.Errorf("ttl = %v, want string \"180\"", props["ttl"])
			}

			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"` + testSysAPUUID + `": {"devices": {"6000AAAAAAAB": {"serial": "6000AAAAAAAB"}}}}`))
		}))
		defer server.Close()

		client, _ := NewClient(server.URL, "u", "p")
		mapping, err := client.CreateVirtualDevice(context.Background(), "6000AAAAAAAA", &VirtualDevice{
			Type:       "BinarySensor",
			Properties: &VirtualDeviceProperties{TTL: 180, DisplayName: "Test Sensor"},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if mapping["6000AAAAAAAA"] != "6000AAAAAAAB" {
			t.Errorf("mapping = %v, want 6000AAAAAAAA→6000AAAAAAAB", mapping)
		}
	})
}
