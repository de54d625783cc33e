package freeathome

import (
	"strings"
	"testing"
)

func TestUnmarshalResponse(t *testing.T) {
	t.Run("valid json", func(t *testing.T) {
		got, err := unmarshalResponse[struct {
			Result string `json:"result"`
		}]([]byte(`{"result": "ok"}`), "ack")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Result != "ok" {
			t.Errorf("Result = %q, want ok", got.Result)
		}
	})

	t.Run("invalid json names the resource and previews the body", func(t *testing.T) {
		_, err := unmarshalResponse[map[string]string]([]byte(`not json`), "device list")
		if !IsInvalidAPIResponse(err) {
			t.Fatalf("expected invalid api response, got: %v", err)
		}
		msg := err.Error()
		if !strings.Contains(msg, "device list") || !strings.Contains(msg, "not json") {
			t.Errorf("error message %q should name the resource and preview the body", msg)
		}
	})
}

func TestTruncatePreview(t *testing.T) {
	short := "short body"
	if got := truncatePreview([]byte(short)); got != short {
		t.Errorf("got %q, want unmodified body", got)
	}

	long := strings.Repeat("x", 500)
	got := truncatePreview([]byte(long))
	if len(got) != 203 || !strings.HasSuffix(got, "...") {
		t.Errorf("got %d bytes (%q...), want 200 + ellipsis", len(got), got[:10])
	}
}

func TestClient_sysAPEntry(t *testing.T) {
	client, _ := NewClient("http://host", "u", "p")

	t.Run("extracts the entry for the configured uuid", func(t *testing.T) {
		entry, err := client.sysAPEntry([]byte(`{"`+DefaultSysAPUUID+`": {"key": 1}}`), "test")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(entry) != `{"key": 1}` {
			t.Errorf("entry = %s", entry)
		}
	})

	t.Run("missing entry is an invalid response", func(t *testing.T) {
		_, err := client.sysAPEntry([]byte(`{"other": {}}`), "test")
		if !IsInvalidAPIResponse(err) {
			t.Fatalf("expected invalid api response, got: %v", err)
		}
	})
}
