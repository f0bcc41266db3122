package rpc

import (
	"testing"

	"google.golang.org/protobuf/types/known/structpb"
)

func TestDecodeIntoRoundTripsViaStruct(t *testing.T) {
	s, err := structpb.NewStruct(map[string]any{
		"name":      "web-01",
		"cpu_cores": 2.0,
	})
	if err != nil {
		t.Fatalf("NewStruct: %v", err)
	}

	var out struct {
		Name     string `json:"name"`
		CPUCores int32  `json:"cpu_cores"`
	}
	if err := decodeInto(s, &out); err != nil {
		t.Fatalf("decodeInto: %v", err)
	}
	if out.Name != "web-01" || out.CPUCores != 2 {
		t.Fatalf("decoded %+v, want name=web-01 cpu_cores=2", out)
	}
}

func TestEncodeStructRoundTrips(t *testing.T) {
	s, err := encodeStruct(map[string]any{"id": "abc", "count": 3})
	if err != nil {
		t.Fatalf("encodeStruct: %v", err)
	}
	m := s.AsMap()
	if m["id"] != "abc" {
		t.Errorf("id = %v, want abc", m["id"])
	}
	if m["count"].(float64) != 3 {
		t.Errorf("count = %v, want 3", m["count"])
	}
}
