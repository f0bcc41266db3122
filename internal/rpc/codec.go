package rpc

import (
	"encoding/json"

	"google.golang.org/protobuf/types/known/structpb"
)

// decodeInto decodes a request envelope into a typed Go value. Every
// method on the service takes a *structpb.Struct rather than a
// hand-generated message type — see service.go's doc comment for why —
// so the struct's map form is round-tripped through encoding/json into
// whatever shape the handler expects.
func decodeInto(s *structpb.Struct, out any) error {
	b, err := json.Marshal(s.AsMap())
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

// encodeStruct is decodeInto's inverse: it turns any JSON-marshalable Go
// value into the *structpb.Struct a handler returns to the client.
func encodeStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return structpb.NewStruct(m)
}
