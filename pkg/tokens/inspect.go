package tokens

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// Inspection is a decode-only view of a compact token, for debugging. The
// signature is NOT verified; nothing here may be trusted.
type Inspection struct {
	Header    map[string]any `json:"header"`
	Payload   map[string]any `json:"payload"`
	Signature string         `json:"signature"`
}

// Inspect splits a compact serialized token into its three parts and decodes
// the header and payload without any verification.
func Inspect(serialized string) (*Inspection, error) {
	parts := strings.Split(serialized, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("expected 3 token parts, got %d", len(parts))
	}

	header, err := decodePart(parts[0])
	if err != nil {
		return nil, fmt.Errorf("decode header: %w", err)
	}

	payload, err := decodePart(parts[1])
	if err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}

	return &Inspection{
		Header:    header,
		Payload:   payload,
		Signature: parts[2],
	}, nil
}

// Text renders the inspection in the base64url(...).base64url(...) notation
// used in log output.
func (i *Inspection) Text() string {
	sb := strings.Builder{}
	sb.WriteString("base64url(")
	sb.WriteString(partToText(i.Header))
	sb.WriteString(").base64url(")
	sb.WriteString(partToText(i.Payload))
	sb.WriteString(").signature(")
	if len(i.Signature) > 10 {
		sb.WriteString(i.Signature[0:10])
	} else {
		sb.WriteString(i.Signature)
	}
	sb.WriteString("...)")
	return sb.String()
}

func decodePart(s string) (map[string]any, error) {
	dataBytes, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}
	dataMap := make(map[string]any)
	if err := json.Unmarshal(dataBytes, &dataMap); err != nil {
		return nil, err
	}
	return dataMap, nil
}

func partToText(dataMap map[string]any) string {
	jsonBytes, err := json.MarshalIndent(dataMap, "  ", "  ")
	if err != nil {
		return err.Error()
	}
	return string(jsonBytes)
}
