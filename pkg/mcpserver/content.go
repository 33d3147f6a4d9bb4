package mcpserver

import "encoding/json"

// DecodeContentParts normalizes a tool handler's return value into the
// content-part array a tools/call result carries on the wire.
//
// If v marshals to a JSON array, each element is decoded strictly:
//   - {type:"text", text} requires text.
//   - {type:"image", data, mimeType, metadata?} requires data and mimeType.
//   - {type:"resource", resource:{uri, mimeType, name?}} requires uri and
//     mimeType on the nested resource.
//
// An element with an unrecognized type or a missing required field is
// skipped. If at least one element survives, the filtered array is
// returned. Otherwise — v did not marshal to an array, the array was
// empty, or every element was invalid — v is emitted as a single text
// part.
func DecodeContentParts(v any) []ContentPart {
	raw, err := json.Marshal(v)
	if err != nil {
		return fallbackText(v)
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return fallbackText(v)
	}

	parts := make([]ContentPart, 0, len(elems))
	for _, e := range elems {
		if part, ok := decodeContentElement(e); ok {
			parts = append(parts, part)
		}
	}
	if len(parts) == 0 {
		return fallbackText(v)
	}
	return parts
}

func fallbackText(v any) []ContentPart {
	if s, ok := v.(string); ok {
		return []ContentPart{{Type: "text", Text: s}}
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return []ContentPart{{Type: "text", Text: ""}}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return []ContentPart{{Type: "text", Text: s}}
	}
	return []ContentPart{{Type: "text", Text: string(raw)}}
}

func decodeContentElement(raw json.RawMessage) (ContentPart, bool) {
	var probe struct {
		Type     string          `json:"type"`
		Text     *string         `json:"text"`
		Data     *string         `json:"data"`
		MimeType *string         `json:"mimeType"`
		Metadata map[string]any  `json:"metadata"`
		Resource json.RawMessage `json:"resource"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return ContentPart{}, false
	}

	switch probe.Type {
	case "text":
		if probe.Text == nil {
			return ContentPart{}, false
		}
		return ContentPart{Type: "text", Text: *probe.Text}, true

	case "image":
		if probe.Data == nil || probe.MimeType == nil {
			return ContentPart{}, false
		}
		return ContentPart{
			Type:     "image",
			Data:     *probe.Data,
			MimeType: *probe.MimeType,
			Metadata: probe.Metadata,
		}, true

	case "resource":
		if len(probe.Resource) == 0 {
			return ContentPart{}, false
		}
		var ref ResourceRef
		if err := json.Unmarshal(probe.Resource, &ref); err != nil {
			return ContentPart{}, false
		}
		if ref.URI == "" || ref.MimeType == "" {
			return ContentPart{}, false
		}
		return ContentPart{Type: "resource", Resource: &ref}, true

	default:
		return ContentPart{}, false
	}
}
