package message

import "encoding/json"

// ParseSave validates an untyped editor-channel record. It succeeds only
// when the record is a JSON object whose "type" is "save" and whose
// "docJson" and "previewBase64" fields are strings. Extra fields are
// ignored. Any other shape yields ok=false and nothing else.
func ParseSave(raw []byte) (SaveMessage, bool) {
	obj, ok := decodeObject(raw)
	if !ok {
		return SaveMessage{}, false
	}

	if typ, ok := stringField(obj, "type"); !ok || typ != SaveType {
		return SaveMessage{}, false
	}
	doc, ok := stringField(obj, "docJson")
	if !ok {
		return SaveMessage{}, false
	}
	preview, ok := stringField(obj, "previewBase64")
	if !ok {
		return SaveMessage{}, false
	}

	return SaveMessage{Type: SaveType, DocJSON: doc, PreviewBase64: preview}, true
}

// ParseConsole validates an untyped console-channel record: an object
// with a known "level" and a string "message".
func ParseConsole(raw []byte) (ConsoleMessage, bool) {
	obj, ok := decodeObject(raw)
	if !ok {
		return ConsoleMessage{}, false
	}

	level, ok := stringField(obj, "level")
	if !ok || !Level(level).Valid() {
		return ConsoleMessage{}, false
	}
	text, ok := stringField(obj, "message")
	if !ok {
		return ConsoleMessage{}, false
	}

	return ConsoleMessage{Level: Level(level), Message: text}, true
}

func decodeObject(raw []byte) (map[string]json.RawMessage, bool) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}

// stringField reports the value of key when it is present and a JSON
// string. null, numbers, objects and arrays all fail.
func stringField(obj map[string]json.RawMessage, key string) (string, bool) {
	v, ok := obj[key]
	if !ok || len(v) == 0 || v[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return "", false
	}
	return s, true
}
