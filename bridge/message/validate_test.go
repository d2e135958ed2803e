package message

import (
	"encoding/base64"
	"testing"
)

// 1x1 transparent PNG.
const tinyPNG = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII="

func TestParseSave_Valid(t *testing.T) {
	raw := []byte(`{"type":"save","docJson":"{\"width\":1080,\"height\":1080}","previewBase64":"` + tinyPNG + `"}`)

	msg, ok := ParseSave(raw)
	if !ok {
		t.Fatal("ParseSave: want ok")
	}
	if msg.DocJSON != `{"width":1080,"height":1080}` {
		t.Errorf("DocJSON: got %q", msg.DocJSON)
	}
	if msg.PreviewBase64 != tinyPNG {
		t.Errorf("PreviewBase64 mismatch")
	}

	p := msg.Payload("doc-1", "ses-1", 1708700000000)
	img, err := p.Preview()
	if err != nil {
		t.Fatal(err)
	}
	if SniffImage(img) != FormatPNG {
		t.Errorf("preview format: got %q, want png", SniffImage(img))
	}
}

func TestParseSave_ExtraFieldsIgnored(t *testing.T) {
	raw := []byte(`{"type":"save","docJson":"{}","previewBase64":"","pages":3,"meta":{"a":1}}`)
	msg, ok := ParseSave(raw)
	if !ok {
		t.Fatal("ParseSave: extra fields must not fail validation")
	}
	if msg.DocJSON != "{}" || msg.PreviewBase64 != "" {
		t.Errorf("got %+v", msg)
	}
}

func TestParseSave_Malformed(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"missing docJson", `{"type":"save","previewBase64":"abc"}`},
		{"missing previewBase64", `{"type":"save","docJson":"{}"}`},
		{"missing type", `{"docJson":"{}","previewBase64":"abc"}`},
		{"wrong type", `{"type":"load","docJson":"{}","previewBase64":"abc"}`},
		{"type case", `{"type":"Save","docJson":"{}","previewBase64":"abc"}`},
		{"docJson object", `{"type":"save","docJson":{"width":1},"previewBase64":"abc"}`},
		{"docJson null", `{"type":"save","docJson":null,"previewBase64":"abc"}`},
		{"preview number", `{"type":"save","docJson":"{}","previewBase64":42}`},
		{"type number", `{"type":1,"docJson":"{}","previewBase64":"abc"}`},
		{"array", `[{"type":"save","docJson":"{}","previewBase64":"abc"}]`},
		{"string", `"save"`},
		{"null", `null`},
		{"number", `12`},
		{"not json", `{type: save}`},
		{"empty", ``},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if msg, ok := ParseSave([]byte(tc.raw)); ok {
				t.Fatalf("ParseSave(%s): got %+v, want no message", tc.raw, msg)
			}
		})
	}
}

func TestParseConsole(t *testing.T) {
	msg, ok := ParseConsole([]byte(`{"level":"error","message":"JS Error: x is not defined app.js:12"}`))
	if !ok {
		t.Fatal("ParseConsole: want ok")
	}
	if msg.Level != LevelError {
		t.Errorf("Level: got %q", msg.Level)
	}
	if msg.Message != "JS Error: x is not defined app.js:12" {
		t.Errorf("Message: got %q", msg.Message)
	}
	if got, want := msg.Line(), "[Editor console][error] JS Error: x is not defined app.js:12"; got != want {
		t.Errorf("Line: got %q, want %q", got, want)
	}
}

func TestParseConsole_Malformed(t *testing.T) {
	for _, raw := range []string{
		`{"level":"info","message":"x"}`,
		`{"level":"log"}`,
		`{"message":"x"}`,
		`{"level":"log","message":7}`,
		`["log","x"]`,
		`null`,
	} {
		if msg, ok := ParseConsole([]byte(raw)); ok {
			t.Errorf("ParseConsole(%s): got %+v, want no message", raw, msg)
		}
	}
}

func TestChannelIsolation_FieldOverlap(t *testing.T) {
	// Carries both shapes at once; each parser only sees its own.
	raw := []byte(`{"type":"save","docJson":"{}","previewBase64":"","level":"log","message":"hi"}`)

	if _, ok := ParseSave(raw); !ok {
		t.Error("ParseSave: want ok")
	}
	if _, ok := ParseConsole(raw); !ok {
		t.Error("ParseConsole: want ok")
	}

	consoleOnly := []byte(`{"level":"log","message":"{\"type\":\"save\"}"}`)
	if _, ok := ParseSave(consoleOnly); ok {
		t.Error("console record must not parse as save")
	}
	saveOnly := []byte(`{"type":"save","docJson":"{}","previewBase64":""}`)
	if _, ok := ParseConsole(saveOnly); ok {
		t.Error("save record must not parse as console")
	}
}

func TestSniffImage(t *testing.T) {
	png, _ := base64.StdEncoding.DecodeString(tinyPNG)
	cases := []struct {
		data []byte
		want ImageFormat
	}{
		{png, FormatPNG},
		{[]byte{0xff, 0xd8, 0xff, 0xe0, 0, 0}, FormatJPEG},
		{[]byte("RIFF\x00\x00\x00\x00WEBPVP8 "), FormatWebP},
		{[]byte("GIF89a"), FormatUnknown},
		{nil, FormatUnknown},
	}
	for _, tc := range cases {
		if got := SniffImage(tc.data); got != tc.want {
			t.Errorf("SniffImage(%q): got %q, want %q", tc.data, got, tc.want)
		}
	}
}

func TestPreview_InvalidBase64(t *testing.T) {
	p := DocumentPayload{PreviewBase64: "not base64!"}
	if _, err := p.Preview(); err == nil {
		t.Fatal("Preview: want error for invalid base64")
	}
}

func TestParseSnapshot(t *testing.T) {
	snap, err := ParseSnapshot([]byte(`{"readyState":"complete","scripts":["[inline]","file:///editor/app.js"],"links":[]}`))
	if err != nil {
		t.Fatal(err)
	}
	if snap.ReadyState != "complete" || len(snap.Scripts) != 2 || len(snap.Stylesheets) != 0 {
		t.Errorf("got %+v", snap)
	}

	snap, err = ParseSnapshot([]byte(`{}`))
	if err != nil {
		t.Fatal(err)
	}
	if snap.ReadyState != "unknown" {
		t.Errorf("ReadyState: got %q, want unknown", snap.ReadyState)
	}

	if _, err := ParseSnapshot([]byte(`"loading"`)); err == nil {
		t.Error("ParseSnapshot: want error for non-object payload")
	}
}
