// Package inject encodes the host's initial document for delivery into the
// embedded runtime and builds the one-shot evaluation that hands it to the
// editor application.
package inject

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"
)

// DefaultEntryPoint is the global function the embedded editor exposes to
// receive its initial document.
const DefaultEntryPoint = "__polotnoReceiveInitialDoc"

var (
	ErrEmptyDocument = errors.New("inject: empty document")
	ErrInvalidUTF8   = errors.New("inject: document is not valid UTF-8")
)

// Contract is the declared host/editor agreement for document delivery.
// The control channel installed by the interceptor is preferred; the
// global entry point is the fallback for editors that never subscribe.
type Contract struct {
	EntryPoint string
}

func (c Contract) entryPoint() string {
	if c.EntryPoint == "" {
		return DefaultEntryPoint
	}
	return c.EntryPoint
}

// Encode checks the document preconditions and returns its base64 form.
func Encode(doc string) (string, error) {
	if doc == "" {
		return "", ErrEmptyDocument
	}
	if !utf8.ValidString(doc) {
		return "", ErrInvalidUTF8
	}
	return base64.StdEncoding.EncodeToString([]byte(doc)), nil
}

// Decode reverses Encode. The runtime-side script performs the same
// steps: base64 to bytes, bytes to UTF-8 text.
func Decode(encoded string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("inject: decode: %w", err)
	}
	return string(data), nil
}

// Script returns the evaluation (a JS function expression) delivering an
// encoded document. It resolves to "control", "entry", "queued" or "none"
// depending on which delivery path the page offered.
//
// atob alone yields one char per byte, so the bytes go through
// TextDecoder to keep non-ASCII documents intact.
func Script(c Contract, encoded string) string {
	entry, _ := json.Marshal(c.entryPoint())
	b64, _ := json.Marshal(encoded)
	return fmt.Sprintf(`() => {
	const bin = atob(%s);
	const bytes = new Uint8Array(bin.length);
	for (let i = 0; i < bin.length; i++) { bytes[i] = bin.charCodeAt(i); }
	const doc = new TextDecoder('utf-8').decode(bytes);
	const record = { type: 'load', docJson: doc };
	const control = window.__designBridge;
	if (control && typeof control.subscribed === 'function' && control.subscribed()) {
		control.deliver(record);
		return 'control';
	}
	const entry = window[%s];
	if (typeof entry === 'function') {
		entry(doc);
		return 'entry';
	}
	if (control && typeof control.deliver === 'function') {
		control.deliver(record);
		return 'queued';
	}
	return 'none';
}`, b64, entry)
}

// Build encodes doc and returns the delivery script.
func Build(c Contract, doc string) (string, error) {
	encoded, err := Encode(doc)
	if err != nil {
		return "", err
	}
	return Script(c, encoded), nil
}
