// CLAUDE:SUMMARY Embeds the document-start diagnostic interceptor and the page introspection probe.
// Package interceptor holds the scripts the bridge installs inside the
// embedded runtime: the diagnostic interceptor (console/error forwarding,
// postMessage shim, inbound control channel) and the diagnostic probe.
package interceptor

import (
	_ "embed"
	"strings"

	"github.com/hazyhaar/designbridge/bridge/message"
)

//go:embed interceptor.js
var interceptorJS string

// BindingPrefix prefixes every runtime binding backing a channel.
const BindingPrefix = "__bridge_"

// BindingName returns the runtime binding that carries channel ch.
func BindingName(ch message.ChannelName) string {
	return BindingPrefix + string(ch)
}

// ChannelFor maps a binding name back to its channel.
func ChannelFor(binding string) (message.ChannelName, bool) {
	name, ok := strings.CutPrefix(binding, BindingPrefix)
	if !ok {
		return "", false
	}
	ch := message.ChannelName(name)
	return ch, ch.Valid()
}

// Source returns the script to evaluate on every new document, in every
// frame, before page scripts run. It never throws into the page.
func Source() string {
	return interceptorJS
}

// ProbeScript introspects the loaded document. Its result decodes with
// message.ParseSnapshot.
const ProbeScript = `() => {
	const scripts = Array.from(document.scripts).map(s => s.src || '[inline]');
	const links = Array.from(document.querySelectorAll('link[rel="stylesheet"]')).map(l => l.href || '[inline]');
	return { readyState: document.readyState, scripts, links };
}`
