package bridge

// SampleDocument is the initial document used when none is configured:
// an empty 1080x1080 page with a single heading.
const SampleDocument = `{"width":1080,"height":1080,"fonts":[],"pages":[{"id":"page-1","children":[{"type":"text","id":"text-1","x":140,"y":460,"width":800,"height":160,"text":"Hello from the host","fontSize":72,"fontFamily":"Roboto","fill":"#222222","align":"center"}],"background":"#ffffff"}],"unit":"px","dpi":72}`
