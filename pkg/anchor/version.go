package anchor

// Version is the tool version. Serialized container definitions are keyed by it
// and a document written by a different version is rejected.
const Version = "0.4.0"
