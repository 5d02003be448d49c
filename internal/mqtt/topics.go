package mqtt

import "strings"

// DefaultPrefix roots every BlindEngine topic.
const DefaultPrefix = "blindengine"

// Topics builds topic names under a prefix.
type Topics struct {
	Prefix string
}

func (t Topics) prefix() string {
	p := strings.Trim(t.Prefix, "/")
	if p == "" {
		return DefaultPrefix
	}
	return p
}

// Rounds is where a session's round reports are published.
// An empty session selects every session with the + wildcard.
func (t Topics) Rounds(sessionID string) string {
	if sessionID == "" {
		sessionID = "+"
	}
	return t.prefix() + "/" + sessionID + "/rounds"
}

// Event is where an emitted event of the given name is mirrored.
// Dots in the name become topic levels.
func (t Topics) Event(name string) string {
	return t.prefix() + "/events/" + strings.ReplaceAll(name, ".", "/")
}

// Executor is where an executor publishes its heartbeat. An empty id selects
// every executor.
func (t Topics) Executor(id string) string {
	if id == "" {
		id = "+"
	}
	return t.prefix() + "/executors/" + id + "/heartbeat"
}

// Status is the retained online/offline marker of a verifier client.
func (t Topics) Status(clientID string) string {
	return t.prefix() + "/verifiers/" + clientID + "/status"
}
