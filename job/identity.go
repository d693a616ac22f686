package job

// Identity strings are pure functions of stable routing ids, never of
// summary or diff content. The queue collapses duplicate enqueue attempts by
// dedupe key; the worker uses the message ids for idempotent upserts instead
// of duplicate rows.

const unknownItem = "unknown-item"

// AnchorItem picks the item identity for message ids: the anchor item when
// present, otherwise the item itself, otherwise a fixed placeholder.
func AnchorItem(anchorItemID, itemID string) string {
	if anchorItemID != "" {
		return anchorItemID
	}
	if itemID != "" {
		return itemID
	}
	return unknownItem
}

// ExplainabilityMessageID is the stable id of the diff explainability
// message for one file change.
func ExplainabilityMessageID(threadID, turnID, anchor string) string {
	return "explainability:" + threadID + ":" + turnID + ":" + anchor
}

// InsightMessageID is the stable id of the supervisor insight message for
// one file change.
func InsightMessageID(threadID, turnID, anchor string) string {
	return "supervisor-insight:" + threadID + ":" + turnID + ":" + anchor
}

// TurnReviewMessageID is the stable id of the terminal turn review message.
func TurnReviewMessageID(threadID, turnID string) string {
	return "turn-review:" + threadID + ":" + turnID
}

// FileChangeReviewDedupeKey keys file-change review jobs on the thread, the
// turn, and the first available change identity.
func FileChangeReviewDedupeKey(threadID, turnID, itemID, approvalID string) string {
	identity := itemID
	if identity == "" {
		identity = approvalID
	}
	if identity == "" {
		identity = "na"
	}
	return "file-change-review:" + threadID + ":" + turnID + ":" + identity
}

// TurnReviewDedupeKey keys turn review jobs on the thread and turn alone.
func TurnReviewDedupeKey(threadID, turnID string) string {
	return "turn-review:" + threadID + ":" + turnID
}

// SuggestRequestDedupeKey keys suggest-request jobs on the session alone:
// at most one live suggestion per session.
func SuggestRequestDedupeKey(sessionID string) string {
	return "suggest-request:" + sessionID
}

// SessionRenameDedupeKey keys rename jobs on the session alone.
func SessionRenameDedupeKey(sessionID string) string {
	return "session-rename:" + sessionID
}
