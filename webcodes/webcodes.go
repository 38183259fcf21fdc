// Package webcodes holds the canonical error messages the API returns, so
// handlers and tests agree on the exact strings.
package webcodes

const (
	// MsgInternal is returned for any unexpected store or provider failure.
	// The underlying error is logged server side, never sent to the caller.
	MsgInternal = "Internal server error"

	// MsgAccessDenied is returned when a policy check fails.
	MsgAccessDenied = "Access denied"

	// MsgNotMember is returned when the caller is not in the group's member list.
	MsgNotMember = "You are not a member of this group"

	// MsgGroupNotFound is returned when a group id or access code resolves to nothing.
	MsgGroupNotFound = "Group not found"

	// MsgInvalidCode is returned on join when no active group holds the code.
	MsgInvalidCode = "Invalid access code"

	// MsgAlreadyMember is returned on a duplicate join.
	MsgAlreadyMember = "You are already a member of this group"

	// MsgTaskNotFound is returned when a task id resolves to nothing.
	MsgTaskNotFound = "Task not found"

	// MsgFileNotFound is returned when a file id resolves to nothing.
	MsgFileNotFound = "File not found"

	// MsgNotificationNotFound is returned when a notification id resolves to nothing.
	MsgNotificationNotFound = "Notification not found"

	// MsgUserNotFound is returned when the caller has no user document.
	MsgUserNotFound = "User not found"

	// MsgEmailExists is returned on signup with a taken email.
	MsgEmailExists = "User already exists with this email"

	// MsgNoFields is returned when a patch request carries nothing to change.
	MsgNoFields = "No fields to update"

	// MsgFileTooLarge is returned before anything reaches the blob store.
	MsgFileTooLarge = "File exceeds the 10 MB limit"

	// MsgInvalidStatus is returned when a task update carries a status outside
	// the To Do / In Progress / Done set.
	MsgInvalidStatus = "Invalid task status"

	// MsgInvalidBody is returned when the request body fails to decode or
	// carries unknown fields.
	MsgInvalidBody = "Invalid request body"
)
