// Package collections contains data structures and constants relating to our Firestore
// collections and their entry structures/keys/values. Every entity carries both firestore
// and json tags with identical names so documents round-trip unchanged between the store
// and API responses.
package collections

import "time"

// Collection names.
const (
	Users         = "users"
	Groups        = "groups"
	Tasks         = "tasks"
	Files         = "files"
	Notifications = "notifications"
	ActivityLogs  = "activityLogs"
)

// Field keys used in queries and partial updates.
const (
	MembersField    = "members"
	IsActiveField   = "isActive"
	AccessCodeField = "accessCode"
	GroupIDsField   = "groupIds"
	GroupIDField    = "groupId"
	StatusField     = "status"
	AssignedToField = "assignedTo"
	CreatedAtField  = "createdAt"
	UpdatedAtField  = "updatedAt"
	UploadedAtField = "uploadedAt"
	TimestampField  = "timestamp"
	UserIDField     = "userId"
	IsReadField     = "isRead"
	DueDateField    = "dueDate"
	LastLoginField  = "lastLogin"
	EmailField      = "email"
	OnboardingField = "hasSeenOnboarding"
)

// Task statuses form a closed set; any member may move a task between them freely.
const (
	StatusToDo       = "To Do"
	StatusInProgress = "In Progress"
	StatusDone       = "Done"
)

// ValidStatus reports whether s is one of the task statuses.
func ValidStatus(s string) bool {
	return s == StatusToDo || s == StatusInProgress || s == StatusDone
}

// User is an entry in the users collection, keyed by the Firebase Auth uid.
type User struct {
	UID               string    `firestore:"uid" json:"uid"`
	FullName          string    `firestore:"fullName" json:"fullName"`
	Email             string    `firestore:"email" json:"email"`
	School            string    `firestore:"school" json:"school"`
	Course            string    `firestore:"course" json:"course"`
	YearLevel         string    `firestore:"yearLevel" json:"yearLevel"`
	Section           string    `firestore:"section" json:"section"`
	HasSeenOnboarding bool      `firestore:"hasSeenOnboarding" json:"hasSeenOnboarding"`
	GroupIDs          []string  `firestore:"groupIds" json:"groupIds"`
	CreatedAt         time.Time `firestore:"createdAt" json:"createdAt"`
	LastLogin         time.Time `firestore:"lastLogin" json:"lastLogin"`
}

// Group is an entry in the groups collection. The creator is always a member.
// Deleting a group only clears IsActive; the document stays behind.
type Group struct {
	ID          string    `firestore:"-" json:"id"`
	Name        string    `firestore:"name" json:"name"`
	Description string    `firestore:"description" json:"description"`
	Subject     string    `firestore:"subject" json:"subject"`
	CreatedBy   string    `firestore:"createdBy" json:"createdBy"`
	Members     []string  `firestore:"members" json:"members"`
	AccessCode  string    `firestore:"accessCode" json:"accessCode"`
	IsActive    bool      `firestore:"isActive" json:"isActive"`
	CreatedAt   time.Time `firestore:"createdAt" json:"createdAt"`
}

// HasMember reports whether uid is in the group's member list.
func (g *Group) HasMember(uid string) bool {
	for _, m := range g.Members {
		if m == uid {
			return true
		}
	}
	return false
}

// Task is an entry in the tasks collection, scoped to a group.
type Task struct {
	ID          string     `firestore:"-" json:"id"`
	Title       string     `firestore:"title" json:"title"`
	Description string     `firestore:"description" json:"description"`
	GroupID     string     `firestore:"groupId" json:"groupId"`
	AssignedTo  string     `firestore:"assignedTo" json:"assignedTo"`
	AssignedBy  string     `firestore:"assignedBy" json:"assignedBy"`
	Status      string     `firestore:"status" json:"status"`
	Priority    string     `firestore:"priority" json:"priority"`
	DueDate     *time.Time `firestore:"dueDate" json:"dueDate"`
	CreatedAt   time.Time  `firestore:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time  `firestore:"updatedAt" json:"updatedAt"`
}

// File is an entry in the files collection describing an uploaded blob.
type File struct {
	ID          string    `firestore:"-" json:"id"`
	FileName    string    `firestore:"fileName" json:"fileName"`
	FileURL     string    `firestore:"fileUrl" json:"fileUrl"`
	FileType    string    `firestore:"fileType" json:"fileType"`
	FileSize    int64     `firestore:"fileSize" json:"fileSize"`
	UploadedBy  string    `firestore:"uploadedBy" json:"uploadedBy"`
	GroupID     string    `firestore:"groupId" json:"groupId"`
	Description string    `firestore:"description" json:"description"`
	UploadedAt  time.Time `firestore:"uploadedAt" json:"uploadedAt"`
}

// Notification is an entry in the notifications collection.
type Notification struct {
	ID        string    `firestore:"-" json:"id"`
	UserID    string    `firestore:"userId" json:"userId"`
	Type      string    `firestore:"type" json:"type"`
	Title     string    `firestore:"title" json:"title"`
	Message   string    `firestore:"message" json:"message"`
	GroupID   string    `firestore:"groupId" json:"groupId"`
	TaskID    string    `firestore:"taskId" json:"taskId"`
	IsRead    bool      `firestore:"isRead" json:"isRead"`
	CreatedAt time.Time `firestore:"createdAt" json:"createdAt"`
}

// ActivityLog is an append-only entry in the activityLogs collection.
type ActivityLog struct {
	ID        string                 `firestore:"-" json:"id"`
	GroupID   string                 `firestore:"groupId" json:"groupId"`
	UserID    string                 `firestore:"userId" json:"userId"`
	Action    string                 `firestore:"action" json:"action"`
	Details   string                 `firestore:"details" json:"details"`
	Metadata  map[string]interface{} `firestore:"metadata" json:"metadata"`
	Timestamp time.Time              `firestore:"timestamp" json:"timestamp"`
}
