package api

// ──────────────────────────────────────────────────
// Auth requests
// ──────────────────────────────────────────────────

// SignInRequest is the body for signing in with a password.
type SignInRequest struct {
	Email    string `json:"email" validate:"required,email" description:"Account email"`
	Password string `json:"password" validate:"required" description:"Account password"`
}

// SignOutRequest optionally names the token to end. The request token is
// used when empty.
type SignOutRequest struct {
	Token string `json:"token,omitempty" description:"Session token to end"`
}

// MeRequest carries no parameters; the subject comes from the session.
type MeRequest struct{}

// ──────────────────────────────────────────────────
// Schema requests
// ──────────────────────────────────────────────────

// ListSchemaRequest carries no parameters.
type ListSchemaRequest struct{}

// GetListRequest is the path parameter naming a list.
type GetListRequest struct {
	List string `path:"list" description:"List name"`
}

// ──────────────────────────────────────────────────
// Check requests
// ──────────────────────────────────────────────────

// CheckRequest is the request body for an access check. The subject is
// taken from the request session.
type CheckRequest struct {
	Operation  string `json:"operation" validate:"required,oneof=create read update delete" description:"Operation (create, read, update, delete)"`
	List       string `json:"list" validate:"required" description:"List name"`
	ResourceID string `json:"resource_id,omitempty" description:"Record to apply the decision to"`
}

// BatchCheckRequest contains multiple checks.
type BatchCheckRequest struct {
	Checks []CheckRequest `json:"checks" validate:"required,min=1,dive" description:"List of access checks"`
}

// ──────────────────────────────────────────────────
// Item requests
// ──────────────────────────────────────────────────

// ItemPathRequest holds the path parameters addressing an item.
type ItemPathRequest struct {
	List   string `path:"list" description:"List name"`
	ItemID string `path:"itemId" description:"Item ID"`
}

// WriteItemRequest is the body for creating or updating an item.
type WriteItemRequest struct {
	Fields map[string]any `json:"fields" validate:"required" description:"Field values keyed by field name"`
}

// ListItemsRequest holds query parameters for listing items.
type ListItemsRequest struct {
	List   string `path:"list" description:"List name"`
	Search string `query:"search" description:"Search by label"`
	Limit  int    `query:"limit" validate:"gte=0" description:"Maximum results (default: 100)"`
	Offset int    `query:"offset" validate:"gte=0" description:"Results to skip"`
}

// ──────────────────────────────────────────────────
// User requests
// ──────────────────────────────────────────────────

// CreateUserRequest is the body for registering a user.
type CreateUserRequest struct {
	Name     string `json:"name,omitempty" description:"Display name"`
	Email    string `json:"email,omitempty" validate:"omitempty,email" description:"Unique email"`
	Password string `json:"password" validate:"required" description:"Password"`
	IsAdmin  bool   `json:"isAdmin,omitempty" description:"Administrator flag"`
}

// UpdateUserRequest is the body for updating a user. Absent fields are
// left unchanged.
type UpdateUserRequest struct {
	Name     *string `json:"name,omitempty" description:"Display name"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email" description:"Unique email"`
	Password *string `json:"password,omitempty" validate:"omitempty,min=1" description:"New password"`
	IsAdmin  *bool   `json:"isAdmin,omitempty" description:"Administrator flag"`
}

// GetUserRequest is the path parameter for addressing a user.
type GetUserRequest struct {
	UserID string `path:"userId" description:"User ID"`
}

// ListUsersRequest holds query parameters for listing users.
type ListUsersRequest struct {
	Search string `query:"search" description:"Search by name or email"`
	Limit  int    `query:"limit" validate:"gte=0" description:"Maximum results (default: 100)"`
	Offset int    `query:"offset" validate:"gte=0" description:"Results to skip"`
}

// ──────────────────────────────────────────────────
// Check log requests
// ──────────────────────────────────────────────────

// ListCheckLogsRequest holds query parameters for listing check logs.
type ListCheckLogsRequest struct {
	SubjectID string `query:"subject_id" description:"Filter by subject ID"`
	Operation string `query:"operation" validate:"omitempty,oneof=create read update delete" description:"Filter by operation"`
	List      string `query:"list" description:"Filter by list"`
	Decision  string `query:"decision" validate:"omitempty,oneof=allow deny allow_if" description:"Filter by decision"`
	After     string `query:"after" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00" description:"After timestamp (RFC3339)"`
	Before    string `query:"before" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00" description:"Before timestamp (RFC3339)"`
	Limit     int    `query:"limit" validate:"gte=0" description:"Maximum results (default: 100)"`
	Offset    int    `query:"offset" validate:"gte=0" description:"Results to skip"`
}

// GetCheckLogRequest binds the check log ID path parameter.
type GetCheckLogRequest struct {
	LogID string `path:"logId" description:"Check log ID"`
}

// PurgeCheckLogsRequest holds the cutoff for removing old check logs.
type PurgeCheckLogsRequest struct {
	Before string `query:"before" validate:"required,datetime=2006-01-02T15:04:05Z07:00" description:"Remove entries recorded before this timestamp (RFC3339)"`
}
