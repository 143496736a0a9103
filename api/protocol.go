package api

const requestBodyMaxSize = 64 * 1024 // 64 KiB

// Idempotency-Key header honored by POST /api/tasks.
const idempotencyKeyHeader = "Idempotency-Key"

// POST /api/tasks response body.
type createTaskResponse struct {
	ID string `json:"id"`
}

// POST /api/board/member response body.
type setMemberResponse struct {
	Updated int `json:"updated"`
}

// POST /api/users/register and /api/users/login response body.
type authResponse struct {
	ID    string `json:"id"`
	Token string `json:"token,omitempty"`
}
