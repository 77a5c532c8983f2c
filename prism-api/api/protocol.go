package api

const requestMaxSize = 64 * 1024 // 64 KiB

// DELETE /api/tasks/:id response body
type deleteResponse struct {
	Message string `json:"message"`
}

// GET /api/health response body
type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Database  string `json:"database"`
}

// error body for every non-2xx response
type errorResponse struct {
	Error string `json:"error"`
}
