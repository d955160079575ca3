package response

// Response is the JSON envelope every management API handler renders.
type Response struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

const (
	StatusOK    = "OK"
	StatusError = "Error"
)

// Ok wraps a successful payload.
func Ok(data any) Response {
	return Response{Status: StatusOK, Data: data}
}

// Error wraps a failure message.
func Error(msg string) Response {
	return Response{Status: StatusError, Error: msg}
}
