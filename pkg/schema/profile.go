// Package schema defines the JSON envelopes served by the Backend Wizards profile service.
package schema

const (
	StatusSuccess = "success"
	StatusError   = "error"

	// TimestampLayout is ISO 8601 in UTC with millisecond precision, e.g. 2024-03-15T10:30:00.123Z.
	TimestampLayout = "2006-01-02T15:04:05.000Z"

	// FallbackFact replaces the provider's fact whenever the Cat Facts API cannot be used.
	FallbackFact = "Cats are amazing creatures! (Cat Facts API temporarily unavailable)"

	NotFoundMessage = "Endpoint not found"
	RootMessage     = "Backend Wizards API is running!"
	ProfilePath     = "/me"
)

// User is the identity block of a profile, sourced from configuration.
type User struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Stack string `json:"stack"`
}

// ProfileResponse is the body of GET /me. Status is always StatusSuccess.
type ProfileResponse struct {
	Status    string `json:"status"`
	User      User   `json:"user"`
	Timestamp string `json:"timestamp"`
	Fact      string `json:"fact"`
}

// ErrorResponse is returned for unmatched routes.
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Endpoints lists the routes advertised by the root document.
type Endpoints struct {
	Profile string `json:"profile"`
}

// RootResponse is the service identity document served on GET /.
type RootResponse struct {
	Message   string    `json:"message"`
	Endpoints Endpoints `json:"endpoints"`
}

// NotFound builds the standard 404 body.
func NotFound() ErrorResponse {
	return ErrorResponse{Status: StatusError, Message: NotFoundMessage}
}

// Root builds the service identity document.
func Root() RootResponse {
	return RootResponse{
		Message:   RootMessage,
		Endpoints: Endpoints{Profile: ProfilePath},
	}
}
