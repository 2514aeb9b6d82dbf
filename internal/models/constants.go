package models

// DefaultAPIBaseURL is used when neither the environment nor the config file
// name an answering service.
const DefaultAPIBaseURL = "https://yf6mptf887.execute-api.us-east-1.amazonaws.com/dev"

// Endpoint paths relative to the API base URL
const (
	EndpointChat   = "/chat"
	EndpointUpload = "/upload"
	EndpointFetch  = "/fetch"
)

// Fallback texts for failed turns
const (
	ErrorPrefix         = "Error: "
	GenericFailureText  = "Something went wrong."
	InvalidResponseText = "Invalid response from server."
)

// DefaultHeaders returns the headers sent with every JSON request
func DefaultHeaders() map[string]string {
	return map[string]string{
		"Content-Type": "application/json",
		"Accept":       "application/json",
		"User-Agent":   "docchat-cli",
	}
}
