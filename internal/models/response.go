package models

// ChatResult is the decoded outcome of a /chat response body.
// It is either Answer or Malformed.
type ChatResult interface {
	isChatResult()
}

// Answer is a well-formed reply from the answering service
type Answer struct {
	Text string
	// Filenames holds the raw context filenames in server order, duplicates
	// included. Message construction deduplicates them.
	Filenames []string
}

// Malformed is a 2xx body that carries no usable answer
type Malformed struct {
	Reason string
}

func (Answer) isChatResult()    {}
func (Malformed) isChatResult() {}

// Message converts the answer into a conversation turn
func (a Answer) Message() Message {
	return NewAnswerMessage(a.Text, a.Filenames)
}

// UploadResult is the reply of the /upload endpoint
type UploadResult struct {
	Message string `json:"message"`
	DocID   string `json:"doc_id"`
	S3Key   string `json:"s3_key"`
}

// FetchResult is the reply of the /fetch endpoint
type FetchResult struct {
	SessionID string `json:"session_id"`
	Response  string `json:"response"`
}
