package apperr

// Payload is the JSON body of every failed request or error event.
type Payload struct {
	Success bool         `json:"success"`
	Error   string       `json:"error"`
	Details []FieldError `json:"details,omitempty"`
	Detail  string       `json:"detail,omitempty"`
	Kind    Kind         `json:"kind,omitempty"`
}

// PayloadOf renders err for clients. Cause text is only exposed in
// development mode, and Internal messages are masked outside of it.
func PayloadOf(err error, dev bool) Payload {
	appErr := From(err)

	payload := Payload{
		Success: false,
		Error:   appErr.Message,
		Details: appErr.Fields,
	}

	if appErr.Kind == KindInternal && !dev {
		payload.Error = "Internal Server Error"
	}

	if dev {
		payload.Kind = appErr.Kind
		if appErr.Cause != nil {
			payload.Detail = appErr.Cause.Error()
		}
	}

	return payload
}
