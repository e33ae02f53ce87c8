package content

// NoticeKind classifies a user-visible notification.
type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
	NoticeWarning NoticeKind = "warning"
)

// Notice is a dismissable message shown to the admin after an operation.
type Notice struct {
	Kind        NoticeKind `json:"kind"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
}

// SuccessNotice returns a success notice.
func SuccessNotice(title, description string) Notice {
	return Notice{Kind: NoticeSuccess, Title: title, Description: description}
}

// ErrorNotice returns an error notice titled "Error".
func ErrorNotice(description string) Notice {
	return Notice{Kind: NoticeError, Title: "Error", Description: description}
}
