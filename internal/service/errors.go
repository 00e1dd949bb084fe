package service

import "errors"

// Error taxonomy surfaced to handlers. Storage failures are returned wrapped
// and map to a generic server error; everything here is user-addressable.
var (
	ErrInvalidContent       = errors.New("message requires text or a file reference")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrMessageNotFound      = errors.New("message not found")
	ErrForbidden            = errors.New("not authorized to perform this action")
	ErrChatNotFound         = errors.New("chat session not found")
	ErrDoctorNotFound       = errors.New("doctor not found")
	ErrReportNotFound       = errors.New("report not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrEmailTaken           = errors.New("user with this email already exists")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrSpecializationNeeded = errors.New("specialization is required for doctors")
)
