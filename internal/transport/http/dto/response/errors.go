package response

var (
	ErrInvalidRequestFormat = ErrorResponse{
		Status:  "error",
		Error:   "invalid_request",
		Details: "Invalid request format",
	}

	ErrAuthenticationFailed = ErrorResponse{
		Status: "error",
		Error:  "authentication_failed",
	}

	ErrInvalidID = ErrorResponse{
		Status:  "error",
		Error:   "invalid_id",
		Details: "ID must be a positive integer",
	}

	ErrImageNotFound = ErrorResponse{
		Status: "error",
		Error:  "image_not_found",
	}

	ErrPostNotFound = ErrorResponse{
		Status: "error",
		Error:  "post_not_found",
	}

	ErrUnknownTagIDs = ErrorResponse{
		Status:  "error",
		Error:   "unknown_tag_ids",
		Details: "One or more tag ids do not exist",
	}

	ErrSlugTaken = ErrorResponse{
		Status:  "error",
		Error:   "slug_taken",
		Details: "A post with this slug already exists",
	}

	ErrFileMissing = ErrorResponse{
		Status:  "error",
		Error:   "file_missing",
		Details: "Multipart field 'file' is required",
	}

	ErrUploadFailed = ErrorResponse{
		Status:  "error",
		Error:   "upload_failed",
		Details: "Failed to store the file in object storage",
	}

	ErrInternal = ErrorResponse{
		Status:  "error",
		Error:   "internal_error",
		Details: "Internal server error",
	}
)
