package dto

// PaginationMeta captures pagination metadata for list responses.
type PaginationMeta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// StaffAction is the minimal body for staff driven transitions.
type StaffAction struct {
	StaffName string `json:"staff_name"`
}
