package models

import "time"

// UserRole represents the available roles for the access policy.
type UserRole string

const (
	RoleAdmin   UserRole = "admin"
	RoleTeacher UserRole = "teacher"
	RoleStudent UserRole = "student"
)

// Valid returns true when the role is a supported value.
func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleTeacher, RoleStudent:
		return true
	default:
		return false
	}
}

// User represents a person stored in the users table. Students carry their
// region, school and batch; staff usually leave them blank.
type User struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Email       *string   `db:"email" json:"email,omitempty"`
	Role        UserRole  `db:"role" json:"role"`
	Region      string    `db:"region" json:"region"`
	SchoolName  string    `db:"school_name" json:"schoolName"`
	BatchNumber string    `db:"batch_number" json:"batchNumber"`
	Mobile      string    `db:"mobile" json:"mobile"`
	Age         *int      `db:"age" json:"age,omitempty"`
	Standard    string    `db:"standard" json:"standard"`
	IsActive    bool      `db:"is_active" json:"isActive"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role      *UserRole
	Active    *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// StudentFilter narrows the student roster.
type StudentFilter struct {
	Region      string
	SchoolName  string
	BatchNumber string
	// Status is one of all, active, inactive. Empty means active.
	Status      string
}

// StudentStats counts students by activity.
type StudentStats struct {
	Total    int `db:"total" json:"total"`
	Active   int `db:"active" json:"active"`
	Inactive int `db:"inactive" json:"inactive"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalCount int `json:"totalCount"`
}
