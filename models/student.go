package models

import "time"

// Student represents an enrolled student and their class/section assignment.
// The fee structure owed by a student is derived from the current class.
type Student struct {
	ID            int       `json:"id"`
	Name          string    `json:"name"`
	ClassName     string    `json:"class_name"`
	Section       string    `json:"section"`
	FatherName    string    `json:"father_name"`
	FatherContact string    `json:"father_contact"`
	Email         string    `json:"email"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// FeeStructure is the annual fee configured for a class. One record per class.
type FeeStructure struct {
	ID        int       `json:"id"`
	ClassName string    `json:"class_name"`
	Amount    float64   `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
