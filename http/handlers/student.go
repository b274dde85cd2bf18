package handlers

import (
	"database/sql"
	"log"
	"net/http"
	"strconv"

	"fees-module/http/response"
	"fees-module/models"
	"fees-module/utils"
)

// StudentHandler covers enrollment and class/section administration.
type StudentHandler struct {
	db *sql.DB
}

func NewStudentHandler(database *sql.DB) *StudentHandler {
	return &StudentHandler{db: database}
}

// Create enrolls a new student (admin endpoint).
func (h *StudentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name          string `json:"name" validate:"required"`
		ClassName     string `json:"class_name" validate:"required"`
		Section       string `json:"section"`
		FatherName    string `json:"father_name"`
		FatherContact string `json:"father_contact"`
		Email         string `json:"email" validate:"omitempty,email"`
	}

	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	var studentID int
	query := `INSERT INTO students (name, class_name, section, father_name, father_contact, email)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	err := h.db.QueryRowContext(r.Context(), query,
		req.Name, req.ClassName, req.Section, req.FatherName, req.FatherContact, req.Email).Scan(&studentID)
	if err != nil {
		log.Printf("Error creating student: %v", err)
		response.ErrorResponse(w, http.StatusInternalServerError, "Error creating student")
		return
	}

	response.SuccessResponse(w, http.StatusCreated, "Student enrolled", map[string]interface{}{
		"student_id": studentID,
		"name":       req.Name,
		"class_name": req.ClassName,
	})
}

// List returns all students (admin endpoint).
func (h *StudentHandler) List(w http.ResponseWriter, r *http.Request) {
	query := `SELECT id, name, class_name, section, father_name, father_contact, email, created_at, updated_at
		FROM students ORDER BY class_name, name`
	rows, err := h.db.QueryContext(r.Context(), query)
	if err != nil {
		response.ErrorResponse(w, http.StatusInternalServerError, "Error fetching students")
		return
	}
	defer rows.Close()

	students := []models.Student{}
	for rows.Next() {
		var st models.Student
		if err := rows.Scan(&st.ID, &st.Name, &st.ClassName, &st.Section,
			&st.FatherName, &st.FatherContact, &st.Email, &st.CreatedAt, &st.UpdatedAt); err != nil {
			response.ErrorResponse(w, http.StatusInternalServerError, "Error processing students")
			return
		}
		students = append(students, st)
	}
	if err = rows.Err(); err != nil {
		response.ErrorResponse(w, http.StatusInternalServerError, "Error processing students")
		return
	}

	response.SuccessResponse(w, http.StatusOK, "", students)
}

// Get returns a single student by id.
func (h *StudentHandler) Get(w http.ResponseWriter, r *http.Request) {
	studentID, err := strconv.Atoi(r.PathValue("studentId"))
	if err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, "Invalid student ID")
		return
	}

	var st models.Student
	query := `SELECT id, name, class_name, section, father_name, father_contact, email, created_at, updated_at
		FROM students WHERE id = $1`
	err = h.db.QueryRowContext(r.Context(), query, studentID).Scan(
		&st.ID, &st.Name, &st.ClassName, &st.Section,
		&st.FatherName, &st.FatherContact, &st.Email, &st.CreatedAt, &st.UpdatedAt)
	if err != nil {
		response.ErrorResponse(w, http.StatusNotFound, "Student not found")
		return
	}

	response.SuccessResponse(w, http.StatusOK, "", st)
}

// ReassignClass mutates a student's class/section (admin endpoint). The
// fee structure owed follows the new class on the next ledger read.
func (h *StudentHandler) ReassignClass(w http.ResponseWriter, r *http.Request) {
	studentID, err := strconv.Atoi(r.PathValue("studentId"))
	if err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, "Invalid student ID")
		return
	}

	var req struct {
		ClassName string `json:"class_name" validate:"required"`
		Section   string `json:"section"`
	}
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.db.ExecContext(r.Context(),
		`UPDATE students SET class_name = $1, section = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $3`,
		req.ClassName, req.Section, studentID)
	if err != nil {
		log.Printf("Error reassigning student %d: %v", studentID, err)
		response.ErrorResponse(w, http.StatusInternalServerError, "Error updating student")
		return
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		response.ErrorResponse(w, http.StatusNotFound, "Student not found")
		return
	}

	response.SuccessResponse(w, http.StatusOK, "Class updated", map[string]interface{}{
		"student_id": studentID,
		"class_name": req.ClassName,
		"section":    req.Section,
	})
}
