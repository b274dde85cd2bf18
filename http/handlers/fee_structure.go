package handlers

import (
	"database/sql"
	"log"
	"net/http"

	"fees-module/http/response"
	"fees-module/models"
	"fees-module/utils"
)

// FeeStructureHandler administers the per-class annual fee table.
type FeeStructureHandler struct {
	db *sql.DB
}

func NewFeeStructureHandler(database *sql.DB) *FeeStructureHandler {
	return &FeeStructureHandler{db: database}
}

// Upsert creates or replaces the fee structure for a class (admin
// endpoint). One record per class.
func (h *FeeStructureHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ClassName string  `json:"class_name" validate:"required"`
		Amount    float64 `json:"amount" validate:"gt=0"`
	}

	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	var id int
	query := `INSERT INTO fee_structures (class_name, amount) VALUES ($1, $2)
		ON CONFLICT (class_name) DO UPDATE SET amount = EXCLUDED.amount, updated_at = CURRENT_TIMESTAMP
		RETURNING id`
	if err := h.db.QueryRowContext(r.Context(), query, req.ClassName, req.Amount).Scan(&id); err != nil {
		log.Printf("Error upserting fee structure: %v", err)
		response.ErrorResponse(w, http.StatusInternalServerError, "Error saving fee structure")
		return
	}

	response.SuccessResponse(w, http.StatusOK, "Fee structure saved", map[string]interface{}{
		"id":         id,
		"class_name": req.ClassName,
		"amount":     req.Amount,
	})
}

// List returns all configured class fees.
func (h *FeeStructureHandler) List(w http.ResponseWriter, r *http.Request) {
	rows, err := h.db.QueryContext(r.Context(),
		`SELECT id, class_name, amount, created_at, updated_at FROM fee_structures ORDER BY class_name`)
	if err != nil {
		response.ErrorResponse(w, http.StatusInternalServerError, "Error fetching fee structures")
		return
	}
	defer rows.Close()

	structures := []models.FeeStructure{}
	for rows.Next() {
		var fs models.FeeStructure
		if err := rows.Scan(&fs.ID, &fs.ClassName, &fs.Amount, &fs.CreatedAt, &fs.UpdatedAt); err != nil {
			response.ErrorResponse(w, http.StatusInternalServerError, "Error processing fee structures")
			return
		}
		structures = append(structures, fs)
	}
	if err = rows.Err(); err != nil {
		response.ErrorResponse(w, http.StatusInternalServerError, "Error processing fee structures")
		return
	}

	response.SuccessResponse(w, http.StatusOK, "", structures)
}

// Get resolves the fee structure for one class. Absence is a user-visible
// "no fee configured" state, not a server fault.
func (h *FeeStructureHandler) Get(w http.ResponseWriter, r *http.Request) {
	className := r.PathValue("className")
	if className == "" {
		response.ErrorResponse(w, http.StatusBadRequest, "Class name is required")
		return
	}

	var fs models.FeeStructure
	err := h.db.QueryRowContext(r.Context(),
		`SELECT id, class_name, amount, created_at, updated_at FROM fee_structures WHERE class_name = $1`,
		className).Scan(&fs.ID, &fs.ClassName, &fs.Amount, &fs.CreatedAt, &fs.UpdatedAt)
	if err == sql.ErrNoRows {
		response.ErrorResponse(w, http.StatusNotFound, "No fee configured for class "+className)
		return
	}
	if err != nil {
		response.ErrorResponse(w, http.StatusInternalServerError, "Error fetching fee structure")
		return
	}

	response.SuccessResponse(w, http.StatusOK, "", fs)
}
