package db

import (
	"database/sql"
	"fmt"

	"fees-module/config"

	_ "github.com/lib/pq"
)

// Connect opens the Postgres pool, verifies connectivity and bootstraps the
// schema. The handle is returned to the caller; nothing here is a package
// global.
func Connect(cfg config.Config) (*sql.DB, error) {
	conn, err := sql.Open("postgres", cfg.DBConnString())
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	if err := createTables(conn); err != nil {
		return nil, fmt.Errorf("error creating tables: %w", err)
	}

	return conn, nil
}

func createTables(conn *sql.DB) error {
	studentTable := `
	CREATE TABLE IF NOT EXISTS students (
		id SERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		class_name TEXT NOT NULL,
		section TEXT NOT NULL DEFAULT '',
		father_name TEXT NOT NULL DEFAULT '',
		father_contact TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);`

	feeStructureTable := `
	CREATE TABLE IF NOT EXISTS fee_structures (
		id SERIAL PRIMARY KEY,
		class_name TEXT NOT NULL UNIQUE,
		amount DOUBLE PRECISION NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);`

	feeOrderTable := `
	CREATE TABLE IF NOT EXISTS fee_orders (
		id SERIAL PRIMARY KEY,
		order_id TEXT NOT NULL UNIQUE,
		student_id INTEGER NOT NULL REFERENCES students(id),
		amount DOUBLE PRECISION NOT NULL,
		months TEXT[] NOT NULL,
		status TEXT NOT NULL DEFAULT 'PENDING',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);`

	onlinePaymentTable := `
	CREATE TABLE IF NOT EXISTS online_payments (
		id SERIAL PRIMARY KEY,
		student_id INTEGER NOT NULL REFERENCES students(id),
		amount_paid DOUBLE PRECISION NOT NULL,
		razorpay_order_id TEXT NOT NULL,
		razorpay_payment_id TEXT NOT NULL UNIQUE,
		razorpay_signature TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'success',
		months TEXT[] NOT NULL,
		paid_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);`

	offlinePaymentTable := `
	CREATE TABLE IF NOT EXISTS offline_payments (
		id SERIAL PRIMARY KEY,
		student_id INTEGER NOT NULL REFERENCES students(id),
		amount DOUBLE PRECISION NOT NULL,
		months TEXT[] NOT NULL,
		payment_mode TEXT NOT NULL DEFAULT 'CASH',
		cashier TEXT NOT NULL DEFAULT '',
		remark TEXT NOT NULL DEFAULT '',
		received_by TEXT NOT NULL DEFAULT '',
		received_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);`

	// Canonical month coverage. The unique index is what closes the
	// concurrent double-payment race: both writers insert here inside
	// their payment transaction and the loser fails with 23505.
	paidMonthTable := `
	CREATE TABLE IF NOT EXISTS paid_months (
		student_id INTEGER NOT NULL REFERENCES students(id),
		month TEXT NOT NULL,
		source TEXT NOT NULL,
		payment_ref INTEGER NOT NULL,
		UNIQUE (student_id, month)
	);`

	tables := []string{
		studentTable,
		feeStructureTable,
		feeOrderTable,
		onlinePaymentTable,
		offlinePaymentTable,
		paidMonthTable,
	}

	for _, table := range tables {
		if _, err := conn.Exec(table); err != nil {
			return err
		}
	}

	return nil
}
