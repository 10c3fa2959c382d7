package models

import "time"

type Feedback struct {
	ID             int64     `json:"id"`
	SessionID      int64     `json:"session_id"`
	PatientID      int64     `json:"patient_id"`
	PractitionerID int64     `json:"practitioner_id"`
	Rating         int       `json:"rating"`
	Comment        *string   `json:"comment"`
	CreatedAt      time.Time `json:"created_at"`
}
