package models

import "time"

type PaymentProof struct {
	ID         string     `json:"id"`
	OrderID    string     `json:"order_id"`
	BlobRef    string     `json:"blob_ref"`
	UploadedAt time.Time  `json:"uploaded_at"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
	VerifiedBy string     `json:"verified_by,omitempty"`
}

func (p PaymentProof) Verified() bool {
	return p.VerifiedAt != nil
}
