package topup

// SubmitRequest is the payload for POST /topups
type SubmitRequest struct {
	Amount   int64  `json:"amount" validate:"required,gt=0"`
	ProofRef string `json:"proof_ref" validate:"required,max=512"`
	Method   string `json:"method" validate:"required,topup_method"`
}

// DecideRequest is the payload for POST /topups/{id}/decision
type DecideRequest struct {
	Verdict   string `json:"verdict" validate:"required,verdict"`
	AdminNote string `json:"admin_note" validate:"max=500"`
}
