package pass

// IssueRequest is the payload for POST /passes
type IssueRequest struct {
	VisitorName string `json:"visitor_name" validate:"required,min=2,max=120"`
	Purpose     string `json:"purpose" validate:"max=500"`
}

// RedeemRequest is the payload for POST /passes/redeem (gate scan)
type RedeemRequest struct {
	Token string `json:"token" validate:"required,len=64,hexadecimal"`
}

// IssueResponse returns the new credential together with its QR token. The
// token is only ever exposed to the owner; list endpoints omit it.
type IssueResponse struct {
	Credential *Credential `json:"credential"`
	Token      string      `json:"token"`
	Balance    int64       `json:"balance"`
}
