package settlement

import "errors"

var (
	ErrInvalidAmount      = errors.New("invalid purchase amount")
	ErrPartnerNotFound    = errors.New("partner not found")
	ErrPurchaseNotFound   = errors.New("purchase not found")
	ErrSettlementNotFound = errors.New("settlement not found")
	ErrInvalidTransition  = errors.New("illegal status transition")
	ErrAlreadyRejected    = errors.New("settlement already rejected")
	ErrAlreadyReleased    = errors.New("cashback already released")
	ErrAmountMismatch     = errors.New("confirmation amount does not match settlement")
	ErrProofNotUploaded   = errors.New("proof object was not uploaded")
	ErrProofCheckFailed   = errors.New("proof storage check failed")
	ErrProofsDisabled     = errors.New("proof storage is not configured")
)
