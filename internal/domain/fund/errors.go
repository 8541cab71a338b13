package fund

import "errors"

var (
	ErrNoOpenFund         = errors.New("no open fund for cycle")
	ErrAlreadyDistributed = errors.New("fund already distributed")
	ErrNoBeneficiaries    = errors.New("no eligible beneficiaries in window")
	ErrInvalidAmount      = errors.New("invalid contribution amount")
)
