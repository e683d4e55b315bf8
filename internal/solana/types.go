package solana

import "strconv"

// TokenAmount is a parsed token balance.
type TokenAmount struct {
	Amount   string  // raw integer amount as decimal string
	Decimals int
	UIAmount float64
}

// Raw returns the raw integer amount, 0 if unparseable.
func (a *TokenAmount) Raw() uint64 {
	n, err := strconv.ParseUint(a.Amount, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// TokenAccount is one SPL token account from getTokenAccountsByOwner.
type TokenAccount struct {
	Pubkey          string
	Mint            string
	Owner           string
	Amount          TokenAmount
	Delegate        *string
	DelegatedAmount *TokenAmount
	FreezeAuthority *string
	CloseAuthority  *string
}

// AccountInfo represents Solana account information.
type AccountInfo struct {
	Lamports   uint64 `json:"lamports"`
	Owner      string `json:"owner"`
	Data       string `json:"data"` // base64 encoded
	Executable bool   `json:"executable"`
	RentEpoch  uint64 `json:"rentEpoch"`
}
